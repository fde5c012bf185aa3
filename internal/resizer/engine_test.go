package resizer

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, string, string) {
	t.Helper()

	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	e := New(nil)
	require.NoError(t, e.ConfigureFolders(src, dst))
	return e, src, dst
}

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 3), G: uint8(y * 5), B: 0x80, A: 0xff})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func imageSize(t *testing.T, path string) (int, int) {
	t.Helper()

	img, err := imaging.Open(path)
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestEngine_ConfigureFolders(t *testing.T) {
	t.Run("missing source", func(t *testing.T) {
		e := New(nil)
		err := e.ConfigureFolders(filepath.Join(t.TempDir(), "missing"), t.TempDir())
		require.ErrorIs(t, err, ErrInvalidSource)
		assert.False(t, e.Folders().Configured())
	})

	t.Run("creates destination", func(t *testing.T) {
		e := New(nil)
		src := t.TempDir()
		dst := filepath.Join(t.TempDir(), "a", "b")

		require.NoError(t, e.ConfigureFolders(src, dst))

		info, err := os.Stat(dst)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, FolderPair{Source: src, Destination: dst}, e.Folders())
	})

	t.Run("destination cannot be created", func(t *testing.T) {
		e := New(nil)
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

		err := e.ConfigureFolders(t.TempDir(), filepath.Join(blocker, "out"))
		require.ErrorIs(t, err, ErrDestinationCreate)
		assert.False(t, e.Folders().Configured())
	})

	t.Run("empty destination", func(t *testing.T) {
		e := New(nil)
		require.ErrorIs(t, e.ConfigureFolders(t.TempDir(), ""), ErrDestinationCreate)
	})

	t.Run("failure keeps previous folders", func(t *testing.T) {
		e, src, dst := newTestEngine(t)
		require.Error(t, e.ConfigureFolders(filepath.Join(src, "missing"), dst))
		assert.Equal(t, FolderPair{Source: src, Destination: dst}, e.Folders())
	})
}

func TestEngine_ConfigurePolicy(t *testing.T) {
	e := New(nil)
	assert.Equal(t, DefaultPolicy(), e.Policy())

	factor := 0.5
	e.ConfigurePolicy(&factor, nil)
	assert.Equal(t, Policy{ScalingFactor: 0.5}, e.Policy())

	res := 800
	e.ConfigurePolicy(nil, &res)
	assert.Equal(t, Policy{ScalingFactor: 0.5, SingleSideResolution: 800}, e.Policy())
	assert.Equal(t, "a_800px.png", e.OutputName("a.png"))

	// Ноль принимается и выключает режим одной стороны
	zero := 0
	e.ConfigurePolicy(nil, &zero)
	assert.Equal(t, "a_x0.5.png", e.OutputName("a.png"))

	e.ConfigurePolicy(nil, nil)
	assert.Equal(t, Policy{ScalingFactor: 0.5}, e.Policy())
}

func TestEngine_ProcessOne(t *testing.T) {
	e, src, dst := newTestEngine(t)
	factor := 0.5
	e.ConfigurePolicy(&factor, nil)

	writePNG(t, filepath.Join(src, "a.png"), 40, 20)

	result := e.ProcessOne("a.png")
	assert.True(t, result.Success)
	assert.Equal(t, StatusProcessed, result.Status)
	assert.Equal(t, "a.png", result.Filename)
	assert.Equal(t, filepath.Join(dst, "a_x0.5.png"), result.OutputPath)
	assert.Empty(t, result.Error)

	w, h := imageSize(t, result.OutputPath)
	assert.Equal(t, 20, w)
	assert.Equal(t, 10, h)

	// Временный файл не остаётся
	_, err := os.Stat(filepath.Join(dst, ".a_x0.5.png.resizing"))
	assert.True(t, os.IsNotExist(err))
}

func TestEngine_ProcessOneIdempotent(t *testing.T) {
	e, src, _ := newTestEngine(t)
	writePNG(t, filepath.Join(src, "a.png"), 10, 10)

	first := e.ProcessOne("a.png")
	require.Equal(t, StatusProcessed, first.Status)

	// Отодвигаем время выхода в прошлое, но не раньше источника,
	// чтобы любая новая запись была заметна.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(src, "a.png"), past, past))
	require.NoError(t, os.Chtimes(first.OutputPath, past, past))

	second := e.ProcessOne("a.png")
	assert.True(t, second.Success)
	assert.Equal(t, StatusAlreadyProcessed, second.Status)
	assert.Equal(t, first.OutputPath, second.OutputPath)

	info, err := os.Stat(second.OutputPath)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(past), "выходной файл не должен перезаписываться")
}

func TestEngine_ProcessOneNewerSource(t *testing.T) {
	e, src, _ := newTestEngine(t)
	input := filepath.Join(src, "a.png")
	writePNG(t, input, 10, 10)

	first := e.ProcessOne("a.png")
	require.Equal(t, StatusProcessed, first.Status)

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(first.OutputPath, old, old))
	newer := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(input, newer, newer))

	second := e.ProcessOne("a.png")
	assert.Equal(t, StatusProcessed, second.Status)

	info, err := os.Stat(second.OutputPath)
	require.NoError(t, err)
	assert.True(t, info.ModTime().After(newer))
}

func TestEngine_ProcessOneFailures(t *testing.T) {
	t.Run("corrupt image", func(t *testing.T) {
		e, src, dst := newTestEngine(t)
		require.NoError(t, os.WriteFile(filepath.Join(src, "bad.jpg"), []byte("not an image"), 0o644))

		result := e.ProcessOne("bad.jpg")
		assert.False(t, result.Success)
		assert.Equal(t, StatusFailed, result.Status)
		assert.NotEmpty(t, result.Error)

		entries, err := os.ReadDir(dst)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("invalid dimensions", func(t *testing.T) {
		e, src, _ := newTestEngine(t)
		zero := 0.0
		e.ConfigurePolicy(&zero, nil)
		writePNG(t, filepath.Join(src, "a.png"), 10, 10)

		result := e.ProcessOne("a.png")
		assert.Equal(t, StatusFailed, result.Status)

		_, err := os.Stat(result.OutputPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("unsupported output extension", func(t *testing.T) {
		e, src, dst := newTestEngine(t)
		writePNG(t, filepath.Join(src, "a.png"), 8, 8)

		err := e.Resize(filepath.Join(src, "a.png"), filepath.Join(dst, "a.heic"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("missing source file", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		result := e.ProcessOne("ghost.png")
		assert.False(t, result.Success)
		assert.Equal(t, StatusFailed, result.Status)
	})
}

func TestEngine_ResizeErrors(t *testing.T) {
	e, src, dst := newTestEngine(t)
	writePNG(t, filepath.Join(src, "a.png"), 8, 8)

	zero := 0.0
	e.ConfigurePolicy(&zero, nil)
	err := e.Resize(filepath.Join(src, "a.png"), filepath.Join(dst, "a.png"))
	assert.ErrorIs(t, err, ErrInvalidDimensions)

	err = e.Resize(filepath.Join(src, "missing.png"), filepath.Join(dst, "m.png"))
	assert.ErrorIs(t, err, ErrResizeIO)
}

// buildOrientationExif строит минимальный TIFF-блок с тегом Orientation.
func buildOrientationExif(orientation uint16) []byte {
	var tiff bytes.Buffer
	tiff.Write([]byte{0x49, 0x49, 0x2a, 0x00})
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(1))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0112))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(3))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(1))
	_ = binary.Write(&tiff, binary.LittleEndian, orientation)
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(0))
	return tiff.Bytes()
}

func writeJPEGWithExif(t *testing.T, path string, w, h int, orientation uint16) {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(w, h), &jpeg.Options{Quality: 90}))
	encoded := buf.Bytes()

	payload := append([]byte("Exif\x00\x00"), buildOrientationExif(orientation)...)
	var out bytes.Buffer
	out.Write(encoded[:2])
	out.Write([]byte{0xff, 0xe1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(encoded[2:])

	require.NoError(t, os.WriteFile(path, out.Bytes(), 0o644))
}

func TestEngine_PreservesJPEGMetadata(t *testing.T) {
	e, src, _ := newTestEngine(t)
	res := 50
	e.ConfigurePolicy(nil, &res)

	writeJPEGWithExif(t, filepath.Join(src, "cam.jpg"), 100, 60, 6)

	result := e.ProcessOne("cam.jpg")
	require.Equal(t, StatusProcessed, result.Status, result.Error)

	// Пиксели не поворачиваются: длинная сторона по-прежнему ширина
	w, h := imageSize(t, result.OutputPath)
	assert.Equal(t, 50, w)
	assert.Equal(t, 30, h)

	f, err := os.Open(result.OutputPath)
	require.NoError(t, err)
	defer f.Close()

	meta, err := readJPEGMetadata(f)
	require.NoError(t, err)
	require.False(t, meta.empty())
	assert.Equal(t, 6, meta.orientation())

	exifW, exifH := meta.dimensions()
	assert.Equal(t, 50, exifW)
	assert.Equal(t, 30, exifH)
}

func TestJPEGMetadata_SetDimensions(t *testing.T) {
	payload := append([]byte("Exif\x00\x00"), buildOrientationExif(3)...)
	var jpg bytes.Buffer
	jpg.Write([]byte{0xff, 0xd8, 0xff, 0xe1})
	_ = binary.Write(&jpg, binary.BigEndian, uint16(len(payload)+2))
	jpg.Write(payload)
	jpg.Write([]byte{0xff, 0xd9})

	meta, err := readJPEGMetadata(bytes.NewReader(jpg.Bytes()))
	require.NoError(t, err)

	w, h := meta.dimensions()
	assert.Zero(t, w)
	assert.Zero(t, h)

	require.NoError(t, meta.setDimensions(640, 427))

	w, h = meta.dimensions()
	assert.Equal(t, 640, w)
	assert.Equal(t, 427, h)
	assert.Equal(t, 3, meta.orientation())

	seg := meta.segments[meta.exifIndex]
	assert.Equal(t, []byte{0xff, 0xe1}, seg[:2])
	assert.Equal(t, len(seg)-2, int(binary.BigEndian.Uint16(seg[2:4])))
	assert.True(t, bytes.HasPrefix(seg[4:], jpegExifHeader))
}

func TestJPEGMetadata_SetDimensionsWithoutExif(t *testing.T) {
	var meta *jpegMetadata
	assert.NoError(t, meta.setDimensions(10, 10))

	meta = &jpegMetadata{segments: [][]byte{{0xff, 0xe2, 0x00, 0x02}}}
	assert.NoError(t, meta.setDimensions(10, 10))
	assert.Equal(t, []byte{0xff, 0xe2, 0x00, 0x02}, meta.segments[0])
}

func TestEngine_ProcessOneWebP(t *testing.T) {
	e, src, _ := newTestEngine(t)
	factor := 0.5
	e.ConfigurePolicy(&factor, nil)

	var buf bytes.Buffer
	require.NoError(t, nativewebp.Encode(&buf, testImage(20, 10), &nativewebp.Options{}))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.webp"), buf.Bytes(), 0o644))

	result := e.ProcessOne("a.webp")
	require.Equal(t, StatusProcessed, result.Status, result.Error)
	assert.Equal(t, "a_x0.5.webp", filepath.Base(result.OutputPath))

	w, h := imageSize(t, result.OutputPath)
	assert.Equal(t, 10, w)
	assert.Equal(t, 5, h)

	again := e.ProcessOne("a.webp")
	assert.Equal(t, StatusAlreadyProcessed, again.Status)
}

func TestEngine_JPEGWithoutMetadata(t *testing.T) {
	e, src, _ := newTestEngine(t)

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(20, 20), nil))
	require.NoError(t, os.WriteFile(filepath.Join(src, "plain.jpeg"), buf.Bytes(), 0o644))

	result := e.ProcessOne("plain.jpeg")
	require.Equal(t, StatusProcessed, result.Status, result.Error)

	data, err := os.ReadFile(result.OutputPath)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(data, jpegExifHeader))
}

func TestResult_JSON(t *testing.T) {
	r := Result{Filename: "a.jpg", Success: true, OutputPath: "/out/a_x1.0.jpg", Status: StatusAlreadyProcessed}
	assert.JSONEq(t,
		`{"filename":"a.jpg","success":true,"output_path":"/out/a_x1.0.jpg","status":"Already processed"}`,
		r.JSON(),
	)
	assert.True(t, r.Status.Valid())
	assert.False(t, Status("done").Valid())
}
