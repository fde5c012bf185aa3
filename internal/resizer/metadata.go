package resizer

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

// maxSegmentPayload - максимальный размер данных сегмента JPEG без поля длины.
const maxSegmentPayload = 0xffff - 2

var (
	jpegExifHeader = []byte("Exif\x00\x00")
	jpegICCHeader  = []byte("ICC_PROFILE\x00")
)

// jpegMetadata содержит сегменты JPEG, которые переносятся в выходной файл:
// APP1 Exif (включая ориентацию) и APP2 ICC профиль.
type jpegMetadata struct {
	// segments - сегменты целиком: маркер, длина и данные.
	segments [][]byte

	// exif - TIFF-данные первого Exif сегмента.
	exif []byte

	// exifIndex - индекс этого сегмента в segments.
	exifIndex int
}

// readJPEGMetadata читает заголовочные сегменты JPEG до начала скана.
func readJPEGMetadata(r io.Reader) (*jpegMetadata, error) {
	br := bufio.NewReader(r)

	soi := make([]byte, 2)
	if _, err := io.ReadFull(br, soi); err != nil {
		return nil, err
	}
	if soi[0] != 0xff || soi[1] != 0xd8 {
		return nil, fmt.Errorf("некорректный JPEG SOI")
	}

	meta := &jpegMetadata{}
	for {
		marker, err := nextMarker(br)
		if err != nil {
			return nil, err
		}

		// SOS или EOI: дальше метаданных нет
		if marker == 0xda || marker == 0xd9 {
			return meta, nil
		}

		// Маркеры без длины
		if marker == 0x01 || (marker >= 0xd0 && marker <= 0xd7) {
			continue
		}

		lenBuf := make([]byte, 2)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			return nil, err
		}
		segLen := int(binary.BigEndian.Uint16(lenBuf))
		if segLen < 2 {
			return nil, fmt.Errorf("некорректная длина сегмента JPEG")
		}

		payload := make([]byte, segLen-2)
		if _, err := io.ReadFull(br, payload); err != nil {
			return nil, err
		}

		isExif := marker == 0xe1 && bytes.HasPrefix(payload, jpegExifHeader)
		isICC := marker == 0xe2 && bytes.HasPrefix(payload, jpegICCHeader)
		if !isExif && !isICC {
			continue
		}

		segment := make([]byte, 0, 4+len(payload))
		segment = append(segment, 0xff, marker)
		segment = append(segment, lenBuf...)
		segment = append(segment, payload...)
		if isExif && meta.exif == nil {
			meta.exif = payload[len(jpegExifHeader):]
			meta.exifIndex = len(meta.segments)
		}
		meta.segments = append(meta.segments, segment)
	}
}

func nextMarker(br *bufio.Reader) (byte, error) {
	b, err := br.ReadByte()
	if err != nil {
		return 0, err
	}
	for b != 0xff {
		if b, err = br.ReadByte(); err != nil {
			return 0, err
		}
	}

	marker, err := br.ReadByte()
	if err != nil {
		return 0, err
	}
	for marker == 0xff {
		if marker, err = br.ReadByte(); err != nil {
			return 0, err
		}
	}
	return marker, nil
}

// empty возвращает true, если переносить нечего.
func (m *jpegMetadata) empty() bool {
	return m == nil || len(m.segments) == 0
}

// splice вставляет сохранённые сегменты сразу после SOI закодированного JPEG.
func (m *jpegMetadata) splice(encoded []byte) ([]byte, error) {
	if len(encoded) < 2 || encoded[0] != 0xff || encoded[1] != 0xd8 {
		return nil, fmt.Errorf("закодированные данные не являются JPEG")
	}
	if m.empty() {
		return encoded, nil
	}

	size := len(encoded)
	for _, seg := range m.segments {
		size += len(seg)
	}

	out := make([]byte, 0, size)
	out = append(out, encoded[:2]...)
	for _, seg := range m.segments {
		out = append(out, seg...)
	}
	out = append(out, encoded[2:]...)
	return out, nil
}

// orientation возвращает значение EXIF Orientation (1-8) или 0, если тега нет.
func (m *jpegMetadata) orientation() int {
	for _, tag := range m.flatTags() {
		if tag.TagName == "Orientation" {
			return tagInt(tag.Value)
		}
	}
	return 0
}

func (m *jpegMetadata) flatTags() (tags []exif.ExifTag) {
	if m == nil || len(m.exif) == 0 {
		return nil
	}

	// go-exif паникует на части повреждённых данных
	defer func() {
		if r := recover(); r != nil {
			tags = nil
		}
	}()

	tags, _, err := exif.GetFlatExifData(m.exif, nil)
	if err != nil {
		return nil
	}
	return tags
}

func tagInt(value any) int {
	switch v := value.(type) {
	case []uint16:
		if len(v) > 0 {
			return int(v[0])
		}
	case []uint32:
		if len(v) > 0 {
			return int(v[0])
		}
	}
	return 0
}

// setDimensions записывает PixelXDimension и PixelYDimension в Exif сегмент.
// Без Exif ничего не делает. При ошибке сегмент остаётся прежним.
func (m *jpegMetadata) setDimensions(width, height int) (err error) {
	if m == nil || len(m.exif) == 0 {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("go-exif: %v", r)
		}
	}()

	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return err
	}

	_, index, err := exif.Collect(im, exif.NewTagIndex(), m.exif)
	if err != nil {
		return err
	}

	rootIb := exif.NewIfdBuilderFromExistingChain(index.RootIfd)
	exifIb, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD/Exif")
	if err != nil {
		return err
	}
	if err := exifIb.SetStandardWithName("PixelXDimension", []uint32{uint32(width)}); err != nil {
		return err
	}
	if err := exifIb.SetStandardWithName("PixelYDimension", []uint32{uint32(height)}); err != nil {
		return err
	}

	tiff, err := exif.NewIfdByteEncoder().EncodeToExif(rootIb)
	if err != nil {
		return err
	}

	payload := append(append([]byte{}, jpegExifHeader...), tiff...)
	if len(payload) > maxSegmentPayload {
		return fmt.Errorf("Exif сегмент больше %d байт", maxSegmentPayload)
	}

	segment := make([]byte, 0, 4+len(payload))
	segment = append(segment, 0xff, 0xe1)
	segment = binary.BigEndian.AppendUint16(segment, uint16(len(payload)+2))
	segment = append(segment, payload...)

	m.segments[m.exifIndex] = segment
	m.exif = tiff
	return nil
}

// dimensions возвращает PixelXDimension и PixelYDimension или нули, если тегов нет.
func (m *jpegMetadata) dimensions() (width, height int) {
	for _, tag := range m.flatTags() {
		v := tagInt(tag.Value)
		switch tag.TagName {
		case "PixelXDimension":
			width = v
		case "PixelYDimension":
			height = v
		}
	}
	return width, height
}
