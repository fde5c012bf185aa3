// Package resizer содержит логику изменения размера изображений.
package resizer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // декодер WebP для image.Decode

	"github.com/artemshloyda/photoresizer/internal/scanner"
)

// DefaultQuality - качество JPEG по умолчанию.
const DefaultQuality = 90

// FolderPair - пара исходной и выходной папок.
type FolderPair struct {
	// Source - папка с исходными изображениями.
	Source string `json:"source_folder"`

	// Destination - папка для результатов.
	Destination string `json:"destination_folder"`
}

// Configured возвращает true, если обе папки заданы.
func (f FolderPair) Configured() bool {
	return f.Source != "" && f.Destination != ""
}

// Engine изменяет размер изображений по текущей политике.
// Папки и политика защищены мьютексом: читатель всегда видит целостный снимок.
type Engine struct {
	mu      sync.RWMutex
	folders FolderPair
	policy  Policy

	// quality - качество для JPEG (1-100).
	quality int

	logger *slog.Logger
}

// Option настраивает Engine.
type Option func(*Engine)

// WithQuality задаёт качество JPEG.
func WithQuality(q int) Option {
	return func(e *Engine) {
		if q >= 1 && q <= 100 {
			e.quality = q
		}
	}
}

// WithPolicy задаёт начальную политику.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// New создаёт новый Engine. Если logger == nil, логи отбрасываются.
func New(logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := &Engine{
		policy:  DefaultPolicy(),
		quality: DefaultQuality,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ConfigureFolders проверяет и устанавливает пару папок.
// Папка назначения создаётся, если её нет.
func (e *Engine) ConfigureFolders(source, destination string) error {
	info, err := os.Stat(source)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrInvalidSource, source)
	}

	if destination == "" {
		return fmt.Errorf("%w: путь не указан", ErrDestinationCreate)
	}

	if _, err := os.Stat(destination); os.IsNotExist(err) {
		if err := os.MkdirAll(destination, 0755); err != nil {
			return fmt.Errorf("%w: %w", ErrDestinationCreate, err)
		}
		e.logger.Info("создана папка назначения", "path", destination)
	} else if err != nil {
		return fmt.Errorf("%w: %w", ErrDestinationCreate, err)
	}

	e.mu.Lock()
	e.folders = FolderPair{Source: source, Destination: destination}
	e.mu.Unlock()

	return nil
}

// ConfigurePolicy перезаписывает переданные поля политики.
// nil оставляет прежнее значение. Значения не проверяются:
// некорректные приведут к ErrInvalidDimensions при обработке.
func (e *Engine) ConfigurePolicy(scalingFactor *float64, singleSideResolution *int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if scalingFactor != nil {
		e.policy.ScalingFactor = *scalingFactor
	}
	if singleSideResolution != nil {
		e.policy.SingleSideResolution = *singleSideResolution
	}
}

// Folders возвращает снимок текущей пары папок.
func (e *Engine) Folders() FolderPair {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.folders
}

// Policy возвращает снимок текущей политики.
func (e *Engine) Policy() Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.policy
}

// OutputName строит имя выходного файла по текущей политике.
func (e *Engine) OutputName(filename string) string {
	return e.Policy().OutputName(filename)
}

// ComputeDimensions вычисляет размеры по текущей политике.
func (e *Engine) ComputeDimensions(width, height int) (int, int, error) {
	return e.Policy().ComputeDimensions(width, height)
}

// Resize изменяет размер inputPath и записывает результат в outputPath.
// Формат определяется расширением outputPath. Ошибка логируется и возвращается.
func (e *Engine) Resize(inputPath, outputPath string) error {
	return e.resize(inputPath, outputPath, e.Policy())
}

func (e *Engine) resize(inputPath, outputPath string, policy Policy) error {
	err := e.doResize(inputPath, outputPath, policy)
	if err != nil {
		e.logger.Error("ошибка изменения размера", "input", inputPath, "error", err)
		return err
	}

	e.logger.Info("изображение сохранено", "output", outputPath)
	return nil
}

func (e *Engine) doResize(inputPath, outputPath string, policy Policy) error {
	encode, err := e.encoderFor(outputPath)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrResizeIO, err)
	}

	// Без автоповорота: ориентация сохраняется в EXIF
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: не удалось декодировать: %w", ErrResizeIO, err)
	}

	bounds := src.Bounds()
	width, height, err := policy.ComputeDimensions(bounds.Dx(), bounds.Dy())
	if err != nil {
		return err
	}

	dst := imaging.Resize(src, width, height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := encode(&buf, dst); err != nil {
		return fmt.Errorf("%w: не удалось закодировать: %w", ErrResizeIO, err)
	}

	encoded := buf.Bytes()
	if isJPEG(outputPath) {
		encoded = e.carryMetadata(data, encoded, inputPath, width, height)
	}

	return writeAtomic(outputPath, encoded)
}

type encodeFunc func(w io.Writer, img image.Image) error

// encoderFor выбирает кодировщик по расширению выходного файла.
// WebP кодируется без потерь, качество влияет только на JPEG.
func (e *Engine) encoderFor(outputPath string) (encodeFunc, error) {
	if strings.EqualFold(filepath.Ext(outputPath), ".webp") {
		return func(w io.Writer, img image.Image) error {
			return nativewebp.Encode(w, img, &nativewebp.Options{})
		}, nil
	}

	format, err := imaging.FormatFromFilename(outputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(outputPath))
	}
	return func(w io.Writer, img image.Image) error {
		return imaging.Encode(w, img, format, imaging.JPEGQuality(e.quality))
	}, nil
}

func isJPEG(path string) bool {
	format, err := imaging.FormatFromFilename(path)
	return err == nil && format == imaging.JPEG
}

// carryMetadata переносит EXIF и ICC из исходного JPEG.
// Размеры в EXIF заменяются на width x height.
// При ошибке чтения или вставки возвращает encoded без изменений.
func (e *Engine) carryMetadata(source, encoded []byte, inputPath string, width, height int) []byte {
	meta, err := readJPEGMetadata(bytes.NewReader(source))
	if err != nil {
		e.logger.Debug("метаданные не прочитаны", "input", inputPath, "error", err)
		return encoded
	}
	if meta.empty() {
		return encoded
	}

	if err := meta.setDimensions(width, height); err != nil {
		e.logger.Warn("размеры в EXIF не обновлены", "input", inputPath, "error", err)
	}

	out, err := meta.splice(encoded)
	if err != nil {
		e.logger.Debug("метаданные не перенесены", "input", inputPath, "error", err)
		return encoded
	}

	e.logger.Debug("метаданные перенесены",
		"input", inputPath,
		"segments", len(meta.segments),
		"orientation", meta.orientation(),
	)
	return out
}

// writeAtomic пишет данные во временный файл рядом с path и переименовывает его.
func writeAtomic(path string, data []byte) error {
	tmpPath := scanner.TempName(path)

	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrResizeIO, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: не удалось переименовать %s -> %s: %w", ErrResizeIO, tmpPath, path, err)
	}

	return nil
}

// ProcessOne обрабатывает один файл из исходной папки.
// Если выходной файл существует и не старше исходного, изображение не трогается.
func (e *Engine) ProcessOne(filename string) Result {
	folders := e.Folders()
	policy := e.Policy()

	inputPath := filepath.Join(folders.Source, filename)
	outputPath := filepath.Join(folders.Destination, policy.OutputName(filename))

	result := Result{
		Filename:   filename,
		OutputPath: outputPath,
	}

	fresh, err := isFresh(inputPath, outputPath)
	if err != nil {
		e.logger.Error("не удалось проверить файл", "input", inputPath, "error", err)
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}
	if fresh {
		result.Success = true
		result.Status = StatusAlreadyProcessed
		return result
	}

	if err := e.resize(inputPath, outputPath, policy); err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.Status = StatusProcessed
	return result
}

// isFresh возвращает true, если outputPath существует
// и время модификации inputPath не позже времени outputPath.
func isFresh(inputPath, outputPath string) (bool, error) {
	outInfo, err := os.Stat(outputPath)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrResizeIO, err)
	}

	inInfo, err := os.Stat(inputPath)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrResizeIO, err)
	}

	return !inInfo.ModTime().After(outInfo.ModTime()), nil
}
