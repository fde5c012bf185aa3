package resizer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/artemshloyda/photoresizer/internal/scanner"
)

// Mode определяет режим изменения размера.
type Mode string

const (
	// ModeScale - умножение обеих сторон на коэффициент.
	ModeScale Mode = "scale"
	// ModeSingleSide - длинная сторона приводится к заданному разрешению.
	ModeSingleSide Mode = "single_side"
)

// Policy описывает правило изменения размера.
// Если SingleSideResolution != 0, он имеет приоритет над ScalingFactor.
type Policy struct {
	// ScalingFactor - коэффициент масштабирования (по умолчанию 1.0).
	ScalingFactor float64 `json:"scaling_factor"`

	// SingleSideResolution - размер длинной стороны в пикселях (0 = не задан).
	SingleSideResolution int `json:"single_side_resolution"`
}

// DefaultPolicy возвращает политику по умолчанию: масштаб 1.0.
func DefaultPolicy() Policy {
	return Policy{ScalingFactor: 1.0}
}

// Mode возвращает активный режим политики.
func (p Policy) Mode() Mode {
	if p.SingleSideResolution != 0 {
		return ModeSingleSide
	}
	return ModeScale
}

// Suffix возвращает суффикс имени выходного файла: "_800px" или "_x0.5".
func (p Policy) Suffix() string {
	if p.Mode() == ModeSingleSide {
		return fmt.Sprintf("_%dpx", p.SingleSideResolution)
	}
	return "_x" + FormatFactor(p.ScalingFactor)
}

// OutputName строит имя выходного файла: основа + суффикс + расширение.
// Результат зависит только от имени и политики.
func (p Policy) OutputName(filename string) string {
	stem, ext := scanner.SplitExt(filename)
	return stem + p.Suffix() + ext
}

// ComputeDimensions вычисляет новые размеры изображения.
// Дробная часть отбрасывается, а не округляется.
func (p Policy) ComputeDimensions(width, height int) (int, int, error) {
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("%w: исходный размер %dx%d", ErrInvalidDimensions, width, height)
	}

	var newWidth, newHeight int
	if p.Mode() == ModeSingleSide {
		target := float64(p.SingleSideResolution)
		if width > height {
			newWidth = p.SingleSideResolution
			newHeight = truncate(float64(height) * (target / float64(width)))
		} else {
			newHeight = p.SingleSideResolution
			newWidth = truncate(float64(width) * (target / float64(height)))
		}
	} else {
		newWidth = truncate(float64(width) * p.ScalingFactor)
		newHeight = truncate(float64(height) * p.ScalingFactor)
	}

	if newWidth <= 0 || newHeight <= 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, newWidth, newHeight)
	}

	return newWidth, newHeight, nil
}

// truncate отбрасывает дробную часть; NaN и переполнение дают 0.
func truncate(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v >= math.MaxInt32 || v <= math.MinInt32 {
		return 0
	}
	return int(v)
}

// FormatFactor печатает коэффициент в кратчайшей десятичной форме,
// всегда с дробной частью: 2 -> "2.0", 0.5 -> "0.5".
func FormatFactor(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
