// Package config содержит конфигурацию приложения.
package config

// Preset определяет встроенный профиль размера.
type Preset string

const (
	// PresetThumbnail - превью: длинная сторона 320px.
	PresetThumbnail Preset = "thumbnail"
	// PresetHD - длинная сторона 1280px.
	PresetHD Preset = "hd"
	// PresetWeb - длинная сторона 1920px, качество 85.
	PresetWeb Preset = "web"
	// PresetHalf - уменьшение вдвое.
	PresetHalf Preset = "half"
	// PresetOriginal - исходный размер, максимальное качество.
	PresetOriginal Preset = "original"
)

// PresetConfig содержит настройки для пресета.
type PresetConfig struct {
	// ScalingFactor - коэффициент масштабирования.
	ScalingFactor float64
	// SingleSideResolution - длинная сторона (0 = использовать ScalingFactor).
	SingleSideResolution int
	// Quality - качество JPEG (1-100).
	Quality int
}

// Presets содержит все доступные пресеты.
var Presets = map[Preset]PresetConfig{
	PresetThumbnail: {
		ScalingFactor:        1.0,
		SingleSideResolution: 320,
		Quality:              75,
	},
	PresetHD: {
		ScalingFactor:        1.0,
		SingleSideResolution: 1280,
		Quality:              85,
	},
	PresetWeb: {
		ScalingFactor:        1.0,
		SingleSideResolution: 1920,
		Quality:              85,
	},
	PresetHalf: {
		ScalingFactor:        0.5,
		SingleSideResolution: 0,
		Quality:              90,
	},
	PresetOriginal: {
		ScalingFactor:        1.0,
		SingleSideResolution: 0,
		Quality:              100,
	},
}

// ApplyPreset применяет пресет к конфигурации.
// Возвращает true, если пресет был применён.
func (c *Config) ApplyPreset(preset string) bool {
	p, ok := Presets[Preset(preset)]
	if !ok {
		return false
	}

	c.ScalingFactor = p.ScalingFactor
	c.SingleSideResolution = p.SingleSideResolution
	c.Quality = p.Quality
	c.Preset = preset

	return true
}

// ValidPresets возвращает список доступных пресетов.
func ValidPresets() []string {
	return []string{
		string(PresetThumbnail),
		string(PresetHD),
		string(PresetWeb),
		string(PresetHalf),
		string(PresetOriginal),
	}
}
