// Package config содержит конфигурацию приложения.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig представляет структуру конфигурационного файла YAML.
// Все поля опциональны - если не указаны, используются значения по умолчанию.
type FileConfig struct {
	// Folders - исходная и выходная папки.
	Folders *FoldersConfig `yaml:"folders,omitempty"`

	// Resize - политика изменения размера.
	Resize *ResizeConfig `yaml:"resize,omitempty"`

	// Watch - настройки цикла наблюдения.
	Watch *WatchConfig `yaml:"watch,omitempty"`

	// Output - настройки вывода и логов.
	Output *OutputConfig `yaml:"output,omitempty"`

	// Paths - настройки путей.
	Paths *PathsConfig `yaml:"paths,omitempty"`
}

// FoldersConfig содержит пару папок.
type FoldersConfig struct {
	// Source - директория с исходными изображениями.
	Source string `yaml:"source,omitempty"`

	// Destination - директория для результатов.
	Destination string `yaml:"destination,omitempty"`

	// Extensions - список расширений входных файлов.
	Extensions []string `yaml:"extensions,omitempty"`
}

// ResizeConfig содержит политику изменения размера.
type ResizeConfig struct {
	// ScalingFactor - коэффициент масштабирования.
	ScalingFactor float64 `yaml:"scaling_factor,omitempty"`

	// SingleSideResolution - длинная сторона в пикселях.
	SingleSideResolution int `yaml:"single_side_resolution,omitempty"`

	// Quality - качество JPEG (1-100).
	Quality int `yaml:"quality,omitempty"`

	// Preset - встроенный пресет (thumbnail, hd, web, half, original).
	Preset string `yaml:"preset,omitempty"`
}

// WatchConfig содержит настройки наблюдения.
type WatchConfig struct {
	// Enabled - продолжать наблюдение после начальной обработки.
	Enabled bool `yaml:"enabled,omitempty"`

	// PollInterval - пауза между проходами (например "1s").
	PollInterval string `yaml:"poll_interval,omitempty"`

	// ErrorBackoff - пауза после ошибки (например "5s").
	ErrorBackoff string `yaml:"error_backoff,omitempty"`

	// StopTimeout - ожидание остановки цикла (например "2s").
	StopTimeout string `yaml:"stop_timeout,omitempty"`

	// EventBuffer - ёмкость канала событий.
	EventBuffer int `yaml:"event_buffer,omitempty"`
}

// OutputConfig содержит настройки вывода.
type OutputConfig struct {
	// Verbose - подробный вывод.
	Verbose bool `yaml:"verbose,omitempty"`

	// NoProgress - отключить прогресс-бар.
	NoProgress bool `yaml:"no_progress,omitempty"`

	// LogFormat - формат логов (text, json).
	LogFormat string `yaml:"log_format,omitempty"`

	// LogFile - файл для логов.
	LogFile string `yaml:"log_file,omitempty"`
}

// PathsConfig содержит настройки путей.
type PathsConfig struct {
	// DB - путь к SQLite журналу результатов.
	DB string `yaml:"db,omitempty"`
}

// DefaultConfigPaths возвращает список путей для поиска конфигурационного файла.
// Поиск выполняется в следующем порядке:
// 1. ./photoresizer.yaml (текущая директория)
// 2. ./photoresizer.yml
// 3. ~/.config/photoresizer/config.yaml
// 4. ~/.config/photoresizer/config.yml
func DefaultConfigPaths() []string {
	paths := []string{
		"photoresizer.yaml",
		"photoresizer.yml",
	}

	// Добавляем путь в домашней директории
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "photoresizer", "config.yaml"),
			filepath.Join(home, ".config", "photoresizer", "config.yml"),
		)
	}

	return paths
}

// LoadFromFile загружает конфигурацию из указанного файла.
// Возвращает nil, nil если файл не существует.
func LoadFromFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", path, err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("ошибка парсинга YAML в %s: %w", path, err)
	}

	return &fc, nil
}

// FindAndLoadConfig ищет и загружает конфигурационный файл из стандартных путей.
// Если configPath указан явно, использует только его.
// Возвращает nil, nil если файл не найден.
func FindAndLoadConfig(configPath string) (*FileConfig, string, error) {
	if configPath != "" {
		fc, err := LoadFromFile(configPath)
		if err != nil {
			return nil, "", err
		}
		if fc == nil {
			return nil, "", fmt.Errorf("файл конфигурации не найден: %s", configPath)
		}
		return fc, configPath, nil
	}

	for _, path := range DefaultConfigPaths() {
		fc, err := LoadFromFile(path)
		if err != nil {
			return nil, "", err
		}
		if fc != nil {
			return fc, path, nil
		}
	}

	return nil, "", nil
}

// ApplyToConfig применяет настройки из файла к основной конфигурации.
// CLI флаги имеют приоритет над файлом конфигурации, поэтому
// эта функция должна вызываться до применения CLI флагов.
func (fc *FileConfig) ApplyToConfig(cfg *Config) error {
	if fc == nil {
		return nil
	}

	if fc.Folders != nil {
		if fc.Folders.Source != "" {
			cfg.SourceDir = fc.Folders.Source
		}
		if fc.Folders.Destination != "" {
			cfg.DestinationDir = fc.Folders.Destination
		}
		if len(fc.Folders.Extensions) > 0 {
			cfg.InputExtensions = fc.Folders.Extensions
		}
	}

	// Пресет применяется первым, явные значения его переопределяют
	if fc.Resize != nil {
		if fc.Resize.Preset != "" && !cfg.ApplyPreset(fc.Resize.Preset) {
			return fmt.Errorf("неизвестный пресет в файле конфигурации: %s", fc.Resize.Preset)
		}
		if fc.Resize.ScalingFactor != 0 {
			cfg.ScalingFactor = fc.Resize.ScalingFactor
		}
		if fc.Resize.SingleSideResolution != 0 {
			cfg.SingleSideResolution = fc.Resize.SingleSideResolution
		}
		if fc.Resize.Quality > 0 {
			cfg.Quality = fc.Resize.Quality
		}
	}

	if fc.Watch != nil {
		if fc.Watch.Enabled {
			cfg.Watch = true
		}
		if err := parseDuration(fc.Watch.PollInterval, &cfg.PollInterval); err != nil {
			return err
		}
		if err := parseDuration(fc.Watch.ErrorBackoff, &cfg.ErrorBackoff); err != nil {
			return err
		}
		if err := parseDuration(fc.Watch.StopTimeout, &cfg.StopTimeout); err != nil {
			return err
		}
		if fc.Watch.EventBuffer > 0 {
			cfg.EventBuffer = fc.Watch.EventBuffer
		}
	}

	if fc.Output != nil {
		if fc.Output.Verbose {
			cfg.Verbose = true
		}
		if fc.Output.NoProgress {
			cfg.NoProgress = true
		}
		if fc.Output.LogFormat != "" {
			cfg.LogFormat = LogFormat(fc.Output.LogFormat)
		}
		if fc.Output.LogFile != "" {
			cfg.LogFile = fc.Output.LogFile
		}
	}

	if fc.Paths != nil && fc.Paths.DB != "" {
		cfg.DBPath = fc.Paths.DB
	}

	return nil
}

func parseDuration(value string, dst *time.Duration) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("некорректная длительность %q: %w", value, err)
	}
	*dst = d
	return nil
}

// FromConfig строит FileConfig из основной конфигурации.
// Значения, совпадающие с умолчаниями, в файл не попадают.
func FromConfig(cfg *Config) *FileConfig {
	def := DefaultConfig()
	fc := &FileConfig{
		Folders: &FoldersConfig{
			Source:      cfg.SourceDir,
			Destination: cfg.DestinationDir,
		},
		Resize: &ResizeConfig{
			ScalingFactor:        cfg.ScalingFactor,
			SingleSideResolution: cfg.SingleSideResolution,
			Quality:              cfg.Quality,
		},
	}

	if !equalStrings(cfg.InputExtensions, def.InputExtensions) {
		fc.Folders.Extensions = cfg.InputExtensions
	}

	watch := &WatchConfig{Enabled: cfg.Watch}
	if cfg.PollInterval != def.PollInterval {
		watch.PollInterval = cfg.PollInterval.String()
	}
	if cfg.ErrorBackoff != def.ErrorBackoff {
		watch.ErrorBackoff = cfg.ErrorBackoff.String()
	}
	if cfg.StopTimeout != def.StopTimeout {
		watch.StopTimeout = cfg.StopTimeout.String()
	}
	if cfg.EventBuffer != def.EventBuffer {
		watch.EventBuffer = cfg.EventBuffer
	}
	if *watch != (WatchConfig{}) {
		fc.Watch = watch
	}

	output := &OutputConfig{
		Verbose:    cfg.Verbose,
		NoProgress: cfg.NoProgress,
		LogFile:    cfg.LogFile,
	}
	if cfg.LogFormat != def.LogFormat {
		output.LogFormat = string(cfg.LogFormat)
	}
	if *output != (OutputConfig{}) {
		fc.Output = output
	}

	if cfg.DBPath != "" {
		fc.Paths = &PathsConfig{DB: cfg.DBPath}
	}

	return fc
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SaveToFile сохраняет конфигурацию в YAML файл.
func (fc *FileConfig) SaveToFile(path string) error {
	data, err := yaml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("ошибка сериализации YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("не удалось записать файл %s: %w", path, err)
	}

	return nil
}

// GenerateExampleConfig генерирует пример конфигурационного файла.
func GenerateExampleConfig() string {
	return `# PhotoResizer Configuration File
# Все параметры опциональны - если не указаны, используются значения по умолчанию.
# CLI флаги имеют приоритет над этим файлом.

folders:
  # Директория с исходными изображениями
  source: "./photos"
  # Директория для результатов (создаётся при необходимости)
  destination: "./resized"
  # Расширения входных файлов (без точки)
  extensions:
    - jpg
    - jpeg
    - png
    - gif
    - bmp
    - tiff
    - webp

resize:
  # Встроенный пресет: thumbnail, hd, web, half, original
  # preset: web
  # Коэффициент масштабирования (используется, если single_side_resolution = 0)
  scaling_factor: 1.0
  # Длинная сторона в пикселях (0 = использовать scaling_factor)
  single_side_resolution: 0
  # Качество JPEG (1-100)
  quality: 90

watch:
  # Продолжать наблюдение после начальной обработки
  enabled: false
  # Пауза между проходами
  poll_interval: 1s
  # Пауза после ошибки в цикле
  error_backoff: 5s
  # Сколько ждать остановки цикла
  stop_timeout: 2s
  # Ёмкость канала событий
  event_buffer: 64

output:
  # Подробный вывод
  verbose: false
  # Отключить прогресс-бар
  no_progress: false
  # Формат логов: text или json
  log_format: text
  # Файл для логов (пусто = stderr)
  log_file: ""

paths:
  # Путь к SQLite журналу результатов (пусто = журнал выключен)
  db: ""
`
}

/*
Возможные расширения:
- Добавить поддержку TOML формата
- Добавить валидацию значений в файле конфигурации
- Добавить поддержку переменных окружения в конфиге
*/
