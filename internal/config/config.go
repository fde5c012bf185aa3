// Package config содержит конфигурацию приложения.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/artemshloyda/photoresizer/internal/resizer"
	"github.com/artemshloyda/photoresizer/internal/scanner"
	"github.com/artemshloyda/photoresizer/internal/watcher"
)

// LogFormat определяет формат логов.
type LogFormat string

const (
	// LogText - человекочитаемый формат key=value.
	LogText LogFormat = "text"
	// LogJSON - JSON, одна запись на строку.
	LogJSON LogFormat = "json"
)

// Config содержит все настройки приложения.
type Config struct {
	// SourceDir - директория с исходными изображениями.
	SourceDir string

	// DestinationDir - директория для результатов.
	DestinationDir string

	// ScalingFactor - коэффициент масштабирования.
	ScalingFactor float64

	// SingleSideResolution - размер длинной стороны (0 = использовать ScalingFactor).
	SingleSideResolution int

	// InputExtensions - список расширений входных файлов (без точки, lowercase).
	InputExtensions []string

	// Quality - качество JPEG (1-100).
	Quality int

	// PollInterval - пауза между проходами наблюдателя.
	PollInterval time.Duration

	// ErrorBackoff - пауза после ошибки в цикле.
	ErrorBackoff time.Duration

	// StopTimeout - сколько ждать остановки цикла.
	StopTimeout time.Duration

	// EventBuffer - ёмкость канала событий.
	EventBuffer int

	// DBPath - путь к SQLite журналу результатов (пусто = журнал выключен).
	DBPath string

	// Watch - после начальной обработки продолжать слежение.
	Watch bool

	// Verbose - подробный вывод.
	Verbose bool

	// NoProgress - отключить прогресс-бар.
	NoProgress bool

	// LogFormat - формат логов (text, json).
	LogFormat LogFormat

	// LogFile - файл для логов (пусто = stderr).
	LogFile string

	// Preset - встроенный пресет размера.
	Preset string
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() *Config {
	return &Config{
		ScalingFactor:   1.0,
		InputExtensions: append([]string(nil), scanner.DefaultExtensions...),
		Quality:         resizer.DefaultQuality,
		PollInterval:    watcher.DefaultPollInterval,
		ErrorBackoff:    watcher.DefaultErrorBackoff,
		StopTimeout:     watcher.DefaultStopTimeout,
		EventBuffer:     watcher.DefaultEventBuffer,
		LogFormat:       LogText,
	}
}

// Validate проверяет корректность конфигурации.
// Папки здесь не проверяются: их можно задать позже через сервис.
func (c *Config) Validate() error {
	if len(c.InputExtensions) == 0 {
		return fmt.Errorf("не указаны расширения входных файлов (--in-ext)")
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("качество должно быть от 1 до 100, получено: %d", c.Quality)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("интервал опроса должен быть > 0, получено: %s", c.PollInterval)
	}
	if c.ErrorBackoff <= 0 {
		return fmt.Errorf("пауза после ошибки должна быть > 0, получено: %s", c.ErrorBackoff)
	}
	if c.StopTimeout <= 0 {
		return fmt.Errorf("таймаут остановки должен быть > 0, получено: %s", c.StopTimeout)
	}
	if c.EventBuffer < 1 {
		return fmt.Errorf("размер буфера событий должен быть >= 1, получено: %d", c.EventBuffer)
	}
	if c.LogFormat != LogText && c.LogFormat != LogJSON {
		return fmt.Errorf("неизвестный формат логов: %s (доступны: text, json)", c.LogFormat)
	}
	return nil
}

// RequireFolders проверяет, что обе папки указаны.
func (c *Config) RequireFolders() error {
	if c.SourceDir == "" {
		return fmt.Errorf("исходная директория не указана (--src)")
	}
	if c.DestinationDir == "" {
		return fmt.Errorf("выходная директория не указана (--dst)")
	}
	return nil
}

// Policy возвращает политику изменения размера из конфигурации.
func (c *Config) Policy() resizer.Policy {
	return resizer.Policy{
		ScalingFactor:        c.ScalingFactor,
		SingleSideResolution: c.SingleSideResolution,
	}
}

// HasInputExtension проверяет, поддерживается ли расширение файла.
func (c *Config) HasInputExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, e := range c.InputExtensions {
		if strings.ToLower(strings.TrimPrefix(e, ".")) == ext {
			return true
		}
	}
	return false
}
