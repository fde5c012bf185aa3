// Package logging настраивает slog для приложения.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Options содержит настройки логгера.
type Options struct {
	// Verbose - уровень Debug вместо Info.
	Verbose bool

	// Format - "text" или "json".
	Format string

	// Writer - куда писать (по умолчанию os.Stderr).
	Writer io.Writer
}

// New создаёт логгер по настройкам.
func New(opts Options) (*slog.Logger, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	switch opts.Format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("неизвестный формат логов: %s", opts.Format)
	}
}

// OpenFile открывает файл логов на дозапись.
// Пустой путь означает stderr, закрывать его не нужно.
func OpenFile(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stderr, func() error { return nil }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось открыть файл логов %s: %w", path, err)
	}
	return f, f.Close, nil
}

// Discard возвращает логгер, который ничего не пишет.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
