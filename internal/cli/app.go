package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/artemshloyda/photoresizer/internal/config"
	"github.com/artemshloyda/photoresizer/internal/logging"
	"github.com/artemshloyda/photoresizer/internal/progress"
	"github.com/artemshloyda/photoresizer/internal/resizer"
	"github.com/artemshloyda/photoresizer/internal/scanner"
	"github.com/artemshloyda/photoresizer/internal/service"
	"github.com/artemshloyda/photoresizer/internal/storage"
	"github.com/artemshloyda/photoresizer/internal/watcher"
)

// app собирает компоненты из конфигурации.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	closeLog   func() error
	scanner    *scanner.Scanner
	engine     *resizer.Engine
	controller *watcher.Controller
	journal    *storage.Storage
	svc        *service.Service
}

// newApp создаёт компоненты. Если папки заданы, они сразу настраиваются.
func newApp(cfg *config.Config) (*app, error) {
	w, closeLog, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Verbose: cfg.Verbose,
		Format:  string(cfg.LogFormat),
		Writer:  w,
	})
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		closeLog: closeLog,
		scanner:  scanner.New(cfg.InputExtensions),
	}

	a.engine = resizer.New(logger,
		resizer.WithQuality(cfg.Quality),
		resizer.WithPolicy(cfg.Policy()),
	)

	a.controller = watcher.New(a.engine, a.scanner, logger,
		watcher.WithPollInterval(cfg.PollInterval),
		watcher.WithErrorBackoff(cfg.ErrorBackoff),
		watcher.WithStopTimeout(cfg.StopTimeout),
		watcher.WithEventBuffer(cfg.EventBuffer),
	)

	var opts []service.Option
	if cfg.DBPath != "" {
		a.journal, err = storage.New(cfg.DBPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("не удалось инициализировать журнал: %w", err)
		}
		opts = append(opts, service.WithJournal(a.journal))
	}

	a.svc = service.New(a.engine, a.controller, logger, opts...)

	if cfg.SourceDir != "" || cfg.DestinationDir != "" {
		if resp := a.svc.ConfigureFolders(cfg.SourceDir, cfg.DestinationDir); !resp.Success {
			a.Close()
			return nil, fmt.Errorf("ошибка настройки папок: %s", resp.Message)
		}
	}

	return a, nil
}

// Close останавливает наблюдение и освобождает ресурсы.
func (a *app) Close() {
	if a.controller != nil && a.controller.IsRunning() {
		_ = a.controller.Stop()
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.logger.Warn("не удалось закрыть журнал", "error", err)
		}
	}
	_ = a.closeLog()
}

// initialPass выполняет начальную обработку с прогресс-баром.
func (a *app) initialPass(ctx context.Context) ([]resizer.Result, error) {
	total := 0
	if files, err := a.scanner.List(a.engine.Folders().Source); err == nil {
		total = len(files)
	}

	bar := progress.New(progress.Options{
		Total:    total,
		Disabled: a.cfg.NoProgress,
		Verbose:  a.cfg.Verbose,
	})
	resp := a.svc.RunInitialPass(ctx, bar.Observe)
	bar.Finish()

	if !resp.Success {
		return resp.Results, fmt.Errorf("начальная обработка: %s", resp.Message)
	}
	return resp.Results, nil
}

// printEvents печатает события наблюдателя до отмены ctx
// и в конце выводит счётчики за время наблюдения.
func (a *app) printEvents(ctx context.Context, out io.Writer) {
	bar := progress.New(progress.Options{Verbose: true, Writer: out})
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(out, "🛑 За время наблюдения %s\n", bar.Summary())
			if dropped := a.svc.Dropped(); dropped > 0 {
				fmt.Fprintf(out, "⚠️  Пропущено событий: %d\n", dropped)
			}
			return
		case r := <-a.svc.Events():
			bar.Observe(r)
		}
	}
}
