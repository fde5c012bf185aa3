// Package cli содержит CLI интерфейс приложения.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/artemshloyda/photoresizer/internal/config"
	"github.com/artemshloyda/photoresizer/internal/resizer"
	"github.com/artemshloyda/photoresizer/internal/tui"
)

var (
	// Version будет установлена при сборке.
	Version = "dev"

	// BuildTime будет установлена при сборке.
	BuildTime = "unknown"
)

// cfg содержит глобальную конфигурацию. Флаги пишут сюда напрямую.
var cfg = config.DefaultConfig()

var (
	configPath string
	loadPreset string
	savePreset string
)

// NewRootCmd создаёт корневую команду CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "photoresizer",
		Short: "Уменьшение изображений из папки с последующим наблюдением",
		Long: `PhotoResizer - CLI утилита, которая уменьшает изображения из исходной папки
и складывает результаты в выходную папку.

Имя результата содержит политику: photo_800px.jpg или photo_x0.5.jpg.
Повторный запуск не пересчитывает файлы, результат которых новее исходника.

Примеры:
  # Уменьшить все изображения вдвое
  photoresizer --src ./photos --dst ./resized --factor 0.5

  # Длинная сторона 800px, затем следить за папкой
  photoresizer --src ./photos --dst ./resized --resolution 800 --watch

  # Интерактивное наблюдение в терминале
  photoresizer watch --src ./photos --dst ./resized --preset web

  # MCP сервер для AI ассистентов
  photoresizer serve --src ./photos --dst ./resized`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
		RunE:              runResize,
	}

	flags := rootCmd.PersistentFlags()

	// Папки
	flags.StringVar(&cfg.SourceDir, "src", "", "Директория с исходными изображениями")
	flags.StringVar(&cfg.DestinationDir, "dst", "", "Директория для результатов (создаётся при необходимости)")
	flags.StringSliceVar(&cfg.InputExtensions, "in-ext", cfg.InputExtensions,
		"Расширения входных файлов через запятую (например: jpg,png)")

	// Политика
	flags.Float64Var(&cfg.ScalingFactor, "factor", cfg.ScalingFactor, "Коэффициент масштабирования")
	flags.IntVar(&cfg.SingleSideResolution, "resolution", cfg.SingleSideResolution,
		"Длинная сторона в пикселях (0 = использовать --factor)")
	flags.IntVar(&cfg.Quality, "quality", cfg.Quality, "Качество JPEG (1-100)")
	flags.StringVar(&cfg.Preset, "preset", "", "Встроенный пресет: thumbnail, hd, web, half, original")

	// Наблюдение
	flags.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Пауза между проходами")
	flags.DurationVar(&cfg.ErrorBackoff, "error-backoff", cfg.ErrorBackoff, "Пауза после ошибки в цикле")
	flags.DurationVar(&cfg.StopTimeout, "stop-timeout", cfg.StopTimeout, "Сколько ждать остановки цикла")
	flags.IntVar(&cfg.EventBuffer, "event-buffer", cfg.EventBuffer, "Ёмкость канала событий")

	// Пути
	flags.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Путь к SQLite журналу результатов")
	flags.StringVar(&configPath, "config", "", "Путь к файлу конфигурации YAML")
	flags.StringVar(&loadPreset, "load-preset", "", "Загрузить сохранённый пресет")
	flags.StringVar(&savePreset, "save-preset", "", "Сохранить итоговые настройки как пресет")

	// Вывод
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Подробный вывод")
	flags.BoolVar(&cfg.NoProgress, "no-progress", cfg.NoProgress, "Отключить прогресс-бар")
	flags.StringVar((*string)(&cfg.LogFormat), "log-format", string(cfg.LogFormat), "Формат логов: text или json")
	flags.StringVar(&cfg.LogFile, "log-file", "", "Файл для логов (по умолчанию stderr)")

	rootCmd.Flags().BoolVarP(&cfg.Watch, "watch", "w", cfg.Watch, "После начальной обработки продолжать наблюдение")

	// Подкоманды
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newPresetsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// flagOverlays переносит значение флага из cfg в итоговую конфигурацию.
var flagOverlays = map[string]func(dst, src *config.Config){
	"src":           func(d, s *config.Config) { d.SourceDir = s.SourceDir },
	"dst":           func(d, s *config.Config) { d.DestinationDir = s.DestinationDir },
	"in-ext":        func(d, s *config.Config) { d.InputExtensions = s.InputExtensions },
	"factor":        func(d, s *config.Config) { d.ScalingFactor = s.ScalingFactor },
	"resolution":    func(d, s *config.Config) { d.SingleSideResolution = s.SingleSideResolution },
	"quality":       func(d, s *config.Config) { d.Quality = s.Quality },
	"poll-interval": func(d, s *config.Config) { d.PollInterval = s.PollInterval },
	"error-backoff": func(d, s *config.Config) { d.ErrorBackoff = s.ErrorBackoff },
	"stop-timeout":  func(d, s *config.Config) { d.StopTimeout = s.StopTimeout },
	"event-buffer":  func(d, s *config.Config) { d.EventBuffer = s.EventBuffer },
	"db":            func(d, s *config.Config) { d.DBPath = s.DBPath },
	"verbose":       func(d, s *config.Config) { d.Verbose = s.Verbose },
	"no-progress":   func(d, s *config.Config) { d.NoProgress = s.NoProgress },
	"log-format":    func(d, s *config.Config) { d.LogFormat = s.LogFormat },
	"log-file":      func(d, s *config.Config) { d.LogFile = s.LogFile },
	"watch":         func(d, s *config.Config) { d.Watch = s.Watch },
}

// loadConfig собирает конфигурацию: умолчания < файл < пресеты < флаги.
func loadConfig(cmd *cobra.Command, args []string) error {
	merged := config.DefaultConfig()

	fc, path, err := config.FindAndLoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := fc.ApplyToConfig(merged); err != nil {
		return fmt.Errorf("файл конфигурации %s: %w", path, err)
	}

	if loadPreset != "" {
		store, err := config.DefaultPresetStore()
		if err != nil {
			return err
		}
		if _, err := store.Apply(loadPreset, merged); err != nil {
			return err
		}
	}

	if cfg.Preset != "" && !merged.ApplyPreset(cfg.Preset) {
		return fmt.Errorf("неизвестный пресет: %s (доступны: %v)", cfg.Preset, config.ValidPresets())
	}

	cmd.Flags().Visit(func(f *pflag.Flag) {
		if overlay, ok := flagOverlays[f.Name]; ok {
			overlay(merged, cfg)
		}
	})

	if err := merged.Validate(); err != nil {
		return fmt.Errorf("ошибка конфигурации: %w", err)
	}

	*cfg = *merged
	return nil
}

// runResize выполняет начальную обработку и, если задан --watch, наблюдение.
func runResize(cmd *cobra.Command, args []string) error {
	startTime := time.Now()

	if err := cfg.RequireFolders(); err != nil {
		return fmt.Errorf("ошибка конфигурации: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := maybeSavePreset(); err != nil {
		return err
	}

	policy := a.engine.Policy()
	fmt.Printf("🚀 Запуск обработки:\n")
	fmt.Printf("   Вход: %s\n", cfg.SourceDir)
	fmt.Printf("   Выход: %s\n", cfg.DestinationDir)
	fmt.Printf("   Политика: %s (качество JPEG: %d)\n", policyLabel(policy), cfg.Quality)
	fmt.Println()

	results, err := a.initialPass(ctx)
	if err != nil {
		return err
	}

	fmt.Println(tui.RenderSummary(tui.PassSummary(results)))
	fmt.Printf("   Время: %s\n", time.Since(startTime).Round(time.Millisecond))

	if cfg.Watch {
		if resp := a.svc.StartWatching(); !resp.Success {
			return fmt.Errorf("не удалось запустить наблюдение: %s", resp.Message)
		}
		fmt.Printf("\n👀 Наблюдение за %s (Ctrl+C для остановки)\n", cfg.SourceDir)
		a.printEvents(ctx, os.Stdout)
		a.svc.StopWatching()
		return nil
	}

	if failed := countFailed(results); failed > 0 {
		return fmt.Errorf("завершено с %d ошибками", failed)
	}
	return nil
}

// signalContext возвращает контекст, отменяемый по SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n⚠️  Получен сигнал завершения, останавливаем...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

func maybeSavePreset() error {
	if savePreset == "" {
		return nil
	}
	store, err := config.DefaultPresetStore()
	if err != nil {
		return err
	}
	path, err := store.Save(savePreset, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("💾 Пресет '%s' сохранён: %s\n", savePreset, path)
	return nil
}

func policyLabel(p resizer.Policy) string {
	if p.Mode() == resizer.ModeSingleSide {
		return fmt.Sprintf("длинная сторона %dpx", p.SingleSideResolution)
	}
	return "масштаб x" + resizer.FormatFactor(p.ScalingFactor)
}

func countFailed(results []resizer.Result) int {
	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	return failed
}

// newVersionCmd создаёт команду version.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Показать версию",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("photoresizer %s (built %s)\n", Version, BuildTime)
		},
	}
}

// Execute запускает CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		// Не выводим ошибку, cobra уже вывела
		os.Exit(1)
	}
}

/*
Возможные расширения:
- Добавить команду retry для повторной обработки failed из журнала
- Добавить команду export для экспорта журнала в JSON
*/
