package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/artemshloyda/photoresizer/internal/tui"
)

// newWatchCmd создаёт команду watch.
func newWatchCmd() *cobra.Command {
	var (
		plain     bool
		skipFirst bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Обработать папку и следить за новыми файлами",
		Long: `Выполняет начальную обработку исходной папки, затем опрашивает её
и уменьшает каждый новый файл.

По умолчанию показывает интерактивный экран (q - остановить).
С --plain выводит события построчно до Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if !skipFirst {
				results, err := a.initialPass(ctx)
				if err != nil {
					return err
				}
				fmt.Println(tui.RenderSummary(tui.PassSummary(results)))
			}

			if resp := a.svc.StartWatching(); !resp.Success {
				return fmt.Errorf("не удалось запустить наблюдение: %s", resp.Message)
			}
			defer a.svc.StopWatching()

			if plain {
				fmt.Printf("👀 Наблюдение за %s (Ctrl+C для остановки)\n", cfg.SourceDir)
				a.printEvents(ctx, os.Stdout)
				return nil
			}

			program := tea.NewProgram(tui.NewModel(a.svc), tea.WithContext(ctx))
			if _, err := program.Run(); err != nil && ctx.Err() == nil {
				return fmt.Errorf("ошибка интерфейса: %w", err)
			}

			st := a.svc.GetStatus()
			fmt.Printf("🛑 Наблюдение остановлено, обработано файлов: %d\n", st.ProcessedCount)
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Построчный вывод вместо интерактивного экрана")
	cmd.Flags().BoolVar(&skipFirst, "skip-initial", false, "Не выполнять начальную обработку")

	return cmd
}
