// Package cli содержит CLI команды приложения.
package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/artemshloyda/photoresizer/internal/config"
	"github.com/artemshloyda/photoresizer/internal/resizer"
)

// newPresetsCmd создаёт команду для управления пресетами.
func newPresetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Управление именованными пресетами конфигурации",
		Long: `Управление именованными пресетами конфигурации.

Пресеты хранятся в ~/.config/photoresizer/presets/ и позволяют
сохранять и загружать настройки для разных папок.

Примеры:
  # Сохранить текущие настройки как пресет
  photoresizer --src ./photos --dst ./web --preset web --save-preset my-site

  # Загрузить пресет и запустить обработку
  photoresizer --load-preset my-site

  # Список пресетов
  photoresizer presets list

  # Удалить пресет
  photoresizer presets delete my-site`,
	}

	cmd.AddCommand(newPresetsListCmd())
	cmd.AddCommand(newPresetsDeleteCmd())
	cmd.AddCommand(newPresetsShowCmd())

	return cmd
}

// newPresetsListCmd создаёт команду для списка пресетов.
func newPresetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Показать встроенные и сохранённые пресеты",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("📐 Встроенные пресеты:")
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ИМЯ\tПОЛИТИКА\tКАЧЕСТВО")
			for _, name := range config.ValidPresets() {
				p := config.Presets[config.Preset(name)]
				policy := resizer.Policy{ScalingFactor: p.ScalingFactor, SingleSideResolution: p.SingleSideResolution}
				fmt.Fprintf(w, "%s\t%s\t%d\n", name, policyLabel(policy), p.Quality)
			}
			w.Flush()
			fmt.Println()

			store, err := config.DefaultPresetStore()
			if err != nil {
				return err
			}
			presets, err := store.List()
			if err != nil {
				return fmt.Errorf("ошибка получения списка пресетов: %w", err)
			}

			if len(presets) == 0 {
				fmt.Println("Сохранённые пресеты не найдены.")
				fmt.Println()
				fmt.Println("Сохраните пресет командой:")
				fmt.Println("  photoresizer --src ./photos --dst ./web --save-preset my-site")
				return nil
			}

			fmt.Printf("📦 Сохранённые пресеты (%d):\n\n", len(presets))

			w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ИМЯ\tПОЛИТИКА\tКАЧЕСТВО\tПУТЬ")
			fmt.Fprintln(w, "---\t--------\t--------\t----")

			for _, p := range presets {
				policy := "-"
				if pol, ok := p.Policy(); ok {
					policy = policyLabel(pol)
				}
				quality := "-"
				if p.Config != nil && p.Config.Resize != nil && p.Config.Resize.Quality > 0 {
					quality = fmt.Sprintf("%d", p.Config.Resize.Quality)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, policy, quality, p.Path)
			}
			w.Flush()

			return nil
		},
	}
}

// newPresetsDeleteCmd создаёт команду для удаления пресета.
func newPresetsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Удалить пресет",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			store, err := config.DefaultPresetStore()
			if err != nil {
				return err
			}
			if err := store.Delete(name); err != nil {
				return err
			}

			fmt.Printf("✅ Пресет '%s' удалён\n", name)
			return nil
		},
	}
}

// newPresetsShowCmd создаёт команду для отображения пресета.
func newPresetsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Показать содержимое пресета",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			store, err := config.DefaultPresetStore()
			if err != nil {
				return err
			}
			fc, path, err := store.Load(name)
			if err != nil {
				return err
			}

			fmt.Printf("📦 Пресет: %s\n", name)
			fmt.Printf("📁 Путь: %s\n\n", path)

			if fc.Folders != nil {
				fmt.Println("Folders:")
				if fc.Folders.Source != "" {
					fmt.Printf("  source: %s\n", fc.Folders.Source)
				}
				if fc.Folders.Destination != "" {
					fmt.Printf("  destination: %s\n", fc.Folders.Destination)
				}
				if len(fc.Folders.Extensions) > 0 {
					fmt.Printf("  extensions: %v\n", fc.Folders.Extensions)
				}
			}

			if fc.Resize != nil {
				fmt.Println("Resize:")
				if fc.Resize.ScalingFactor != 0 {
					fmt.Printf("  scaling_factor: %s\n", resizer.FormatFactor(fc.Resize.ScalingFactor))
				}
				if fc.Resize.SingleSideResolution != 0 {
					fmt.Printf("  single_side_resolution: %d\n", fc.Resize.SingleSideResolution)
				}
				if fc.Resize.Quality > 0 {
					fmt.Printf("  quality: %d\n", fc.Resize.Quality)
				}
			}

			if fc.Watch != nil {
				fmt.Println("Watch:")
				fmt.Printf("  enabled: %v\n", fc.Watch.Enabled)
				if fc.Watch.PollInterval != "" {
					fmt.Printf("  poll_interval: %s\n", fc.Watch.PollInterval)
				}
				if fc.Watch.ErrorBackoff != "" {
					fmt.Printf("  error_backoff: %s\n", fc.Watch.ErrorBackoff)
				}
			}

			if fc.Paths != nil && fc.Paths.DB != "" {
				fmt.Println("Paths:")
				fmt.Printf("  db: %s\n", fc.Paths.DB)
			}

			return nil
		},
	}
}

/*
Возможные расширения:
- Добавить команду 'presets export' для экспорта в файл
- Добавить команду 'presets import' для импорта из файла
*/
