package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artemshloyda/photoresizer/internal/config"
)

// newConfigCmd создаёт команду config.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Работа с файлом конфигурации",
	}

	var output string
	example := &cobra.Command{
		Use:   "example",
		Short: "Вывести пример файла конфигурации",
		RunE: func(cmd *cobra.Command, args []string) error {
			data := config.GenerateExampleConfig()
			if output == "" {
				fmt.Print(data)
				return nil
			}
			if _, err := os.Stat(output); err == nil {
				return fmt.Errorf("файл %s уже существует", output)
			}
			if err := os.WriteFile(output, []byte(data), 0644); err != nil {
				return fmt.Errorf("не удалось записать %s: %w", output, err)
			}
			fmt.Printf("✅ Пример конфигурации записан в %s\n", output)
			return nil
		},
	}
	example.Flags().StringVarP(&output, "output", "o", "", "Записать в файл вместо stdout")

	cmd.AddCommand(example)
	return cmd
}
