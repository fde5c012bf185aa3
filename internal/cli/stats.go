package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/artemshloyda/photoresizer/internal/storage"
	"github.com/artemshloyda/photoresizer/internal/tui"
)

// newStatsCmd создаёт команду stats.
func newStatsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Показать статистику из журнала результатов",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DBPath == "" {
				return fmt.Errorf("укажите путь к журналу через --db")
			}

			store, err := storage.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("не удалось открыть БД: %w", err)
			}
			defer func() { _ = store.Close() }()

			st, err := store.GetStats()
			if err != nil {
				return err
			}

			fmt.Println(tui.RenderSummary([]tui.SummaryRow{
				{Label: "Всего записей", Value: fmt.Sprintf("%d", st.Total)},
				{Label: "Уменьшено", Value: fmt.Sprintf("%d", st.Processed)},
				{Label: "Уже актуальны", Value: fmt.Sprintf("%d", st.Skipped)},
				{Label: "С ошибками", Value: fmt.Sprintf("%d", st.Failed)},
			}))

			if limit <= 0 {
				return nil
			}

			entries, err := store.Recent(limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return nil
			}

			fmt.Printf("\nПоследние %d записей:\n", len(entries))
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ВРЕМЯ\tФАЙЛ\tСТАТУС\tИСТОЧНИК\tРЕЗУЛЬТАТ")
			for _, e := range entries {
				detail := e.OutputPath
				if !e.Success {
					detail = e.Error
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.CreatedAt.Format("2006-01-02 15:04:05"), e.Filename, e.Status, e.Origin, detail)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Сколько последних записей показать (0 = не показывать)")

	return cmd
}
