package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/artemshloyda/photoresizer/internal/resizer"
)

// SummaryRow - строка итоговой таблицы.
type SummaryRow struct {
	Label string
	Value string
}

// RenderSummary рисует строки таблицей из двух колонок между горизонтальными линиями.
func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		if w := lipgloss.Width(row.Label); w > labelWidth {
			labelWidth = w
		}
		if w := lipgloss.Width(row.Value); w > valueWidth {
			valueWidth = w
		}
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}

	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		line := fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value))
		lines = append(lines, line)
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// PassSummary строит строки итога для набора результатов.
func PassSummary(results []resizer.Result) []SummaryRow {
	var processed, skipped, failed int
	for _, r := range results {
		switch r.Status {
		case resizer.StatusProcessed:
			processed++
		case resizer.StatusAlreadyProcessed:
			skipped++
		default:
			failed++
		}
	}

	return []SummaryRow{
		{Label: "Найдено файлов", Value: fmt.Sprintf("%d", len(results))},
		{Label: "Уменьшено", Value: fmt.Sprintf("%d", processed)},
		{Label: "Уже актуальны", Value: fmt.Sprintf("%d", skipped)},
		{Label: "С ошибками", Value: fmt.Sprintf("%d", failed)},
	}
}

func padRight(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

var (
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
)
