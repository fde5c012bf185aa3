// Package tui показывает ход наблюдения за папкой в терминале.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/artemshloyda/photoresizer/internal/resizer"
	"github.com/artemshloyda/photoresizer/internal/service"
)

// recentLimit - сколько последних результатов держать на экране.
const recentLimit = 8

const refreshInterval = 500 * time.Millisecond

// Source - то, что модель читает из сервиса.
type Source interface {
	Events() <-chan resizer.Result
	GetStatus() service.StatusResponse
	Dropped() int64
}

// Model - экран наблюдения: статус сервиса, последние результаты
// и число потерянных событий.
type Model struct {
	source   Source
	spinner  spinner.Model
	started  time.Time
	width    int
	status   service.StatusResponse
	recent   []resizer.Result
	found    int
	dropped  int64
	quitting bool
}

type resultMsg resizer.Result

type tickMsg time.Time

type doneMsg struct{}

// NewModel создаёт модель и сразу читает текущий статус source.
func NewModel(source Source) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorAccent)

	return Model{
		source:  source,
		spinner: s,
		started: time.Now(),
		status:  source.GetStatus(),
	}
}

// Init подписывается на события и запускает обновление статуса и спиннер.
func (m Model) Init() tea.Cmd {
	return tea.Batch(listenForResults(m.source.Events()), tick(), m.spinner.Tick)
}

// Update обрабатывает результаты, тики и клавиши q, esc, ctrl+c.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		m.found++
		m.recent = append(m.recent, resizer.Result(msg))
		if len(m.recent) > recentLimit {
			m.recent = m.recent[len(m.recent)-recentLimit:]
		}
		m.status = m.source.GetStatus()
		return m, listenForResults(m.source.Events())
	case spinner.TickMsg:
		if m.quitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tickMsg:
		m.status = m.source.GetStatus()
		m.dropped = m.source.Dropped()
		return m, tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

// View рисует экран.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	state := lipgloss.NewStyle().Foreground(ColorWarn).Render("остановлено")
	if m.status.Running {
		state = m.spinner.View() + " " + lipgloss.NewStyle().Foreground(ColorSuccess).Render("наблюдение")
	}

	lines := []string{
		titleStyle.Render("photoresizer") + "  " + state,
		labelStyle.Render("Источник:   ") + m.status.SourceFolder,
		labelStyle.Render("Назначение: ") + m.status.DestinationFolder,
		labelStyle.Render("Политика:   ") + policyLabel(m.status),
		labelStyle.Render(fmt.Sprintf("Обработано: %d", m.status.ProcessedCount)) +
			dimStyle.Render(fmt.Sprintf("  новых:%d  потеряно событий:%d", m.found, m.dropped)),
		dimStyle.Render(fmt.Sprintf("Время: %s", time.Since(m.started).Round(time.Second))),
		"",
	}

	if len(m.recent) == 0 {
		lines = append(lines, dimStyle.Render("Ожидание новых файлов..."))
	}
	for i := len(m.recent) - 1; i >= 0; i-- {
		lines = append(lines, renderResult(m.recent[i], m.width))
	}

	lines = append(lines, "", dimStyle.Render("q - остановить наблюдение"))
	return strings.Join(lines, "\n")
}

func policyLabel(st service.StatusResponse) string {
	p := resizer.Policy{ScalingFactor: st.ScalingFactor, SingleSideResolution: st.SingleSideResolution}
	if p.Mode() == resizer.ModeSingleSide {
		return fmt.Sprintf("длинная сторона %dpx", st.SingleSideResolution)
	}
	return "масштаб x" + resizer.FormatFactor(st.ScalingFactor)
}

func renderResult(r resizer.Result, width int) string {
	mark := successStyle.Render("✓")
	if !r.Success {
		mark = errorStyle.Render("✗")
	}

	line := fmt.Sprintf("%s %s  %s", mark, r.Filename, dimStyle.Render(string(r.Status)))
	if r.OutputPath != "" {
		line += dimStyle.Render(" -> " + r.OutputPath)
	}
	if width > 0 {
		line = lipgloss.NewStyle().MaxWidth(width).Render(line)
	}
	return line
}

func listenForResults(events <-chan resizer.Result) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return resultMsg(r)
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle   = lipgloss.NewStyle().Foreground(ColorInk)
	dimStyle     = lipgloss.NewStyle().Foreground(ColorDim)
	successStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	errorStyle   = lipgloss.NewStyle().Foreground(ColorError)
)
