package tui

import "github.com/charmbracelet/lipgloss"

// Цвета экрана наблюдения и итоговой таблицы.
var (
	ColorInk     = lipgloss.Color("#E5E9F0")
	ColorDim     = lipgloss.Color("#7A8291")
	ColorAccent  = lipgloss.Color("#88C0D0")
	ColorSuccess = lipgloss.Color("#A3BE8C")
	ColorWarn    = lipgloss.Color("#EBCB8B")
	ColorError   = lipgloss.Color("#BF616A")
)
