package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("#7D56F4")
	colorMuted  = lipgloss.Color("241")
	colorUser   = lipgloss.Color("#3C82F6")
	colorBot    = lipgloss.Color("#10B981")
	colorError  = lipgloss.Color("9")
	colorNotice = lipgloss.Color("10")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelStyle = lipgloss.NewStyle().Bold(true)
	hintStyle  = lipgloss.NewStyle().Faint(true)
	errorStyle = lipgloss.NewStyle().Foreground(colorError)

	noticeStyle = lipgloss.NewStyle().Foreground(colorNotice)

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(colorAccent).
			Padding(0, 2)

	userLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(colorUser)
	botLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorBot)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	focusedPaneStyle = paneStyle.BorderForeground(colorAccent)

	selectedQuestionStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorAccent).
			Padding(1, 2)

	starOnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	starOffStyle = lipgloss.NewStyle().Foreground(colorMuted)
)
