package ui

import (
	"github.com/charmbracelet/lipgloss"
)

func (a AppView) renderHelpModal(width, height int) string {
	green := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor)

	title := green.Render("BlendAssist - Keyboard Shortcuts")

	blue := lipgloss.NewStyle().Foreground(accentColor)

	var lines []string
	lines = append(lines, blue.Render("## Assistant"))
	for _, b := range a.keys.ShortHelp() {
		h := b.Help()
		lines = append(lines, "• "+padRight(h.Key, 13)+" "+h.Desc)
	}

	tips := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Tips"),
		"• Generated code runs in Blender without a sandbox",
		"• Edit code with Ctrl+O, then run the edit with Ctrl+R",
		"• Only the last 10 entries are sent with a request",
	)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		"",
		lipgloss.JoinVertical(lipgloss.Left, lines...),
		"",
		tips,
		"",
		DimStyle.Render("Press any key to close"),
	)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
