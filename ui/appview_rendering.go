package ui

import (
	"fmt"
	"strings"

	"blendassist/model"

	"github.com/mattn/go-runewidth"
)

func (a AppView) View() string {
	if a.width == 0 {
		return "Loading..."
	}
	if a.width < 30 || a.height < 10 {
		return "Terminal too small"
	}

	if a.showHelp {
		return a.renderHelpModal(a.width, a.height)
	}

	header := a.renderHeader()
	footer := DimStyle.Render(FormatFooter("Enter", "Send", "↑/↓", "Select", "Ctrl+O", "Edit", "Ctrl+F", "Filter", "F1", "Help", "Ctrl+C", "Quit"))

	var inputView string
	if a.filterMode {
		inputView = a.filterInput.View()
	} else {
		inputView = a.input.View()
	}

	statusLine := a.renderStatus()

	// header, blank, history..., blank, status, input, footer
	historyHeight := a.height - 6
	if historyHeight < 1 {
		historyHeight = 1
	}

	sections := []string{
		header,
		"",
		a.renderHistory(historyHeight),
		"",
		statusLine,
		inputView,
		footer,
	}
	return strings.Join(sections, "\n")
}

func (a AppView) renderHeader() string {
	backend := a.cfg.Backend
	switch backend {
	case "local":
		backend += "/" + a.cfg.Local.Kind
	case "hosted":
		backend += "/" + a.cfg.Hosted.Provider
	}

	title := TitleStyle.Render("BlendAssist")
	meta := DimStyle.Render(fmt.Sprintf(" %s  backend: %s", a.version, backend))
	if scene := a.cfg.ScenePath(); scene != "" {
		meta += DimStyle.Render("  scene: " + scene)
	}
	return title + meta
}

// renderHistory lists entries one per line, keeping the selection in view.
func (a AppView) renderHistory(height int) string {
	history := a.assistant.History()
	rows := a.visible()

	if len(rows) == 0 {
		lines := []string{DimStyle.Render("No entries yet. Describe what Blender should do.")}
		if a.filterMode {
			lines = []string{DimStyle.Render("No entries match the filter.")}
		}
		return padLines(lines, height)
	}

	// Scroll so the selected row (or the newest row) is visible
	anchor := len(rows) - 1
	if a.selected >= 0 {
		anchor = a.selected
	}
	start := 0
	if anchor >= height {
		start = anchor - height + 1
	}
	end := start + height
	if end > len(rows) {
		end = len(rows)
	}

	lineWidth := a.width - 4
	lines := make([]string, 0, height)
	for pos := start; pos < end; pos++ {
		msg := history[rows[pos]]
		line := formatEntry(msg, lineWidth)

		switch {
		case pos == a.selected:
			line = SelectedStyle.Render("> " + line)
		case msg.Role == model.RoleUser:
			line = "  " + UserStyle.Render(line)
		default:
			line = "  " + AssistantStyle.Render(line)
		}
		lines = append(lines, line)
	}

	return padLines(lines, height)
}

// formatEntry renders one history row: user text, or a [code] marker with the first code line.
func formatEntry(msg model.ChatMessage, width int) string {
	var text string
	switch msg.Role {
	case model.RoleAssistant:
		first := firstLine(msg.Content)
		if strings.HasPrefix(first, "```") {
			first = firstLine(strings.TrimPrefix(strings.TrimSpace(msg.Content), first))
		}
		text = "[code] " + first
	default:
		text = "You: " + firstLine(msg.Content)
	}

	if width > 0 && runewidth.StringWidth(text) > width {
		text = runewidth.Truncate(text, width, "...")
	}
	return text
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func (a AppView) renderStatus() string {
	if a.waiting {
		return a.spinner.View() + BusyStyle.Render(" Please wait...")
	}

	text := a.status
	if width := a.width - 2; width > 0 && runewidth.StringWidth(text) > width {
		text = runewidth.Truncate(text, width, "...")
	}

	switch a.statusKind {
	case statusOK:
		return SuccessStyle.Render(text)
	case statusError:
		return ErrorStyle.Render(text)
	case statusInfo:
		return HighlightStyle.Render(text)
	}
	return ""
}

func padLines(lines []string, height int) string {
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if w := runewidth.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
