package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blendassist/config"
	"blendassist/model"
	"blendassist/session"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
)

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 4
		a.filterInput.Width = msg.Width - 4
		return a, nil

	case spinner.TickMsg:
		if !a.waiting {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case sendResultMsg:
		return a.handleSendResult(msg), nil

	case runResultMsg:
		a.waiting = false
		a.setExecutionStatus(msg.Result)
		return a, nil

	case editorClosedMsg:
		if msg.Err != nil {
			a.setStatus(statusError, fmt.Sprintf("Failed to open external editor: %v (check $EDITOR or $BLENDASSIST_EDITOR)", msg.Err))
			return a, nil
		}
		a.editedCode = strings.TrimSpace(msg.Content)
		a.setStatus(statusInfo, "Edited code ready. Press Ctrl+R to run it.")
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.Quit) {
		return a, tea.Quit
	}

	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	if a.filterMode {
		return a.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, a.keys.Help):
		a.showHelp = true
		return a, nil

	case key.Matches(msg, a.keys.Send):
		return a.startSend()

	case key.Matches(msg, a.keys.Up):
		a.moveSelection(-1)
		return a, nil

	case key.Matches(msg, a.keys.Down):
		a.moveSelection(1)
		return a, nil

	case key.Matches(msg, a.keys.Delete):
		return a.deleteSelected(), nil

	case key.Matches(msg, a.keys.Clear):
		a.assistant.Clear()
		a.selected = -1
		a.filtered = nil
		a.editedCode = ""
		a.setStatus(statusInfo, "History cleared")
		return a, nil

	case key.Matches(msg, a.keys.Open):
		return a.openSelected()

	case key.Matches(msg, a.keys.Run):
		return a.runCode()

	case key.Matches(msg, a.keys.Copy):
		return a.copySelected(), nil

	case key.Matches(msg, a.keys.Filter):
		a.filterMode = true
		a.filterInput.SetValue("")
		a.filterInput.Focus()
		a.input.Blur()
		a.refilter()
		return a, textinput.Blink
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a AppView) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.filterMode = false
		a.filtered = nil
		a.selected = -1
		a.filterInput.Blur()
		a.input.Focus()
		return a, textinput.Blink
	case "enter":
		// Keep the selection, translated back to an unfiltered index
		index := a.selectedIndex()
		a.filterMode = false
		a.filtered = nil
		a.selected = index
		a.filterInput.Blur()
		a.input.Focus()
		return a, textinput.Blink
	case "up":
		a.moveSelection(-1)
		return a, nil
	case "down":
		a.moveSelection(1)
		return a, nil
	}

	var cmd tea.Cmd
	a.filterInput, cmd = a.filterInput.Update(msg)
	a.refilter()
	return a, cmd
}

// refilter fuzzy-matches the filter text against every history entry.
func (a *AppView) refilter() {
	history := a.assistant.History()
	query := a.filterInput.Value()

	if query == "" {
		a.filtered = make([]int, len(history))
		for i := range history {
			a.filtered[i] = i
		}
	} else {
		targets := make([]string, len(history))
		for i, msg := range history {
			targets[i] = msg.Content
		}
		matches := fuzzy.Find(query, targets)
		a.filtered = make([]int, len(matches))
		for i, match := range matches {
			a.filtered[i] = match.Index
		}
	}

	switch {
	case len(a.filtered) == 0:
		a.selected = -1
	case a.selected < 0 || a.selected >= len(a.filtered):
		a.selected = 0
	}
}

// visible returns the history indices currently listed.
func (a AppView) visible() []int {
	if a.filterMode {
		return a.filtered
	}
	n := len(a.assistant.History())
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// selectedIndex returns the history index of the selection, or -1.
func (a AppView) selectedIndex() int {
	rows := a.visible()
	if a.selected < 0 || a.selected >= len(rows) {
		return -1
	}
	return rows[a.selected]
}

func (a *AppView) moveSelection(delta int) {
	prev := a.selected
	defer func() {
		// An edit belongs to the entry it was opened from
		if a.selected != prev {
			a.editedCode = ""
		}
	}()

	rows := a.visible()
	if len(rows) == 0 {
		a.selected = -1
		return
	}
	switch {
	case a.selected < 0 && delta < 0:
		a.selected = len(rows) - 1
	case a.selected < 0:
		a.selected = 0
	default:
		a.selected += delta
	}
	if a.selected < 0 {
		a.selected = 0
	}
	if a.selected >= len(rows) {
		a.selected = len(rows) - 1
	}
}

func (a AppView) startSend() (tea.Model, tea.Cmd) {
	if a.waiting || a.assistant.Busy() {
		a.setStatus(statusInfo, "Please wait...")
		return a, nil
	}

	task := strings.TrimSpace(a.input.Value())
	if task == "" {
		return a, nil
	}

	a.input.SetValue("")
	a.waiting = true
	a.selected = -1
	a.setStatus(statusNone, "")

	assistant := a.assistant
	send := func() tea.Msg {
		out, err := assistant.Send(context.Background(), task)
		return sendResultMsg{Task: task, Outcome: out, Err: err}
	}

	return a, tea.Batch(a.spinner.Tick, send)
}

func (a AppView) handleSendResult(msg sendResultMsg) AppView {
	a.waiting = false

	switch {
	case errors.Is(msg.Err, session.ErrBusy):
		a.setStatus(statusInfo, "Please wait...")
		return a
	case msg.Err != nil:
		a.setStatus(statusError, msg.Err.Error())
		return a
	}

	resp := msg.Outcome.Response
	if !resp.OK() {
		if config.Debug && config.DebugLog != nil {
			config.DebugLog.Printf("[UI] send failed: %v", resp.Failure)
		}
		a.setStatus(statusError, failureText(resp.Failure))
		return a
	}

	a.setExecutionStatus(msg.Outcome.Execution)
	return a
}

func failureText(f *model.ResponseFailure) string {
	switch f.Kind {
	case model.FailureUpstream:
		if f.Detail == "missing credential" {
			return "No API key configured for the hosted backend. Set it in credentials.toml or the provider's environment variable."
		}
		return "Request rejected: " + f.Detail
	case model.FailureNetwork:
		return "Could not reach the model backend: " + f.Detail
	default:
		return "The model backend returned an unexpected response: " + f.Detail
	}
}

func (a *AppView) setExecutionStatus(result model.ExecutionResult) {
	if result.OK() {
		a.setStatus(statusOK, "Code executed successfully")
		return
	}
	a.setStatus(statusError, result.Failure.Detail)
}

func (a *AppView) setStatus(kind statusKind, text string) {
	a.statusKind = kind
	a.status = text
}

func (a AppView) deleteSelected() AppView {
	index := a.selectedIndex()
	if index < 0 {
		a.setStatus(statusInfo, "Select an entry with ↑/↓ first")
		return a
	}
	if err := a.assistant.Delete(index); err != nil {
		a.setStatus(statusError, err.Error())
		return a
	}
	a.editedCode = ""

	if a.filterMode {
		a.refilter()
	}
	rows := a.visible()
	if a.selected >= len(rows) {
		a.selected = len(rows) - 1
	}
	a.setStatus(statusInfo, "Entry deleted")
	return a
}

func (a AppView) selectedCode() (string, bool) {
	index := a.selectedIndex()
	if index < 0 {
		return "", false
	}
	code, err := a.assistant.Code(index)
	if err != nil {
		return "", false
	}
	return code, true
}

func (a AppView) openSelected() (tea.Model, tea.Cmd) {
	index := a.selectedIndex()
	if index < 0 {
		a.setStatus(statusInfo, "Select a code entry with ↑/↓ first")
		return a, nil
	}

	path, err := a.assistant.ShowCode(index)
	if err != nil {
		if errors.Is(err, session.ErrNotAssistant) {
			a.setStatus(statusInfo, "Only generated code can be opened")
		} else {
			a.setStatus(statusError, err.Error())
		}
		return a, nil
	}

	return a, openInEditor(path)
}

func (a AppView) runCode() (tea.Model, tea.Cmd) {
	if a.waiting || a.assistant.Busy() {
		a.setStatus(statusInfo, "Please wait...")
		return a, nil
	}

	code := a.editedCode
	if code == "" {
		selected, ok := a.selectedCode()
		if !ok {
			a.setStatus(statusInfo, "Select a code entry with ↑/↓ first")
			return a, nil
		}
		code = selected
	}

	a.waiting = true
	a.editedCode = ""
	a.setStatus(statusNone, "")

	assistant := a.assistant
	run := func() tea.Msg {
		return runResultMsg{Result: assistant.RunCode(context.Background(), code)}
	}
	return a, tea.Batch(a.spinner.Tick, run)
}

func (a AppView) copySelected() AppView {
	code, ok := a.selectedCode()
	if !ok {
		a.setStatus(statusInfo, "Select a code entry with ↑/↓ first")
		return a
	}
	if err := a.copyToClipboard(code); err != nil {
		a.setStatus(statusError, fmt.Sprintf("Failed to copy: %v", err))
		return a
	}
	a.setStatus(statusOK, "Code copied to clipboard")
	return a
}
