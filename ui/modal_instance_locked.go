package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// InstanceLockedModal is shown when another process holds the data directory lock.
// The user can exit or force delete the lock file.
type InstanceLockedModal struct {
	runningPID  int
	width       int
	height      int
	forceDelete bool
}

func NewInstanceLockedModal(runningPID int) InstanceLockedModal {
	return InstanceLockedModal{
		runningPID: runningPID,
	}
}

func (m InstanceLockedModal) Init() tea.Cmd {
	return nil
}

func (m InstanceLockedModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "ctrl+c", "esc":
			return m, tea.Quit
		case "d", "D":
			m.forceDelete = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// ForceDelete returns true if the user chose to force delete the lock file
func (m InstanceLockedModal) ForceDelete() bool {
	return m.forceDelete
}

func (m InstanceLockedModal) View() string {
	if m.width < 20 || m.height < 10 {
		return "Terminal too small"
	}

	message := fmt.Sprintf(
		"Another blendassist instance is using this data\n"+
			"directory (PID %d).\n\n"+
			"Two instances would run generated code against\n"+
			"the same scene at the same time.\n\n"+
			"If you think this is a mistake, press D to force\n"+
			"delete the lock file and start anyway.",
		m.runningPID)

	return renderModal("⚠️  BlendAssist Already Running  ⚠️", message, "Enter Exit │ D Force delete lock file", dangerColor, m.width, m.height)
}
