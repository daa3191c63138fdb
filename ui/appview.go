package ui

import (
	"os"
	"os/exec"
	"runtime"

	"blendassist/config"
	"blendassist/session"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type keyMap struct {
	Send   key.Binding
	Up     key.Binding
	Down   key.Binding
	Delete key.Binding
	Clear  key.Binding
	Open   key.Binding
	Run    key.Binding
	Copy   key.Binding
	Filter key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Send:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Send task")),
		Up:     key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "Select previous entry")),
		Down:   key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "Select next entry")),
		Delete: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("Ctrl+D", "Delete selected entry")),
		Clear:  key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("Ctrl+L", "Clear history")),
		Open:   key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("Ctrl+O", "Open code in $EDITOR")),
		Run:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("Ctrl+R", "Run edited or selected code")),
		Copy:   key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("Ctrl+Y", "Copy selected code")),
		Filter: key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("Ctrl+F", "Filter history")),
		Help:   key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "Toggle this help")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("Ctrl+C", "Quit")),
	}
}

// ShortHelp lists every binding in display order.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Up, k.Down, k.Delete, k.Clear, k.Open, k.Run, k.Copy, k.Filter, k.Help, k.Quit}
}

// AppView is the main TUI model: history list, input line and status.
type AppView struct {
	assistant *session.Assistant
	cfg       *config.Config
	version   string
	keys      keyMap

	input       textinput.Model
	filterInput textinput.Model
	spinner     spinner.Model

	width  int
	height int

	// selected indexes visible(); -1 means nothing is selected
	selected   int
	filterMode bool
	filtered   []int

	waiting    bool
	status     string
	statusKind statusKind
	showHelp   bool

	// editedCode holds the buffer content after the editor closed
	editedCode string

	// copyToClipboard is replaced in tests
	copyToClipboard func(string) error
}

func NewAppView(assistant *session.Assistant, cfg *config.Config, version string) AppView {
	input := textinput.New()
	input.Placeholder = "Describe what Blender should do..."
	input.Prompt = "> "
	input.CharLimit = 4000
	input.Focus()

	filterInput := textinput.New()
	filterInput.Placeholder = "Filter history..."
	filterInput.Prompt = "/ "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = BusyStyle

	return AppView{
		assistant:       assistant,
		cfg:             cfg,
		version:         version,
		keys:            defaultKeyMap(),
		input:           input,
		filterInput:     filterInput,
		spinner:         sp,
		selected:        -1,
		copyToClipboard: writeClipboard,
	}
}

func (a AppView) Init() tea.Cmd {
	return textinput.Blink
}

// getDefaultEditor returns the user's preferred editor from environment variables
func getDefaultEditor() string {
	// 1. Application-specific override
	editor := os.Getenv("BLENDASSIST_EDITOR")
	if editor != "" {
		return editor
	}

	// 2. Standard Unix environment variables
	editor = os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor != "" {
		return editor
	}

	// 3. Auto-detect
	if runtime.GOOS == "windows" {
		return "notepad"
	}

	for _, ed := range []string{"nano", "nvim", "vim", "vi", "emacs"} {
		if _, err := exec.LookPath(ed); err == nil {
			return ed
		}
	}

	return "vi"
}

// openInEditor suspends the TUI and opens path in the user's editor.
func openInEditor(path string) tea.Cmd {
	cmd := exec.Command(getDefaultEditor(), path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		if err != nil {
			return editorClosedMsg{Err: err}
		}
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return editorClosedMsg{Err: readErr}
		}
		return editorClosedMsg{Content: string(content)}
	})
}
