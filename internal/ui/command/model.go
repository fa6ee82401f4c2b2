package command

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/stickies/internal/theme"
)

// CommandMsg is emitted when the user executes a command.
type CommandMsg string

// Names lists the palette commands offered for tab completion.
var Names = []string{
	"add", "collapse", "count", "dec", "done", "expand",
	"hide", "note", "quit", "refresh", "reset", "show", "toggle", "undo",
}

// Model is the command palette view.
type Model struct {
	input   textinput.Model
	history []string
	// cursor indexes history while browsing; len(history) means a fresh line.
	cursor int
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "count 3, reset, add buy milk, hide..."
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			cmd := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if cmd == "" {
				return m, nil
			}
			if n := len(m.history); n == 0 || m.history[n-1] != cmd {
				m.history = append(m.history, cmd)
			}
			m.cursor = len(m.history)
			return m, func() tea.Msg {
				return CommandMsg(cmd)
			}
		case "up":
			if m.cursor > 0 {
				m.cursor--
				m.setValue(m.history[m.cursor])
			}
			return m, nil
		case "down":
			if m.cursor < len(m.history)-1 {
				m.cursor++
				m.setValue(m.history[m.cursor])
			} else {
				m.cursor = len(m.history)
				m.input.Reset()
			}
			return m, nil
		case "tab":
			if c := Complete(m.input.Value()); c != "" {
				m.setValue(c + " ")
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// Complete returns the single command name starting with prefix, or "" when
// there is no match or more than one.
func Complete(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || strings.Contains(prefix, " ") {
		return ""
	}
	var matches []string
	for _, n := range Names {
		if strings.HasPrefix(n, prefix) {
			matches = append(matches, n)
		}
	}
	if len(matches) != 1 {
		return ""
	}
	return matches[0]
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Command Palette")
	input := m.input.View()

	names := append([]string(nil), Names...)
	sort.Strings(names)
	hint := theme.HelpStyle.Render(strings.Join(names, " · "))

	content := lipgloss.JoinVertical(lipgloss.Left, title, input, "", hint)

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	m.cursor = len(m.history)
	return m.input.Focus()
}

func (m *Model) setValue(v string) {
	m.input.SetValue(v)
	m.input.CursorEnd()
}
