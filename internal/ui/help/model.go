package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/stickies/internal/keys"
	"github.com/nhle/stickies/internal/theme"
)

// paletteHelp documents the ":" commands.
var paletteHelp = [][2]string{
	{"add TEXT", "add a root todo"},
	{"count N", "start a countdown on the selection"},
	{"count clear", "remove the countdown"},
	{"dec", "count down once"},
	{"reset", "reopen every todo and restore counters"},
	{"done / undo", "check or uncheck the selection"},
	{"note", "open the note full screen"},
	{"hide / show / toggle", "completed todos"},
	{"expand / collapse", "unfold or fold everything"},
	{"refresh / quit", ""},
}

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	content := lipgloss.JoinVertical(lipgloss.Left,
		title, helpText, "", titleStyle.Render("Commands"), paletteText())

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}

func paletteText() string {
	keyStyle := lipgloss.NewStyle().Foreground(theme.ColorBlue).Width(22)
	var b strings.Builder
	for i, row := range paletteHelp {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(keyStyle.Render(":" + row[0]))
		b.WriteString(theme.HelpStyle.Render(row[1]))
	}
	return b.String()
}
