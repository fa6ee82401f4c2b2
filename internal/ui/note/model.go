package note

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/stickies/internal/markdown"
	"github.com/nhle/stickies/internal/theme"
)

// SavedMsg is emitted when the user saves the edited note.
type SavedMsg struct {
	Content string
}

// CancelMsg is emitted when the user abandons an edit.
type CancelMsg struct{}

// Model shows the note as rendered markdown, either as a compact panel above
// the tree or full screen in a scrollable viewport, and switches to a textarea
// for editing.
type Model struct {
	content  string
	rendered string
	style    string
	editing  bool
	editor   textarea.Model
	viewport viewport.Model
	width    int
	height   int
}

// New creates a note model. style is the markdown theme name.
func New(style string, width, height int) Model {
	ta := textarea.New()
	ta.Placeholder = "Write anything. Markdown is rendered."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0

	m := Model{
		style:    style,
		editor:   ta,
		viewport: viewport.New(width, height),
	}
	m.SetSize(width, height)
	return m
}

// SetContent replaces the displayed note.
func (m *Model) SetContent(content string) {
	m.content = content
	m.render()
}

// Content returns the last loaded or saved note.
func (m Model) Content() string { return m.content }

// Editing reports whether the editor is open.
func (m Model) Editing() bool { return m.editing }

// StartEdit opens the editor on the current content.
func (m *Model) StartEdit() tea.Cmd {
	m.editing = true
	m.editor.SetValue(m.content)
	return m.editor.Focus()
}

// Update scrolls the full-screen view, or handles editing keys: ctrl+s saves
// and esc cancels.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.editing {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+s":
			content := m.editor.Value()
			m.editing = false
			m.editor.Blur()
			return m, func() tea.Msg { return SavedMsg{Content: content} }
		case "esc":
			m.editing = false
			m.editor.Blur()
			return m, func() tea.Msg { return CancelMsg{} }
		}
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// View renders the full-screen note or the editor.
func (m Model) View() string {
	if m.editing {
		title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).
			Render("Note")
		hint := theme.HelpStyle.Render("ctrl+s save · esc cancel")
		return theme.PanelStyle.Width(m.innerWidth()).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, m.editor.View(), hint),
		)
	}

	return theme.NoteStyle.Width(m.innerWidth()).Render(m.viewport.View())
}

func (m Model) body() string {
	if m.rendered == "" {
		return theme.HelpStyle.Render("No note. Press n to write one.")
	}
	return m.rendered
}

// PanelHeight returns how many lines the read-only panel needs, capped at max.
func (m Model) PanelHeight(max int) int {
	lines := 1
	if m.rendered != "" {
		lines = strings.Count(m.rendered, "\n") + 1
	}
	// Border adds a line above and below.
	h := lines + 2
	if h > max {
		h = max
	}
	return h
}

// Panel renders the compact note shown above the tree, cut to height lines.
func (m Model) Panel(height int) string {
	view := theme.NoteStyle.Width(m.innerWidth()).Render(m.body())
	lines := strings.Split(view, "\n")
	if height > 0 && len(lines) > height {
		lines = append(lines[:height-1], lines[len(lines)-1])
	}
	return strings.Join(lines, "\n")
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.editor.SetWidth(max(m.innerWidth()-4, 10))
	m.editor.SetHeight(max(height-6, 3))
	m.viewport.Width = m.innerWidth() - 2
	m.viewport.Height = max(height-2, 1)
	m.render()
}

func (m Model) innerWidth() int {
	return max(m.width-2, 10)
}

func (m *Model) render() {
	m.rendered = markdown.Render(m.innerWidth()-2, m.style, m.content)
	m.viewport.SetContent(m.body())
}
