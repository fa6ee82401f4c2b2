package todoform

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/stickies/internal/model"
	"github.com/nhle/stickies/internal/theme"
)

// Mode selects what the form edits.
type Mode int

const (
	// ModeCreate adds a new todo, optionally under a parent.
	ModeCreate Mode = iota
	// ModeEdit changes the text of an existing todo.
	ModeEdit
	// ModeCount sets or clears the countdown of an existing todo.
	ModeCount
)

// SubmittedMsg is dispatched when the user confirms the form.
type SubmittedMsg struct {
	Mode     Mode
	ID       int64
	ParentID *int64
	Text     string
	// Count is nil when the count field was left blank.
	Count *int
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	text  string
	count string
}

// Model is the Bubble Tea model for the todo create/edit/count form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	mode     Mode
	id       int64
	parentID *int64
	width    int
	height   int
}

// New creates a new todo form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Mode returns the mode of the current form.
func (m Model) Mode() Mode { return m.mode }

// StartCreate initializes the form for a new todo. parentID nil adds a root.
func (m *Model) StartCreate(parentID *int64) tea.Cmd {
	m.mode = ModeCreate
	m.id = 0
	m.parentID = parentID
	m.fb.text = ""
	m.fb.count = ""
	m.form = huh.NewForm(
		huh.NewGroup(m.textField(), m.countField()),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
	return m.form.Init()
}

// StartEdit initializes the form for renaming an existing todo.
func (m *Model) StartEdit(todo model.TodoNode) tea.Cmd {
	m.mode = ModeEdit
	m.id = todo.ID
	m.parentID = todo.ParentID
	m.fb.text = todo.Text
	m.form = huh.NewForm(
		huh.NewGroup(m.textField()),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
	return m.form.Init()
}

// StartCount initializes the form for setting a todo's countdown.
func (m *Model) StartCount(todo model.TodoNode) tea.Cmd {
	m.mode = ModeCount
	m.id = todo.ID
	m.parentID = todo.ParentID
	m.fb.text = todo.Text
	m.fb.count = ""
	if todo.TargetCount != nil {
		m.fb.count = strconv.Itoa(*todo.TargetCount)
	}
	m.form = huh.NewForm(
		huh.NewGroup(m.countField()),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
	return m.form.Init()
}

// Update handles messages for the todo form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the todo form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	var titleText string
	switch m.mode {
	case ModeEdit:
		titleText = "Edit Todo"
	case ModeCount:
		titleText = "Countdown: " + m.fb.text
	default:
		titleText = "New Todo"
		if m.parentID != nil {
			titleText = "New Subtask"
		}
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) textField() huh.Field {
	return huh.NewInput().
		Title("Text").
		Placeholder("What needs to be done?").
		Value(&m.fb.text).
		Validate(validateRequired("Text"))
}

func (m *Model) countField() huh.Field {
	return huh.NewInput().
		Title("Count").
		Placeholder("Times to repeat (blank for none)").
		Value(&m.fb.count).
		Validate(validateCount)
}

func (m Model) handleSubmit() tea.Cmd {
	msg := SubmittedMsg{
		Mode:     m.mode,
		ID:       m.id,
		ParentID: m.parentID,
		Text:     strings.TrimSpace(m.fb.text),
	}
	if m.mode != ModeEdit {
		msg.Count, _ = parseCount(m.fb.count)
	}
	return func() tea.Msg { return msg }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 6 {
		h = 6
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateCount(s string) error {
	_, err := parseCount(s)
	return err
}

// parseCount returns nil for a blank field.
func parseCount(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("count must be a whole number, 0 or more")
	}
	return &n, nil
}
