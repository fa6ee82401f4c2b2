package app

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hashicorp/go-hclog"

	"github.com/nhle/stickies/internal/keys"
	"github.com/nhle/stickies/internal/model"
	"github.com/nhle/stickies/internal/store"
	"github.com/nhle/stickies/internal/ui"
	"github.com/nhle/stickies/internal/ui/command"
	helpview "github.com/nhle/stickies/internal/ui/help"
	"github.com/nhle/stickies/internal/ui/note"
	"github.com/nhle/stickies/internal/ui/todoform"
	"github.com/nhle/stickies/internal/ui/todotree"
	"github.com/nhle/stickies/internal/watch"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewTree ViewState = iota
	ViewNote
	ViewHelp
	ViewCommand
	ViewTodoForm
)

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the persistence layer.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	store        store.Store
	logger       hclog.Logger
	keys         *keys.KeyMap
	tree         todotree.Model
	note         note.Model
	helpView     helpview.Model
	commandView  command.Model
	todoFormView todoform.Model
	watcher      *watch.Watcher
	clock        *snapshotClock
	shownSeq     uint64
	stats        model.Stats
	status       string
	statusErr    bool
	ready        bool
}

// New creates a new root application model. w may be nil when watching is
// disabled.
func New(s store.Store, cfg *model.AppConfig, logger hclog.Logger, w *watch.Watcher) Model {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	k := keys.DefaultKeyMap()

	return Model{
		currentView:  ViewTree,
		store:        s,
		logger:       logger.Named("app"),
		keys:         k,
		tree:         todotree.New(k, cfg.Display.ShowCompleted, 80, 20),
		note:         note.New(cfg.Display.Theme, 80, 24),
		helpView:     helpview.New(k, 80, 24),
		commandView:  command.New(80, 24),
		todoFormView: todoform.New(80, 24),
		watcher:      w,
		clock:        &snapshotClock{},
	}
}

// Init loads the note and the todos and starts watching the database.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadTodos(),
		m.loadNote(),
		m.startWatcher(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.resize()
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case TodosReloadMsg:
		if msg.Seq > m.shownSeq {
			m.shownSeq = msg.Seq
			m.tree.SetTodos(msg.Todos)
			m.stats = msg.Stats
		} else {
			m.logger.Trace("dropping stale snapshot", "seq", msg.Seq, "shown", m.shownSeq)
		}
		switch {
		case msg.Err != nil:
			m.setError(describe(msg.Op, msg.Err))
		case msg.LoadErr != nil:
			m.setError("could not load todos: " + msg.LoadErr.Error())
		case msg.Op != "":
			m.clearStatus()
		}
		if msg.Focus != 0 {
			return m, m.tree.Focus(msg.Focus)
		}
		return m, nil

	case NoteLoadedMsg:
		if msg.Err != nil {
			m.setError("could not load note: " + msg.Err.Error())
		}
		if !m.note.Editing() {
			m.note.SetContent(msg.Content)
			m.resize()
		}
		return m, nil

	case noteSavedResultMsg:
		if msg.Err != nil {
			m.setError("could not save note: " + msg.Err.Error())
			return m, m.loadNote()
		}
		m.clearStatus()
		return m, nil

	case note.SavedMsg:
		m.currentView = ViewTree
		m.note.SetContent(msg.Content)
		m.resize()
		return m, m.saveNote(msg.Content)

	case note.CancelMsg:
		m.currentView = ViewTree
		return m, nil

	case todoform.SubmittedMsg:
		m.currentView = ViewTree
		switch msg.Mode {
		case todoform.ModeCreate:
			return m, m.createTodo(msg.Text, msg.ParentID, msg.Count)
		case todoform.ModeEdit:
			return m, m.updateText(msg.ID, msg.Text)
		case todoform.ModeCount:
			return m, m.setCount(msg.ID, msg.Count)
		}
		return m, nil

	case todoform.CancelMsg:
		m.currentView = ViewTree
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case watch.ChangedMsg:
		if m.watcher == nil {
			return m, nil
		}
		m.logger.Debug("database changed on disk", "path", msg.Path)
		cmds := []tea.Cmd{m.loadTodos(), m.watcher.WaitForNext()}
		if !m.note.Editing() {
			cmds = append(cmds, m.loadNote())
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if handled, next, cmd := m.handleKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleKey applies the keybindings of the current view. It reports false
// when the key should fall through to the active sub-view.
func (m Model) handleKey(msg tea.KeyMsg) (bool, Model, tea.Cmd) {
	switch m.currentView {
	case ViewTree:
		return m.handleTreeKey(msg)

	case ViewHelp:
		if key.Matches(msg, m.keys.Help, m.keys.Back, m.keys.Quit) {
			m.currentView = m.previousView
			return true, m, nil
		}

	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return true, m, nil
		}

	case ViewNote:
		if m.note.Editing() {
			return false, m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Back, m.keys.Quit):
			m.currentView = ViewTree
			return true, m, nil
		case key.Matches(msg, m.keys.Edit, m.keys.Note):
			return true, m, m.note.StartEdit()
		}

	case ViewTodoForm:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = ViewTree
			return true, m, nil
		}
	}
	return false, m, nil
}

func (m Model) handleTreeKey(msg tea.KeyMsg) (bool, Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return true, m, m.quit()

	case key.Matches(msg, m.keys.Back):
		m.clearStatus()
		return true, m, nil

	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return true, m, m.commandView.Focus()

	case key.Matches(msg, m.keys.Refresh):
		return true, m, tea.Batch(m.loadTodos(), m.loadNote())

	case key.Matches(msg, m.keys.Note):
		m.currentView = ViewNote
		return true, m, m.note.StartEdit()

	case key.Matches(msg, m.keys.Add):
		var parentID *int64
		if sel, ok := m.tree.Selected(); ok {
			parentID = sel.ParentID
		}
		m.currentView = ViewTodoForm
		return true, m, m.todoFormView.StartCreate(parentID)

	case key.Matches(msg, m.keys.Reset):
		return true, m, m.resetAll()
	}

	sel, ok := m.tree.Selected()
	if !ok {
		return false, m, nil
	}

	switch {
	case key.Matches(msg, m.keys.AddChild):
		m.currentView = ViewTodoForm
		return true, m, m.todoFormView.StartCreate(model.Int64Ptr(sel.ID))

	case key.Matches(msg, m.keys.Edit):
		m.currentView = ViewTodoForm
		return true, m, m.todoFormView.StartEdit(sel)

	case key.Matches(msg, m.keys.Count):
		m.currentView = ViewTodoForm
		return true, m, m.todoFormView.StartCount(sel)

	case key.Matches(msg, m.keys.Toggle):
		return true, m, m.setCompleted(sel.ID, !sel.Completed)

	case key.Matches(msg, m.keys.Delete):
		return true, m, m.deleteTodo(sel.ID)

	case key.Matches(msg, m.keys.Decrement):
		return true, m, m.decrement(sel.ID)

	case key.Matches(msg, m.keys.MoveUp):
		return true, m, m.moveBy(todotree.MoveUp, sel.ID)

	case key.Matches(msg, m.keys.MoveDown):
		return true, m, m.moveBy(todotree.MoveDown, sel.ID)

	case key.Matches(msg, m.keys.Indent):
		return true, m, m.moveBy(todotree.Indent, sel.ID)

	case key.Matches(msg, m.keys.Outdent):
		return true, m, m.moveBy(todotree.Outdent, sel.ID)
	}
	return false, m, nil
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewTree:
		m.tree, cmd = m.tree.Update(msg)
	case ViewNote:
		m.note, cmd = m.note.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewTodoForm:
		m.todoFormView, cmd = m.todoFormView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Stickies", ui.StatsLabel(m.stats))
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.statusText(), m.statusErr)

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewTree:
		panel := m.note.Panel(m.note.PanelHeight(m.layout.NoteMaxHeight()))
		return lipgloss.JoinVertical(lipgloss.Left, panel, m.tree.View())
	case ViewNote:
		return m.note.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewTodoForm:
		return m.todoFormView.View()
	default:
		return ""
	}
}

// statusText returns the pending status message or keyboard shortcut hints.
func (m Model) statusText() string {
	if m.status != "" {
		return m.status
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | ↑/↓ history | esc back"
	case ViewNote:
		if m.note.Editing() {
			return "ctrl+s save | esc cancel"
		}
		return "e edit | j/k scroll | esc back"
	case ViewTodoForm:
		return "enter submit | esc cancel"
	default:
		hint := "q quit | ? help | a add | A subtask | space check | c count | n note | : command"
		if !m.tree.ShowCompleted() {
			hint = "completed hidden | " + hint
		}
		return hint
	}
}

func (m *Model) resize() {
	if !m.ready {
		return
	}
	w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
	m.note.SetSize(w, h)
	noteHeight := m.note.PanelHeight(m.layout.NoteMaxHeight())
	m.tree.SetSize(w, max(h-noteHeight, 1))
	m.helpView.SetSize(w, h)
	m.commandView.SetSize(w, h)
	m.todoFormView.SetSize(w, h)
}

func (m *Model) setError(msg string) {
	m.status = msg
	m.statusErr = true
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusErr = false
}

func (m Model) startWatcher() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	cmd, err := m.watcher.Start()
	if err != nil {
		m.logger.Warn("not watching database for changes", "error", err)
		return nil
	}
	return cmd
}

func (m Model) quit() tea.Cmd {
	if m.watcher != nil {
		m.watcher.Stop()
	}
	return tea.Quit
}
