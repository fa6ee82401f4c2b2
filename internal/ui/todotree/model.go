package todotree

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/stickies/internal/keys"
	"github.com/nhle/stickies/internal/model"
	"github.com/nhle/stickies/internal/theme"
)

// Model is the todo tree view component. It owns display state only
// (selection, folding, completed filter); the todos themselves always come
// from a full store snapshot passed to SetTodos.
type Model struct {
	list          list.Model
	keys          *keys.KeyMap
	forest        *model.Forest
	collapsed     map[int64]bool
	showCompleted bool
	width         int
	height        int
}

// New creates a new tree model.
func New(k *keys.KeyMap, showCompleted bool, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)

	return Model{
		list:          l,
		keys:          k,
		forest:        model.NewForest(nil),
		collapsed:     make(map[int64]bool),
		showCompleted: showCompleted,
		width:         width,
		height:        height,
	}
}

// SetTodos replaces the snapshot and rebuilds the rows, keeping the current
// selection where the selected todo still exists.
func (m *Model) SetTodos(todos []model.TodoNode) tea.Cmd {
	m.forest = model.NewForest(todos)
	for id := range m.collapsed {
		if !m.forest.Has(id) {
			delete(m.collapsed, id)
		}
	}
	return m.rebuild()
}

// Forest returns the current snapshot.
func (m Model) Forest() *model.Forest { return m.forest }

// Selected returns the todo under the cursor.
func (m Model) Selected() (model.TodoNode, bool) {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return model.TodoNode{}, false
	}
	return it.Row.Todo, true
}

// Rows returns the visible rows in display order.
func (m Model) Rows() []Item {
	items := m.list.Items()
	out := make([]Item, 0, len(items))
	for _, li := range items {
		if it, ok := li.(Item); ok {
			out = append(out, it)
		}
	}
	return out
}

// Focus moves the cursor to id, unfolding its ancestors if needed.
func (m *Model) Focus(id int64) tea.Cmd {
	if !m.forest.Has(id) {
		return nil
	}
	var cmd tea.Cmd
	unfolded := false
	for _, a := range m.forest.Ancestors(id) {
		if m.collapsed[a] {
			delete(m.collapsed, a)
			unfolded = true
		}
	}
	if unfolded {
		cmd = m.rebuild()
	}
	m.selectID(id)
	return cmd
}

// ToggleCollapsed folds or unfolds the selected todo's children.
func (m *Model) ToggleCollapsed() tea.Cmd {
	todo, ok := m.Selected()
	if !ok || len(m.forest.ChildIDs(todo.ID)) == 0 {
		return nil
	}
	if m.collapsed[todo.ID] {
		delete(m.collapsed, todo.ID)
	} else {
		m.collapsed[todo.ID] = true
	}
	return m.rebuild()
}

// SetAllCollapsed folds or unfolds every todo that has children.
func (m *Model) SetAllCollapsed(collapsed bool) tea.Cmd {
	m.collapsed = make(map[int64]bool)
	if collapsed {
		for _, r := range m.forest.Flatten(nil) {
			if len(m.forest.ChildIDs(r.Todo.ID)) > 0 {
				m.collapsed[r.Todo.ID] = true
			}
		}
	}
	return m.rebuild()
}

// ToggleShowCompleted hides or shows completed todos.
func (m *Model) ToggleShowCompleted() tea.Cmd {
	m.showCompleted = !m.showCompleted
	return m.rebuild()
}

// ShowCompleted reports whether completed todos are visible.
func (m Model) ShowCompleted() bool { return m.showCompleted }

// Update handles messages for the tree view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Collapse):
			return m, m.ToggleCollapsed()
		case key.Matches(msg, m.keys.HideCompleted):
			return m, m.ToggleShowCompleted()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the tree.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.forest.Len() > 0 && !m.showCompleted {
		return style.Render("Everything is done.\nPress . to show completed todos.")
	}
	return style.Render("No todos yet.\n\nPress a to add one.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}

// rebuild flattens the forest into list items honoring folds and the
// completed filter.
func (m *Model) rebuild() tea.Cmd {
	prevID := int64(-1)
	if todo, ok := m.Selected(); ok {
		prevID = todo.ID
	}
	prevIndex := m.list.Index()

	rows := m.visibleRows()
	guides := guidePrefixes(rows)
	items := make([]list.Item, len(rows))
	for i, r := range rows {
		done, total := m.forest.Progress(r.Todo.ID)
		items[i] = Item{
			Row:       r,
			Done:      done,
			Total:     total,
			Collapsed: m.collapsed[r.Todo.ID],
			guides:    guides[i],
		}
	}

	cmd := m.list.SetItems(items)
	if !m.selectID(prevID) && len(items) > 0 {
		if prevIndex >= len(items) {
			prevIndex = len(items) - 1
		}
		if prevIndex < 0 {
			prevIndex = 0
		}
		m.list.Select(prevIndex)
	}
	return cmd
}

// visibleRows walks the forest, dropping completed subtrees when they are
// hidden. A completed node's descendants are all completed, so skipping the
// subtree loses nothing. Index and Last are recomputed over what remains.
func (m *Model) visibleRows() []model.Row {
	all := m.forest.Flatten(m.collapsed)
	if m.showCompleted {
		return all
	}

	rows := make([]model.Row, 0, len(all))
	skipBelow := -1
	for _, r := range all {
		if skipBelow >= 0 {
			if r.Depth > skipBelow {
				continue
			}
			skipBelow = -1
		}
		if r.Todo.Completed {
			skipBelow = r.Depth
			continue
		}
		rows = append(rows, r)
	}
	return relabel(rows)
}

// relabel recomputes Index and Last after rows were removed.
func relabel(rows []model.Row) []model.Row {
	for i := range rows {
		rows[i].Index = 0
		rows[i].Last = true
	}
	// lastAt[d] is the index of the latest row seen at depth d.
	lastAt := map[int]int{}
	for i, r := range rows {
		if j, ok := lastAt[r.Depth]; ok {
			rows[j].Last = false
			rows[i].Index = rows[j].Index + 1
		}
		lastAt[r.Depth] = i
		// A shallower row closes every deeper group.
		for d := range lastAt {
			if d > r.Depth {
				delete(lastAt, d)
			}
		}
	}
	return rows
}

func (m *Model) selectID(id int64) bool {
	for i, li := range m.list.Items() {
		if it, ok := li.(Item); ok && it.ID() == id {
			m.list.Select(i)
			return true
		}
	}
	return false
}
