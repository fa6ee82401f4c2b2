package app

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(input string) tea.Cmd {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil
	}
	name := fields[0]
	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), name))

	switch name {
	case "add":
		if arg == "" {
			m.setError("usage: add TEXT")
			return nil
		}
		return m.createTodo(arg, nil, nil)
	case "reset":
		return m.resetAll()
	case "refresh":
		return tea.Batch(m.loadTodos(), m.loadNote())
	case "quit", "q":
		return m.quit()
	case "note":
		m.currentView = ViewNote
		return nil
	case "hide":
		if m.tree.ShowCompleted() {
			return m.tree.ToggleShowCompleted()
		}
		return nil
	case "show":
		if !m.tree.ShowCompleted() {
			return m.tree.ToggleShowCompleted()
		}
		return nil
	case "toggle":
		return m.tree.ToggleShowCompleted()
	case "expand":
		return m.tree.SetAllCollapsed(false)
	case "collapse":
		return m.tree.SetAllCollapsed(true)
	case "count", "dec", "done", "undo":
		return m.executeOnSelection(name, arg)
	default:
		m.setError("unknown command: " + name)
		return nil
	}
}

// executeOnSelection runs the palette commands that act on the selected todo.
func (m *Model) executeOnSelection(name, arg string) tea.Cmd {
	sel, ok := m.tree.Selected()
	if !ok {
		m.setError(name + ": no todo selected")
		return nil
	}

	switch name {
	case "dec":
		return m.decrement(sel.ID)
	case "done":
		return m.setCompleted(sel.ID, true)
	case "undo":
		return m.setCompleted(sel.ID, false)
	}

	// count N | count clear
	if arg == "clear" || arg == "" {
		return m.setCount(sel.ID, nil)
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		m.setError("usage: count N | count clear")
		return nil
	}
	return m.setCount(sel.ID, &n)
}
