package todotree

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/stickies/internal/model"
	"github.com/nhle/stickies/internal/theme"
)

// Item wraps one flattened tree row so it can be used in a bubbles/list.
type Item struct {
	Row model.Row

	// Done and Total count completed and all descendants.
	Done, Total int
	Collapsed   bool

	guides string
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Row.Todo.Text }

// ID returns the todo id of the row.
func (i Item) ID() int64 { return i.Row.Todo.ID }

// Checkbox returns the plain-text checkbox for a todo.
func Checkbox(t model.TodoNode) string {
	if t.Completed {
		return "[x]"
	}
	return "[ ]"
}

// CounterLabel returns "current/target" for countdown todos and "" otherwise.
func CounterLabel(t model.TodoNode) string {
	if !t.HasCounter() {
		return ""
	}
	return fmt.Sprintf("%d/%d", t.CurrentCount, *t.TargetCount)
}

// guidePrefixes computes the connector prefix of every row. lasts[d] holds
// whether the most recent row at depth d closed its group.
func guidePrefixes(rows []model.Row) []string {
	out := make([]string, len(rows))
	var lasts []bool
	for i, r := range rows {
		if len(lasts) <= r.Depth {
			lasts = append(lasts, make([]bool, r.Depth+1-len(lasts))...)
		}
		lasts[r.Depth] = r.Last
		if r.Depth == 0 {
			continue
		}

		var b strings.Builder
		for d := 1; d < r.Depth; d++ {
			if lasts[d] {
				b.WriteString("   ")
			} else {
				b.WriteString("│  ")
			}
		}
		if r.Last {
			b.WriteString("└─ ")
		} else {
			b.WriteString("├─ ")
		}
		out[i] = b.String()
	}
	return out
}

// ItemDelegate implements list.ItemDelegate for rendering tree rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single tree row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	todo := it.Row.Todo
	isSelected := index == m.Index()

	guides := theme.GuideStyle.Render(it.guides)
	check := theme.CheckStyle(todo.Completed).Render(Checkbox(todo))

	text := todo.Text
	if todo.Completed {
		text = theme.DimmedStyle.Render(text)
	}

	counter := ""
	if label := CounterLabel(todo); label != "" {
		counter = " " + theme.CounterStyle(todo.CurrentCount, *todo.TargetCount).Render(label)
	}

	progress := ""
	if it.Total > 0 {
		progress = " " + theme.ProgressStyle(it.Done, it.Total).
			Render(fmt.Sprintf("[%d/%d]", it.Done, it.Total))
	}

	fold := ""
	if it.Collapsed {
		fold = lipgloss.NewStyle().Foreground(theme.ColorGray).Render(" …")
	}

	line := fmt.Sprintf("%s%s %s%s%s%s", guides, check, text, counter, progress, fold)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	if width := m.Width(); width > 0 {
		line = lipgloss.NewStyle().MaxWidth(width).Render(line)
	}

	fmt.Fprint(w, line)
}
