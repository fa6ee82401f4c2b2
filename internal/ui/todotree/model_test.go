package todotree

import (
	"fmt"
	"strings"
	"testing"

	"github.com/nhle/stickies/internal/keys"
	"github.com/nhle/stickies/internal/model"
)

func sampleTodos() []model.TodoNode {
	done := func(t model.TodoNode) model.TodoNode { t.Completed = true; return t }
	return []model.TodoNode{
		{ID: 1, Text: "a", Position: 0},
		{ID: 2, Text: "b", Position: 1},
		done(model.TodoNode{ID: 3, Text: "c", Position: 2}),
		{ID: 4, Text: "a1", ParentID: model.Int64Ptr(1), Position: 0},
		done(model.TodoNode{ID: 5, Text: "a2", ParentID: model.Int64Ptr(1), Position: 1}),
		{ID: 6, Text: "a1x", ParentID: model.Int64Ptr(4), Position: 0},
	}
}

func visibleTexts(m Model) string {
	var out []string
	for _, it := range m.Rows() {
		out = append(out, it.Row.Todo.Text)
	}
	return fmt.Sprint(out)
}

func newTree(showCompleted bool) Model {
	m := New(keys.DefaultKeyMap(), showCompleted, 60, 20)
	m.SetTodos(sampleTodos())
	return m
}

func TestModel_RowsInTreeOrder(t *testing.T) {
	m := newTree(true)

	if got := visibleTexts(m); got != "[a a1 a1x a2 b c]" {
		t.Errorf("rows = %s", got)
	}

	rows := m.Rows()
	if rows[0].Done != 1 || rows[0].Total != 3 {
		t.Errorf("progress of a = %d/%d, want 1/3", rows[0].Done, rows[0].Total)
	}
	wantGuides := []string{"", "├─ ", "│  └─ ", "└─ ", "", ""}
	for i, want := range wantGuides {
		if rows[i].guides != want {
			t.Errorf("guides[%d] = %q, want %q", i, rows[i].guides, want)
		}
	}
}

func TestModel_HideCompleted(t *testing.T) {
	m := newTree(false)

	if got := visibleTexts(m); got != "[a a1 a1x b]" {
		t.Errorf("rows = %s", got)
	}
	// a1 is now the only visible child of a.
	if r := m.Rows()[1]; !r.Row.Last || r.guides != "└─ " {
		t.Errorf("a1 last=%v guides=%q, want closing connector", r.Row.Last, r.guides)
	}

	m.ToggleShowCompleted()
	if !m.ShowCompleted() || visibleTexts(m) != "[a a1 a1x a2 b c]" {
		t.Errorf("after toggle rows = %s", visibleTexts(m))
	}
}

func TestModel_CollapseAndFocus(t *testing.T) {
	m := newTree(true)

	m.ToggleCollapsed() // cursor starts on a
	if got := visibleTexts(m); got != "[a b c]" {
		t.Fatalf("collapsed rows = %s", got)
	}
	if !m.Rows()[0].Collapsed {
		t.Error("a should be marked collapsed")
	}

	m.Focus(6)
	if got := visibleTexts(m); got != "[a a1 a1x a2 b c]" {
		t.Errorf("focus should unfold ancestors, rows = %s", got)
	}
	if sel, _ := m.Selected(); sel.ID != 6 {
		t.Errorf("selected = %d, want 6", sel.ID)
	}

	m.SetAllCollapsed(true)
	if got := visibleTexts(m); got != "[a b c]" {
		t.Errorf("collapse all rows = %s", got)
	}
	m.SetAllCollapsed(false)
	if got := visibleTexts(m); got != "[a a1 a1x a2 b c]" {
		t.Errorf("expand all rows = %s", got)
	}
}

func TestModel_SelectionSurvivesReload(t *testing.T) {
	m := newTree(true)
	m.Focus(2)

	// b moves to the front; the cursor follows it.
	todos := sampleTodos()
	todos[0].Position, todos[1].Position = 1, 0
	m.SetTodos(todos)
	if sel, _ := m.Selected(); sel.ID != 2 {
		t.Errorf("selected = %d, want 2", sel.ID)
	}

	// b disappears; the cursor stays at the same index.
	var without []model.TodoNode
	for _, td := range todos {
		if td.ID != 2 {
			without = append(without, td)
		}
	}
	m.SetTodos(without)
	if _, ok := m.Selected(); !ok {
		t.Error("cursor lost after deleting the selected todo")
	}
}

func TestModel_EmptyState(t *testing.T) {
	m := New(keys.DefaultKeyMap(), true, 40, 6)
	m.SetTodos(nil)
	if !strings.Contains(m.View(), "No todos yet") {
		t.Errorf("empty view = %q", m.View())
	}
}

func TestCounterLabel(t *testing.T) {
	plain := model.TodoNode{Text: "x"}
	if CounterLabel(plain) != "" {
		t.Error("plain todo should have no counter label")
	}
	counted := model.TodoNode{Text: "x", TargetCount: model.IntPtr(5), CurrentCount: 2}
	if got := CounterLabel(counted); got != "2/5" {
		t.Errorf("CounterLabel = %q, want 2/5", got)
	}
}
