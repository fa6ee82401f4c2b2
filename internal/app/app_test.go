package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/stickies/internal/model"
	"github.com/nhle/stickies/internal/store"
	"github.com/nhle/stickies/internal/ui/command"
	"github.com/nhle/stickies/internal/ui/note"
	"github.com/nhle/stickies/internal/ui/todoform"
	"github.com/nhle/stickies/tests/testutil"
)

func newApp(t *testing.T, s *store.SQLiteStore) Model {
	t.Helper()

	cfg := &model.AppConfig{
		Display: model.DisplayConfig{Theme: "mono", ShowCompleted: true},
	}
	m := New(s, cfg, nil, nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	return exec(t, m, m.Init())
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// exec runs a store command and feeds its result back into the model.
func exec(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c != nil {
				m = update(t, m, c())
			}
		}
		return m
	}
	return update(t, m, msg)
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func selectTodo(t *testing.T, m Model, id int64) Model {
	t.Helper()
	m.tree.Focus(id)
	if sel, ok := m.tree.Selected(); !ok || sel.ID != id {
		t.Fatalf("could not select todo %d", id)
	}
	return m
}

func TestApp_InitLoadsNoteAndTodos(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	parent := testutil.MustCreate(t, s, "groceries", nil)
	testutil.MustCreate(t, s, "milk", &parent)
	if err := s.SaveNote(ctx, "remember the **milk**"); err != nil {
		t.Fatal(err)
	}

	m := newApp(t, s)

	if len(m.tree.Rows()) != 2 {
		t.Errorf("rows = %d, want 2", len(m.tree.Rows()))
	}
	if m.note.Content() != "remember the **milk**" {
		t.Errorf("note = %q", m.note.Content())
	}
	if m.stats.Total != 2 {
		t.Errorf("stats total = %d, want 2", m.stats.Total)
	}
	view := m.View()
	for _, want := range []string{"Stickies", "0/2 done", "groceries", "milk"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestApp_ToggleCascadesToParent(t *testing.T) {
	s := testutil.NewTestStore(t)
	parent := testutil.MustCreate(t, s, "groceries", nil)
	child := testutil.MustCreate(t, s, "milk", &parent)

	m := selectTodo(t, newApp(t, s), child)
	m, cmd := press(t, m, " ")
	m = exec(t, m, cmd)

	if !testutil.Get(t, s, parent).Completed {
		t.Error("parent should complete with its only child")
	}
	if m.stats.Completed != 2 {
		t.Errorf("stats completed = %d, want 2", m.stats.Completed)
	}
	if sel, _ := m.tree.Selected(); sel.ID != child {
		t.Errorf("selection moved to %d", sel.ID)
	}

	m, cmd = press(t, m, "x")
	exec(t, m, cmd)
	if testutil.Get(t, s, parent).Completed {
		t.Error("unchecking the child should reopen the parent")
	}
}

func TestApp_MoveKeys(t *testing.T) {
	s := testutil.NewTestStore(t)
	a := testutil.MustCreate(t, s, "a", nil)
	b := testutil.MustCreate(t, s, "b", nil)
	testutil.MustCreate(t, s, "c", nil)

	m := selectTodo(t, newApp(t, s), b)

	m, cmd := press(t, m, "K")
	m = exec(t, m, cmd)
	if got := testutil.GroupTexts(t, s, nil); strings.Join(got, "") != "bac" {
		t.Errorf("after K roots = %v", got)
	}

	m, cmd = press(t, m, "J")
	m = exec(t, m, cmd)
	m, cmd = press(t, m, "J")
	m = exec(t, m, cmd)
	if got := testutil.GroupTexts(t, s, nil); strings.Join(got, "") != "acb" {
		t.Errorf("after J J roots = %v", got)
	}

	// b is last; there is nothing below it.
	if _, cmd = press(t, m, "J"); cmd != nil {
		t.Error("moving the last todo down should do nothing")
	}

	m = selectTodo(t, m, b)
	m, cmd = press(t, m, "L")
	m = exec(t, m, cmd)
	if got := testutil.GroupTexts(t, s, model.Int64Ptr(3)); strings.Join(got, "") != "b" {
		t.Errorf("after L children of c = %v", got)
	}

	m, cmd = press(t, m, "H")
	exec(t, m, cmd)
	if got := testutil.GroupTexts(t, s, nil); strings.Join(got, "") != "acb" {
		t.Errorf("after H roots = %v", got)
	}
	if testutil.Get(t, s, a).Position != 0 {
		t.Error("a should stay first")
	}
	testutil.CheckInvariants(t, s)
}

func TestApp_DeleteKey(t *testing.T) {
	s := testutil.NewTestStore(t)
	a := testutil.MustCreate(t, s, "a", nil)
	testutil.MustCreate(t, s, "a1", &a)
	testutil.MustCreate(t, s, "b", nil)

	m := selectTodo(t, newApp(t, s), a)
	m, cmd := press(t, m, "d")
	m = exec(t, m, cmd)

	if got := testutil.GroupTexts(t, s, nil); strings.Join(got, "") != "b" {
		t.Errorf("roots = %v, want [b]", got)
	}
	if len(m.tree.Rows()) != 1 {
		t.Errorf("rows = %d, want 1", len(m.tree.Rows()))
	}
	testutil.CheckInvariants(t, s)
}

func TestApp_PaletteCountdown(t *testing.T) {
	s := testutil.NewTestStore(t)
	id := testutil.MustCreate(t, s, "pushups", nil)
	m := selectTodo(t, newApp(t, s), id)

	run := func(input string) {
		t.Helper()
		next, cmd := m.Update(command.CommandMsg(input))
		m = exec(t, next.(Model), cmd)
	}

	run("count 3")
	if td := testutil.Get(t, s, id); td.TargetCount == nil || *td.TargetCount != 3 || td.CurrentCount != 3 {
		t.Fatalf("after count 3: %+v", td)
	}
	run("dec")
	if td := testutil.Get(t, s, id); td.CurrentCount != 2 {
		t.Errorf("after dec current = %d, want 2", td.CurrentCount)
	}
	run("count clear")
	if td := testutil.Get(t, s, id); td.HasCounter() {
		t.Errorf("count clear left %+v", td)
	}
	run("done")
	if !testutil.Get(t, s, id).Completed {
		t.Error("done should complete the selection")
	}
	run("reset")
	if testutil.Get(t, s, id).Completed {
		t.Error("reset should reopen everything")
	}
	run("add stretch")
	if got := testutil.GroupTexts(t, s, nil); strings.Join(got, ",") != "pushups,stretch" {
		t.Errorf("roots = %v", got)
	}
}

func TestApp_PaletteErrors(t *testing.T) {
	s := testutil.NewTestStore(t)
	m := newApp(t, s)

	next, cmd := m.Update(command.CommandMsg("frobnicate"))
	m = next.(Model)
	if cmd != nil || !m.statusErr || !strings.Contains(m.status, "unknown command") {
		t.Errorf("status = %q err=%v", m.status, m.statusErr)
	}

	next, _ = m.Update(command.CommandMsg("dec"))
	m = next.(Model)
	if !strings.Contains(m.status, "no todo selected") {
		t.Errorf("status = %q", m.status)
	}

	// esc clears the message.
	m, _ = press(t, m, "esc")
	if m.status != "" {
		t.Errorf("status after esc = %q", m.status)
	}
}

func TestApp_FormSubmit(t *testing.T) {
	s := testutil.NewTestStore(t)
	parent := testutil.MustCreate(t, s, "week", nil)
	m := newApp(t, s)

	next, cmd := m.Update(todoform.SubmittedMsg{
		Mode:     todoform.ModeCreate,
		ParentID: &parent,
		Text:     "run",
		Count:    model.IntPtr(3),
	})
	m = exec(t, next.(Model), cmd)

	kids := testutil.GroupTexts(t, s, &parent)
	if len(kids) != 1 || kids[0] != "run" {
		t.Fatalf("children = %v", kids)
	}
	sel, ok := m.tree.Selected()
	if !ok || sel.Text != "run" || sel.TargetCount == nil || *sel.TargetCount != 3 {
		t.Errorf("selected = %+v", sel)
	}

	next, cmd = m.Update(todoform.SubmittedMsg{Mode: todoform.ModeEdit, ID: sel.ID, Text: "jog"})
	exec(t, next.(Model), cmd)
	if testutil.Get(t, s, sel.ID).Text != "jog" {
		t.Error("edit did not rename the todo")
	}
}

func TestApp_NoteSave(t *testing.T) {
	s := testutil.NewTestStore(t)
	m := newApp(t, s)

	m, cmd := press(t, m, "n")
	if m.currentView != ViewNote || !m.note.Editing() || cmd == nil {
		t.Fatalf("n should open the note editor, view=%v", m.currentView)
	}

	next, cmd := m.Update(note.SavedMsg{Content: "# Today\n\n- ship it"})
	m = exec(t, next.(Model), cmd)

	if m.currentView != ViewTree {
		t.Errorf("view = %v, want tree", m.currentView)
	}
	got, err := s.GetNote(context.Background())
	if err != nil || got != "# Today\n\n- ship it" {
		t.Errorf("stored note = %q, %v", got, err)
	}
	if !strings.Contains(m.View(), "ship it") {
		t.Error("note panel should show the saved note")
	}
}

func TestApp_MutationErrorShowsInStatus(t *testing.T) {
	s := testutil.NewTestStore(t)
	a := testutil.MustCreate(t, s, "a", nil)
	a1 := testutil.MustCreate(t, s, "a1", &a)
	m := newApp(t, s)

	m = exec(t, m, m.moveTodo(a, &a1, 0))

	if !m.statusErr || !strings.Contains(m.status, "under itself") {
		t.Errorf("status = %q err=%v", m.status, m.statusErr)
	}
	if len(m.tree.Rows()) != 2 {
		t.Error("the list should still be reloaded after a failed move")
	}
}

func TestApp_Quit(t *testing.T) {
	m := newApp(t, testutil.NewTestStore(t))
	_, cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestApp_StaleReloadIsDropped(t *testing.T) {
	s := testutil.NewTestStore(t)
	testutil.MustCreate(t, s, "first", nil)
	m := newApp(t, s)

	older := m.loadTodos()()
	testutil.MustCreate(t, s, "second", nil)
	newer := m.loadTodos()()

	// Delivered out of order: the newer snapshot wins.
	m = update(t, m, newer)
	m = update(t, m, older)
	if n := m.tree.Forest().Len(); n != 2 {
		t.Errorf("tree holds %d todos after a stale reload, want 2", n)
	}
	if m.stats.Total != 2 {
		t.Errorf("stats total = %d, want 2", m.stats.Total)
	}

	// A stale reload still reports the error of the mutation behind it.
	stale := older.(TodosReloadMsg)
	stale.Op, stale.Err = "delete", errors.New("disk full")
	m = update(t, m, stale)
	if !m.statusErr || m.tree.Forest().Len() != 2 {
		t.Errorf("status=%q err=%v len=%d", m.status, m.statusErr, m.tree.Forest().Len())
	}
}
