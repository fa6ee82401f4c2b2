package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/nhle/stickies/internal/model"
	"github.com/nhle/stickies/internal/store"
	"github.com/nhle/stickies/tests/testutil"
)

func TestCreateTodo_RoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)

	id := testutil.MustCreate(t, s, "buy milk", nil)
	if id <= 0 {
		t.Fatalf("id = %d, want positive", id)
	}

	got := testutil.Get(t, s, id)
	if got.Text != "buy milk" {
		t.Errorf("Text = %q, want %q", got.Text, "buy milk")
	}
	if got.Completed {
		t.Error("new todo should not be completed")
	}
	if got.ParentID != nil {
		t.Errorf("ParentID = %v, want nil", *got.ParentID)
	}
	if got.HasCounter() {
		t.Error("new todo should not have a countdown")
	}
}

func TestCreateTodo_PositionsAreDense(t *testing.T) {
	s := testutil.NewTestStore(t)

	parent := testutil.MustCreate(t, s, "parent", nil)

	var roots, kids []int64
	for i := 0; i < 5; i++ {
		roots = append(roots, testutil.MustCreate(t, s, fmt.Sprintf("root %d", i), nil))
		kids = append(kids, testutil.MustCreate(t, s, fmt.Sprintf("kid %d", i), &parent))
	}

	snap := testutil.Snapshot(t, s)
	for i, id := range roots {
		// parent itself holds root position 0.
		if got := snap[id].Position; got != i+1 {
			t.Errorf("root %d position = %d, want %d", i, got, i+1)
		}
	}
	for i, id := range kids {
		if got := snap[id].Position; got != i {
			t.Errorf("kid %d position = %d, want %d", i, got, i)
		}
	}
	testutil.CheckInvariants(t, s)
}

func TestCreateTodo_DuplicateTextAllowed(t *testing.T) {
	s := testutil.NewTestStore(t)

	a := testutil.MustCreate(t, s, "same", nil)
	b := testutil.MustCreate(t, s, "same", nil)
	if a == b {
		t.Fatalf("duplicate text reused id %d", a)
	}
}

func TestCreateTodo_Rejects(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateTodo(ctx, "   ", nil); !errors.Is(err, store.ErrEmptyText) {
		t.Errorf("blank text: got %v, want ErrEmptyText", err)
	}

	missing := int64(999)
	_, err := s.CreateTodo(ctx, "orphan", &missing)
	if !errors.Is(err, store.ErrInvalidParent) {
		t.Errorf("missing parent: got %v, want ErrInvalidParent", err)
	}
	if !errors.Is(err, store.ErrInvariant) {
		t.Errorf("missing parent should be an invariant violation, got %v", err)
	}

	if n := len(testutil.Snapshot(t, s)); n != 0 {
		t.Errorf("rejected creates left %d rows", n)
	}
}

func TestCreateTodo_ReopensCompletedParent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	root := testutil.MustCreate(t, s, "root", nil)
	parent := testutil.MustCreate(t, s, "parent", &root)
	testutil.MustCreate(t, s, "done child", &parent)

	if err := s.SetTodoCompleted(ctx, root, true); err != nil {
		t.Fatalf("SetTodoCompleted: %v", err)
	}

	testutil.MustCreate(t, s, "new child", &parent)

	snap := testutil.Snapshot(t, s)
	if snap[parent].Completed || snap[root].Completed {
		t.Errorf("parent=%v root=%v, want both reopened", snap[parent].Completed, snap[root].Completed)
	}
	testutil.CheckInvariants(t, s)
}

func TestGetTodos_Ordering(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	a := testutil.MustCreate(t, s, "a", nil)
	b := testutil.MustCreate(t, s, "b", nil)
	testutil.MustCreate(t, s, "b1", &b)
	testutil.MustCreate(t, s, "a1", &a)
	testutil.MustCreate(t, s, "a2", &a)

	if err := s.MoveTodo(ctx, b, nil, 0); err != nil {
		t.Fatalf("MoveTodo: %v", err)
	}

	todos, err := s.GetTodos(ctx)
	if err != nil {
		t.Fatalf("GetTodos: %v", err)
	}
	var texts []string
	for _, td := range model.NewForest(todos).Flatten(nil) {
		texts = append(texts, td.Todo.Text)
	}
	want := []string{"b", "b1", "a", "a1", "a2"}
	if fmt.Sprint(texts) != fmt.Sprint(want) {
		t.Errorf("flattened = %v, want %v", texts, want)
	}

	// Roots come first and each group is sorted by position.
	if todos[0].ParentID != nil || todos[1].ParentID != nil {
		t.Errorf("first rows should be roots, got %+v %+v", todos[0], todos[1])
	}
	if todos[0].Text != "b" || todos[1].Text != "a" {
		t.Errorf("root order = %q,%q, want b,a", todos[0].Text, todos[1].Text)
	}
}

func TestGetTodoByID_NotFound(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.GetTodoByID(context.Background(), 42)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestUpdateTodoText(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	id := testutil.MustCreate(t, s, "draft", nil)
	if err := s.UpdateTodoText(ctx, id, "final"); err != nil {
		t.Fatalf("UpdateTodoText: %v", err)
	}
	if got := testutil.Get(t, s, id).Text; got != "final" {
		t.Errorf("Text = %q, want %q", got, "final")
	}

	if err := s.UpdateTodoText(ctx, 999, "ghost"); err != nil {
		t.Errorf("missing id should be a no-op, got %v", err)
	}
	if err := s.UpdateTodoText(ctx, id, ""); !errors.Is(err, store.ErrEmptyText) {
		t.Errorf("empty text: got %v, want ErrEmptyText", err)
	}
}

func TestDeleteTodo_RemovesSubtree(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	a := testutil.MustCreate(t, s, "a", nil)
	b := testutil.MustCreate(t, s, "b", &a)
	c := testutil.MustCreate(t, s, "c", &b)
	keep := testutil.MustCreate(t, s, "keep", nil)

	if err := s.DeleteTodo(ctx, a); err != nil {
		t.Fatalf("DeleteTodo: %v", err)
	}

	snap := testutil.Snapshot(t, s)
	for _, id := range []int64{a, b, c} {
		if _, ok := snap[id]; ok {
			t.Errorf("todo %d survived delete", id)
		}
	}
	if _, ok := snap[keep]; !ok {
		t.Fatal("unrelated todo was deleted")
	}
	testutil.CheckInvariants(t, s)
}

func TestDeleteTodo_CompactsSiblings(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	var ids []int64
	for _, text := range []string{"a", "b", "c", "d"} {
		ids = append(ids, testutil.MustCreate(t, s, text, nil))
	}

	if err := s.DeleteTodo(ctx, ids[1]); err != nil {
		t.Fatalf("DeleteTodo: %v", err)
	}

	snap := testutil.Snapshot(t, s)
	want := map[int64]int{ids[0]: 0, ids[2]: 1, ids[3]: 2}
	for id, pos := range want {
		if snap[id].Position != pos {
			t.Errorf("todo %q position = %d, want %d", snap[id].Text, snap[id].Position, pos)
		}
	}

	// Appending after a delete continues the dense sequence.
	e := testutil.MustCreate(t, s, "e", nil)
	if got := testutil.Get(t, s, e).Position; got != 3 {
		t.Errorf("new todo position = %d, want 3", got)
	}
	testutil.CheckInvariants(t, s)
}

func TestDeleteTodo_MissingIsNoop(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	id := testutil.MustCreate(t, s, "a", nil)
	if err := s.DeleteTodo(ctx, id); err != nil {
		t.Fatalf("DeleteTodo: %v", err)
	}
	if err := s.DeleteTodo(ctx, id); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
}

func TestIDsAreNeverReused(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	a := testutil.MustCreate(t, s, "a", nil)
	if err := s.DeleteTodo(ctx, a); err != nil {
		t.Fatalf("DeleteTodo: %v", err)
	}
	b := testutil.MustCreate(t, s, "b", nil)
	if b == a {
		t.Errorf("id %d was reused", a)
	}
}

func TestResetAllTodos(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	a := testutil.MustCreate(t, s, "a", nil)
	b := testutil.MustCreate(t, s, "b", &a)
	c := testutil.MustCreate(t, s, "c", nil)

	if err := s.SetTodoCount(ctx, c, model.IntPtr(2)); err != nil {
		t.Fatalf("SetTodoCount: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.DecrementTodo(ctx, c); err != nil {
			t.Fatalf("DecrementTodo: %v", err)
		}
	}
	if err := s.SetTodoCompleted(ctx, a, true); err != nil {
		t.Fatalf("SetTodoCompleted: %v", err)
	}

	if err := s.ResetAllTodos(ctx); err != nil {
		t.Fatalf("ResetAllTodos: %v", err)
	}

	snap := testutil.Snapshot(t, s)
	for _, id := range []int64{a, b, c} {
		if snap[id].Completed {
			t.Errorf("todo %q still completed after reset", snap[id].Text)
		}
	}
	if snap[c].CurrentCount != 2 {
		t.Errorf("counter = %d, want re-armed to 2", snap[c].CurrentCount)
	}
	if snap[b].ParentID == nil || *snap[b].ParentID != a {
		t.Error("reset must not change structure")
	}
}

func TestStats(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	a := testutil.MustCreate(t, s, "a", nil)
	testutil.MustCreate(t, s, "b", nil)
	c := testutil.MustCreate(t, s, "c", nil)
	if err := s.SetTodoCompleted(ctx, a, true); err != nil {
		t.Fatalf("SetTodoCompleted: %v", err)
	}
	if err := s.SetTodoCount(ctx, c, model.IntPtr(3)); err != nil {
		t.Fatalf("SetTodoCount: %v", err)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := model.Stats{Total: 3, Completed: 1, Counters: 1}
	if st != want {
		t.Errorf("Stats = %+v, want %+v", st, want)
	}
}

func TestConcurrentCreatesStayDense(t *testing.T) {
	s := testutil.NewTestStore(t)

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.CreateTodo(context.Background(), fmt.Sprintf("t%d", i), nil); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent create: %v", err)
	}

	if n := len(testutil.Snapshot(t, s)); n != 40 {
		t.Fatalf("got %d todos, want 40", n)
	}
	testutil.CheckInvariants(t, s)
}

func TestCreateTodoWithCount(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	p := testutil.MustCreate(t, s, "p", nil)
	if err := s.SetTodoCompleted(ctx, p, true); err != nil {
		t.Fatalf("SetTodoCompleted: %v", err)
	}

	id, err := s.CreateTodoWithCount(ctx, "squats", &p, model.IntPtr(10))
	if err != nil {
		t.Fatalf("CreateTodoWithCount: %v", err)
	}
	got := testutil.Get(t, s, id)
	if got.TargetCount == nil || *got.TargetCount != 10 || got.CurrentCount != 10 || got.Completed {
		t.Errorf("created = %v/%d completed=%v, want 10/10 open", got.TargetCount, got.CurrentCount, got.Completed)
	}
	if testutil.Get(t, s, p).Completed {
		t.Error("parent should reopen under a new countdown child")
	}

	plain, err := s.CreateTodoWithCount(ctx, "plain", nil, model.IntPtr(0))
	if err != nil {
		t.Fatalf("CreateTodoWithCount zero: %v", err)
	}
	if testutil.Get(t, s, plain).HasCounter() {
		t.Error("count 0 should create a plain todo")
	}
	testutil.CheckInvariants(t, s)
}

func TestCreateTodoWithCount_RejectsWithoutWriting(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.CreateTodoWithCount(ctx, "never", nil, model.IntPtr(-1))
	if !errors.Is(err, store.ErrInvalidCount) {
		t.Errorf("negative count: got %v, want ErrInvalidCount", err)
	}
	missing := int64(42)
	if _, err := s.CreateTodoWithCount(ctx, "lost", &missing, model.IntPtr(3)); !errors.Is(err, store.ErrInvalidParent) {
		t.Errorf("missing parent: got %v, want ErrInvalidParent", err)
	}
	if n := len(testutil.Snapshot(t, s)); n != 0 {
		t.Errorf("rejected creates left %d rows", n)
	}
}
