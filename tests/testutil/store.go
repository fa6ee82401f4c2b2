package testutil

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/nhle/stickies/internal/model"
	"github.com/nhle/stickies/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// MustCreate adds a todo and fails the test on error.
func MustCreate(t *testing.T, s store.Store, text string, parentID *int64) int64 {
	t.Helper()

	id, err := s.CreateTodo(context.Background(), text, parentID)
	if err != nil {
		t.Fatalf("creating todo %q: %v", text, err)
	}
	return id
}

// Snapshot reads the full list and returns it keyed by id.
func Snapshot(t *testing.T, s store.Store) map[int64]model.TodoNode {
	t.Helper()

	todos, err := s.GetTodos(context.Background())
	if err != nil {
		t.Fatalf("loading todos: %v", err)
	}
	out := make(map[int64]model.TodoNode, len(todos))
	for _, td := range todos {
		out[td.ID] = td
	}
	return out
}

// Get returns one todo from a fresh snapshot.
func Get(t *testing.T, s store.Store, id int64) model.TodoNode {
	t.Helper()

	td, ok := Snapshot(t, s)[id]
	if !ok {
		t.Fatalf("todo %d not found", id)
	}
	return td
}

// GroupTexts returns the texts of parentID's children in position order.
func GroupTexts(t *testing.T, s store.Store, parentID *int64) []string {
	t.Helper()

	todos, err := s.GetTodos(context.Background())
	if err != nil {
		t.Fatalf("loading todos: %v", err)
	}
	var texts []string
	for _, td := range model.NewForest(todos).Group(parentID) {
		texts = append(texts, td.Text)
	}
	return texts
}

// CheckInvariants fails the test when any sibling group is not exactly
// 0..k-1, when a parent reference dangles, when an exhausted countdown is
// open, or when a non-leaf's completion disagrees with its children.
func CheckInvariants(t *testing.T, s store.Store) {
	t.Helper()

	todos, err := s.GetTodos(context.Background())
	if err != nil {
		t.Fatalf("loading todos: %v", err)
	}
	byID := make(map[int64]model.TodoNode, len(todos))
	for _, td := range todos {
		byID[td.ID] = td
	}

	groups := make(map[string][]int)
	children := make(map[int64][]model.TodoNode)
	for _, td := range todos {
		key := "root"
		if td.ParentID != nil {
			if _, ok := byID[*td.ParentID]; !ok {
				t.Errorf("todo %d has dangling parent %d", td.ID, *td.ParentID)
			}
			key = fmt.Sprint(*td.ParentID)
			children[*td.ParentID] = append(children[*td.ParentID], td)
		}
		groups[key] = append(groups[key], td.Position)
		if td.HasCounter() && (td.CurrentCount < 0 || td.CurrentCount > *td.TargetCount) {
			t.Errorf("todo %d count %d outside [0, %d]", td.ID, td.CurrentCount, *td.TargetCount)
		}
		if td.HasCounter() && td.CurrentCount == 0 && !td.Completed {
			t.Errorf("todo %d countdown is exhausted but open", td.ID)
		}
	}

	for key, positions := range groups {
		sort.Ints(positions)
		for i, p := range positions {
			if p != i {
				t.Errorf("group %s positions = %v, want 0..%d", key, positions, len(positions)-1)
				break
			}
		}
	}

	for pid, kids := range children {
		want := true
		for _, k := range kids {
			want = want && k.Completed
		}
		if byID[pid].Completed != want {
			t.Errorf("todo %d completed = %v, children say %v", pid, byID[pid].Completed, want)
		}
	}
}
