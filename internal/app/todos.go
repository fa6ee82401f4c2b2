package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"

	"github.com/nhle/stickies/internal/model"
	"github.com/nhle/stickies/internal/store"
	"github.com/nhle/stickies/internal/ui/todotree"
)

// TodosReloadMsg carries a full snapshot of the todos. It follows every
// mutation, successful or not, so the view never drifts from the store.
type TodosReloadMsg struct {
	// Op names the mutation that triggered the reload; empty for plain loads.
	Op  string
	Err error
	// Focus is the todo to select after the reload, 0 for none.
	Focus int64
	// Seq orders snapshots by the time they were read. Commands finish in
	// any order, so a snapshot older than the one on screen is dropped.
	Seq     uint64
	Todos   []model.TodoNode
	Stats   model.Stats
	LoadErr error
}

// snapshotClock stamps snapshot reads. Holding mu across the read and the
// stamp makes a higher Seq always mean a newer view of the store.
type snapshotClock struct {
	mu  sync.Mutex
	seq uint64
}

func (c *snapshotClock) read(ctx context.Context, s store.Store, logger hclog.Logger) TodosReloadMsg {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := reload(ctx, s, logger)
	c.seq++
	msg.Seq = c.seq
	return msg
}

// NoteLoadedMsg carries the stored note.
type NoteLoadedMsg struct {
	Content string
	Err     error
}

// noteSavedResultMsg is sent after the note is persisted.
type noteSavedResultMsg struct{ Err error }

// mutate runs fn against the store and then reloads the full list. fn returns
// the id to focus afterwards.
func (m Model) mutate(op string, fn func(ctx context.Context, s store.Store) (int64, error)) tea.Cmd {
	s, logger, clock := m.store, m.logger, m.clock
	return func() tea.Msg {
		ctx := context.Background()
		focus, err := fn(ctx, s)
		if err != nil {
			logger.Error("todo mutation failed", "op", op, "error", err)
		}
		msg := clock.read(ctx, s, logger)
		msg.Op = op
		msg.Err = err
		msg.Focus = focus
		return msg
	}
}

func reload(ctx context.Context, s store.Store, logger hclog.Logger) TodosReloadMsg {
	todos, err := s.GetTodos(ctx)
	if err != nil {
		logger.Error("loading todos", "error", err)
		return TodosReloadMsg{LoadErr: err}
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		logger.Warn("loading stats", "error", err)
	}
	return TodosReloadMsg{Todos: todos, Stats: stats}
}

// loadTodos reads the full list.
func (m Model) loadTodos() tea.Cmd {
	s, logger, clock := m.store, m.logger, m.clock
	return func() tea.Msg {
		return clock.read(context.Background(), s, logger)
	}
}

// createTodo adds a todo and, when count is positive, starts its countdown.
func (m Model) createTodo(text string, parentID *int64, count *int) tea.Cmd {
	return m.mutate("add", func(ctx context.Context, s store.Store) (int64, error) {
		return s.CreateTodoWithCount(ctx, text, parentID, count)
	})
}

func (m Model) updateText(id int64, text string) tea.Cmd {
	return m.mutate("edit", func(ctx context.Context, s store.Store) (int64, error) {
		return id, s.UpdateTodoText(ctx, id, text)
	})
}

func (m Model) setCompleted(id int64, completed bool) tea.Cmd {
	op := "check"
	if !completed {
		op = "uncheck"
	}
	return m.mutate(op, func(ctx context.Context, s store.Store) (int64, error) {
		return id, s.SetTodoCompleted(ctx, id, completed)
	})
}

func (m Model) deleteTodo(id int64) tea.Cmd {
	return m.mutate("delete", func(ctx context.Context, s store.Store) (int64, error) {
		return 0, s.DeleteTodo(ctx, id)
	})
}

// moveBy computes a target with one of the todotree move helpers and applies
// it. Moves that have nowhere to go are ignored.
func (m Model) moveBy(move func(*model.Forest, int64) (todotree.Target, bool), id int64) tea.Cmd {
	target, ok := move(m.tree.Forest(), id)
	if !ok {
		return nil
	}
	return m.moveTodo(id, target.ParentID, target.Position)
}

func (m Model) moveTodo(id int64, parentID *int64, position int) tea.Cmd {
	return m.mutate("move", func(ctx context.Context, s store.Store) (int64, error) {
		return id, s.MoveTodo(ctx, id, parentID, position)
	})
}

func (m Model) setCount(id int64, count *int) tea.Cmd {
	return m.mutate("count", func(ctx context.Context, s store.Store) (int64, error) {
		return id, s.SetTodoCount(ctx, id, count)
	})
}

func (m Model) decrement(id int64) tea.Cmd {
	return m.mutate("count down", func(ctx context.Context, s store.Store) (int64, error) {
		return id, s.DecrementTodo(ctx, id)
	})
}

func (m Model) resetAll() tea.Cmd {
	return m.mutate("reset", func(ctx context.Context, s store.Store) (int64, error) {
		return 0, s.ResetAllTodos(ctx)
	})
}

// loadNote reads the note. A failed read yields an empty note.
func (m Model) loadNote() tea.Cmd {
	s, logger := m.store, m.logger
	return func() tea.Msg {
		content, err := s.GetNote(context.Background())
		if err != nil {
			logger.Error("loading note", "error", err)
			return NoteLoadedMsg{Err: err}
		}
		return NoteLoadedMsg{Content: content}
	}
}

func (m Model) saveNote(content string) tea.Cmd {
	s, logger := m.store, m.logger
	return func() tea.Msg {
		err := s.SaveNote(context.Background(), content)
		if err != nil {
			logger.Error("saving note", "error", err)
		}
		return noteSavedResultMsg{Err: err}
	}
}

// describe turns a mutation error into a status bar message.
func describe(op string, err error) string {
	switch {
	case errors.Is(err, store.ErrCycle):
		return "can't move a todo under itself"
	case errors.Is(err, store.ErrEmptyText):
		return "todo text can't be empty"
	case errors.Is(err, store.ErrInvariant):
		return fmt.Sprintf("%s rejected: %v", op, err)
	default:
		return fmt.Sprintf("%s failed: %v", op, err)
	}
}
