package store

import (
	"context"
	"errors"

	"github.com/nhle/stickies/internal/model"
)

// ErrInvariant is the parent of every error that rejects a mutation because
// it would break the shape of the todo forest. Check with errors.Is.
var ErrInvariant = errors.New("todo invariant violation")

var (
	// ErrCycle is returned when a move would place a node under itself or
	// one of its descendants.
	ErrCycle = invariantError("move would create a cycle")

	// ErrPositionOutOfRange is returned when a move targets an index outside
	// [0, len(target group)].
	ErrPositionOutOfRange = invariantError("position out of range")

	// ErrInvalidParent is returned when a create or move names a parent that
	// does not exist.
	ErrInvalidParent = invariantError("parent does not exist")

	// ErrInvalidCount is returned for negative countdown targets.
	ErrInvalidCount = invariantError("count must not be negative")
)

// ErrEmptyText is returned when a todo would be stored with blank text.
var ErrEmptyText = errors.New("todo text must not be empty")

// ErrNotFound is returned by lookups of a single todo. Mutations of a
// missing id are silent no-ops and never return it.
var ErrNotFound = errors.New("todo not found")

type invariantErr struct{ msg string }

func invariantError(msg string) error { return &invariantErr{msg: msg} }

func (e *invariantErr) Error() string        { return e.msg }
func (e *invariantErr) Is(target error) bool { return target == ErrInvariant }

// Store defines the persistence interface for the note and the todo forest.
// Every mutation is atomic; callers re-read the full list afterwards.
type Store interface {
	// === Note ===

	GetNote(ctx context.Context) (string, error)
	SaveNote(ctx context.Context, content string) error

	// === Todo reads ===

	GetTodos(ctx context.Context) ([]model.TodoNode, error)
	GetTodoByID(ctx context.Context, id int64) (*model.TodoNode, error)
	Stats(ctx context.Context) (model.Stats, error)

	// === Todo mutations ===

	CreateTodo(ctx context.Context, text string, parentID *int64) (int64, error)
	CreateTodoWithCount(ctx context.Context, text string, parentID *int64, target *int) (int64, error)
	UpdateTodoText(ctx context.Context, id int64, text string) error
	DeleteTodo(ctx context.Context, id int64) error
	SetTodoCompleted(ctx context.Context, id int64, completed bool) error
	MoveTodo(ctx context.Context, id int64, parentID *int64, position int) error
	SetTodoCount(ctx context.Context, id int64, target *int) error
	DecrementTodo(ctx context.Context, id int64) error
	ResetAllTodos(ctx context.Context) error

	Close() error
}
