package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/stickies/internal/model"
)

// completionState overlays pending completion writes on a forest snapshot so
// the upward walk sees values written earlier in the same transaction.
type completionState struct {
	forest *model.Forest
	values map[int64]bool
}

func newCompletionState(f *model.Forest) *completionState {
	return &completionState{forest: f, values: make(map[int64]bool)}
}

func (c *completionState) completed(id int64) bool {
	if v, ok := c.values[id]; ok {
		return v
	}
	t, _ := c.forest.Node(id)
	return t.Completed
}

func (c *completionState) set(ids []int64, v bool) {
	for _, id := range ids {
		c.values[id] = v
	}
}

func (c *completionState) parent(id int64) *int64 {
	t, ok := c.forest.Node(id)
	if !ok {
		return nil
	}
	return t.ParentID
}

// SetTodoCompleted sets id and all of its descendants to completed, then
// re-derives every ancestor from its children. Reopened countdowns that had
// reached zero start over at their target. A missing id is a no-op.
func (s *SQLiteStore) SetTodoCompleted(ctx context.Context, id int64, completed bool) error {
	err := s.withTx(ctx, "set completed", func(tx *sqlx.Tx) error {
		forest, err := loadForest(ctx, tx)
		if err != nil {
			return err
		}
		if !forest.Has(id) {
			return nil
		}
		return s.cascade(ctx, tx, newCompletionState(forest), id, completed)
	})
	if err != nil {
		return err
	}
	s.logger.Debug("set todo completed", "id", id, "completed", completed)
	return nil
}

// cascade forces completed on id and its subtree, then walks up.
func (s *SQLiteStore) cascade(
	ctx context.Context,
	tx *sqlx.Tx,
	state *completionState,
	id int64,
	completed bool,
) error {
	ids := append([]int64{id}, state.forest.Descendants(id)...)
	if err := writeCompleted(ctx, tx, ids, completed); err != nil {
		return err
	}
	state.set(ids, completed)
	return s.propagateUp(ctx, tx, state, state.parent(id))
}

// propagateUp recomputes completion for start and each of its ancestors:
// a node with children is complete iff every child is. A childless node
// keeps its stored value. The walk always runs to the root.
func (s *SQLiteStore) propagateUp(
	ctx context.Context,
	tx *sqlx.Tx,
	state *completionState,
	start *int64,
) error {
	seen := make(map[int64]bool)
	for cur := start; cur != nil; cur = state.parent(*cur) {
		id := *cur
		if seen[id] || !state.forest.Has(id) {
			return nil
		}
		seen[id] = true

		children := state.forest.ChildIDs(id)
		if len(children) == 0 {
			continue
		}
		want := true
		for _, c := range children {
			if !state.completed(c) {
				want = false
				break
			}
		}
		if want == state.completed(id) {
			continue
		}
		if err := writeCompleted(ctx, tx, []int64{id}, want); err != nil {
			return err
		}
		state.set([]int64{id}, want)
		s.logger.Trace("recomputed ancestor", "id", id, "completed", want)
	}
	return nil
}

// writeCompleted stores completed for ids. Reopening also re-arms any
// exhausted countdown among them, since a count of zero means done.
func writeCompleted(ctx context.Context, tx *sqlx.Tx, ids []int64, completed bool) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`
		UPDATE todos SET
			completed = ?,
			current_count = CASE
				WHEN ? = 0 AND target_count IS NOT NULL AND current_count = 0 THEN target_count
				ELSE current_count
			END
		WHERE id IN (?)`, boolToInt(completed), boolToInt(completed), ids)
	if err != nil {
		return fmt.Errorf("building completion update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("updating completion of %d todos: %w", len(ids), err)
	}
	return nil
}
