package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SetTodoCount arms, re-arms or clears a countdown.
//
// A positive target sets target and current to the same value and reopens
// the todo with the full cascade, undoing an earlier exhaustion. nil or 0
// clears the countdown and leaves completion alone. A missing id is a no-op.
func (s *SQLiteStore) SetTodoCount(ctx context.Context, id int64, target *int) error {
	if target != nil && *target < 0 {
		return fmt.Errorf("setting count %d on todo %d: %w", *target, id, ErrInvalidCount)
	}
	armed := target != nil && *target > 0

	err := s.withTx(ctx, "set count", func(tx *sqlx.Tx) error {
		forest, err := loadForest(ctx, tx)
		if err != nil {
			return err
		}
		if !forest.Has(id) {
			return nil
		}

		if !armed {
			_, err := tx.ExecContext(ctx,
				"UPDATE todos SET target_count = NULL, current_count = 0 WHERE id = ?", id)
			if err != nil {
				return fmt.Errorf("clearing count on todo %d: %w", id, err)
			}
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE todos SET target_count = ?, current_count = ? WHERE id = ?",
			*target, *target, id); err != nil {
			return fmt.Errorf("setting count on todo %d: %w", id, err)
		}
		return s.cascade(ctx, tx, newCompletionState(forest), id, false)
	})
	if err != nil {
		return err
	}

	if armed {
		s.logger.Debug("armed countdown", "id", id, "target", *target)
	} else {
		s.logger.Debug("cleared countdown", "id", id)
	}
	return nil
}

// DecrementTodo counts a countdown todo down by one, never below zero.
// Reaching zero completes the todo with the full cascade. Todos without a
// countdown and missing ids are left unchanged.
func (s *SQLiteStore) DecrementTodo(ctx context.Context, id int64) error {
	remaining := -1
	err := s.withTx(ctx, "decrement", func(tx *sqlx.Tx) error {
		forest, err := loadForest(ctx, tx)
		if err != nil {
			return err
		}
		node, ok := forest.Node(id)
		if !ok || !node.HasCounter() {
			return nil
		}

		remaining = node.CurrentCount - 1
		if remaining < 0 {
			remaining = 0
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE todos SET current_count = ? WHERE id = ?", remaining, id); err != nil {
			return fmt.Errorf("decrementing todo %d: %w", id, err)
		}
		if remaining > 0 {
			return nil
		}
		return s.cascade(ctx, tx, newCompletionState(forest), id, true)
	})
	if err != nil {
		return err
	}

	if remaining >= 0 {
		s.logger.Debug("decremented todo", "id", id, "remaining", remaining)
	}
	return nil
}
