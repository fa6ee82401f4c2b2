package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// closeGap shifts every sibling after position down by one.
func closeGap(ctx context.Context, tx *sqlx.Tx, id int64, parentID *int64, position int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE todos SET position = position - 1
		WHERE parent_id IS ? AND position > ? AND id <> ?`,
		parentID, position, id,
	)
	if err != nil {
		return fmt.Errorf("closing gap at %v/%d: %w", parentKey(parentID), position, err)
	}
	return nil
}

// openGap shifts every sibling at or after position up by one.
func openGap(ctx context.Context, tx *sqlx.Tx, id int64, parentID *int64, position int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE todos SET position = position + 1
		WHERE parent_id IS ? AND position >= ? AND id <> ?`,
		parentID, position, id,
	)
	if err != nil {
		return fmt.Errorf("opening gap at %v/%d: %w", parentKey(parentID), position, err)
	}
	return nil
}

// MoveTodo reparents and/or reorders a todo. position is the node's final
// index in the target group, so moving within one group never needs caller
// adjustment: the source gap is closed before the destination gap opens.
//
// Moves under the node itself or any of its descendants fail with ErrCycle;
// positions outside [0, len(target group)] fail with ErrPositionOutOfRange.
// A missing id is a no-op.
func (s *SQLiteStore) MoveTodo(ctx context.Context, id int64, parentID *int64, position int) error {
	moved := false
	err := s.withTx(ctx, "move", func(tx *sqlx.Tx) error {
		forest, err := loadForest(ctx, tx)
		if err != nil {
			return err
		}
		node, ok := forest.Node(id)
		if !ok {
			return nil
		}

		if parentID != nil {
			if !forest.Has(*parentID) {
				return fmt.Errorf("moving todo %d under %d: %w", id, *parentID, ErrInvalidParent)
			}
			if forest.IsAncestor(id, *parentID) {
				return fmt.Errorf("moving todo %d under %d: %w", id, *parentID, ErrCycle)
			}
		}

		size := 0
		for _, sib := range forest.Group(parentID) {
			if sib.ID != id {
				size++
			}
		}
		if position < 0 || position > size {
			return fmt.Errorf("moving todo %d to %d of %d: %w", id, position, size, ErrPositionOutOfRange)
		}

		if node.SameParent(parentID) && node.Position == position {
			return nil
		}

		if err := closeGap(ctx, tx, id, node.ParentID, node.Position); err != nil {
			return err
		}
		if err := openGap(ctx, tx, id, parentID, position); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE todos SET parent_id = ?, position = ? WHERE id = ?",
			parentID, position, id); err != nil {
			return fmt.Errorf("moving todo %d: %w", id, err)
		}
		moved = true

		if node.SameParent(parentID) {
			return nil
		}

		// Both parent chains may change completion: the old parent lost a
		// child and the new one gained one.
		forest, err = loadForest(ctx, tx)
		if err != nil {
			return err
		}
		state := newCompletionState(forest)
		if err := s.propagateUp(ctx, tx, state, node.ParentID); err != nil {
			return err
		}
		return s.propagateUp(ctx, tx, state, parentID)
	})
	if err != nil {
		return err
	}

	if moved {
		s.logger.Debug("moved todo", "id", id, "parent", parentKey(parentID), "position", position)
	}
	return nil
}
