package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/stickies/internal/model"
)

// orderClause sorts the snapshot by sibling group, then position. Root rows
// (NULL parent) come first; ids are positive so 0 never collides.
const orderClause = "ORDER BY COALESCE(parent_id, 0), position, id"

// GetTodos returns every todo. Callers rebuild the tree by grouping on
// ParentID; each group already arrives sorted by Position.
func (s *SQLiteStore) GetTodos(ctx context.Context) ([]model.TodoNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos, err := selectTodos(ctx, s.db, orderClause)
	if err != nil {
		return nil, err
	}
	return todos, nil
}

// GetTodoByID retrieves a single todo by ID.
func (s *SQLiteStore) GetTodoByID(ctx context.Context, id int64) (*model.TodoNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return getTodo(ctx, s.db, id)
}

func getTodo(ctx context.Context, q sqlx.QueryerContext, id int64) (*model.TodoNode, error) {
	row := q.QueryRowxContext(ctx, "SELECT "+todoColumns+" FROM todos WHERE id = ?", id)
	todo, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting todo %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting todo %d: %w", id, err)
	}
	return &todo, nil
}

// Stats counts all, completed, and countdown todos.
func (s *SQLiteStore) Stats(ctx context.Context) (model.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st model.Stats
	err := s.db.GetContext(ctx, &st, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0) AS completed,
			COUNT(target_count) AS counters
		FROM todos`)
	if err != nil {
		return model.Stats{}, fmt.Errorf("counting todos: %w", err)
	}
	return st, nil
}

// CreateTodo appends a new open todo to the end of its sibling group and
// returns its id. Under a completed parent the parent chain reopens.
func (s *SQLiteStore) CreateTodo(ctx context.Context, text string, parentID *int64) (int64, error) {
	return s.CreateTodoWithCount(ctx, text, parentID, nil)
}

// CreateTodoWithCount is CreateTodo with the countdown armed in the same
// transaction. nil or 0 creates a plain todo.
func (s *SQLiteStore) CreateTodoWithCount(ctx context.Context, text string, parentID *int64, target *int) (int64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, ErrEmptyText
	}
	if target != nil && *target < 0 {
		return 0, fmt.Errorf("creating todo with count %d: %w", *target, ErrInvalidCount)
	}
	var targetCount any
	current := 0
	if target != nil && *target > 0 {
		targetCount, current = *target, *target
	}

	var id int64
	err := s.withTx(ctx, "create", func(tx *sqlx.Tx) error {
		if parentID != nil {
			if _, err := getTodo(ctx, tx, *parentID); err != nil {
				if errors.Is(err, ErrNotFound) {
					return fmt.Errorf("creating todo under %d: %w", *parentID, ErrInvalidParent)
				}
				return err
			}
		}

		var position int
		err := tx.GetContext(ctx, &position,
			"SELECT COALESCE(MAX(position) + 1, 0) FROM todos WHERE parent_id IS ?",
			parentID)
		if err != nil {
			return fmt.Errorf("getting next position: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO todos (text, completed, parent_id, position, target_count, current_count)
			VALUES (?, 0, ?, ?, ?, ?)`,
			text, parentID, position, targetCount, current,
		)
		if err != nil {
			return fmt.Errorf("creating todo: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading new todo id: %w", err)
		}

		if parentID == nil {
			return nil
		}
		forest, err := loadForest(ctx, tx)
		if err != nil {
			return err
		}
		return s.propagateUp(ctx, tx, newCompletionState(forest), parentID)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug("created todo", "id", id, "parent", parentKey(parentID), "count", current)
	return id, nil
}

// UpdateTodoText renames a todo in place. A missing id is a no-op.
func (s *SQLiteStore) UpdateTodoText(ctx context.Context, id int64, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		"UPDATE todos SET text = ? WHERE id = ?", text, id); err != nil {
		return fmt.Errorf("updating todo %d: %w", id, err)
	}
	s.logger.Debug("updated todo text", "id", id)
	return nil
}

// DeleteTodo removes a todo and its whole subtree, then closes the gap it
// left in its sibling group. A missing id is a no-op.
func (s *SQLiteStore) DeleteTodo(ctx context.Context, id int64) error {
	var removed int
	err := s.withTx(ctx, "delete", func(tx *sqlx.Tx) error {
		forest, err := loadForest(ctx, tx)
		if err != nil {
			return err
		}
		node, ok := forest.Node(id)
		if !ok {
			return nil
		}

		// Descendants are removed explicitly: databases upgraded with
		// ALTER TABLE have no ON DELETE CASCADE on parent_id.
		ids := append([]int64{id}, forest.Descendants(id)...)
		query, args, err := sqlx.In("DELETE FROM todos WHERE id IN (?)", ids)
		if err != nil {
			return fmt.Errorf("building delete for todo %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("deleting todo %d: %w", id, err)
		}
		removed = len(ids)

		if err := closeGap(ctx, tx, id, node.ParentID, node.Position); err != nil {
			return err
		}

		if node.ParentID == nil {
			return nil
		}
		forest, err = loadForest(ctx, tx)
		if err != nil {
			return err
		}
		return s.propagateUp(ctx, tx, newCompletionState(forest), node.ParentID)
	})
	if err != nil {
		return err
	}

	if removed > 0 {
		s.logger.Debug("deleted todo", "id", id, "rows", removed)
	}
	return nil
}

// ResetAllTodos reopens every todo and re-arms every countdown. Structure
// and text are untouched.
func (s *SQLiteStore) ResetAllTodos(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx,
		"UPDATE todos SET completed = 0, current_count = COALESCE(target_count, 0)")
	if err != nil {
		return fmt.Errorf("resetting todos: %w", err)
	}
	rows, _ := result.RowsAffected()
	s.logger.Debug("reset todos", "rows", rows)
	return nil
}
