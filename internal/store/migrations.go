package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/stickies/internal/model"
)

// migration holds a single schema migration with its target version.
// Plain DDL goes in sql; upgrades that must inspect the existing schema
// use apply. Both run inside one transaction.
type migration struct {
	version int
	sql     string
	apply   func(tx *sqlx.Tx) error
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
// Upgrades never drop data: columns are appended with defaults and broken
// rows are repaired in place.
var migrations = []migration{
	{
		// v1 adopts databases created before versioning existed, which
		// already carry notes and todos tables, hence IF NOT EXISTS.
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notes (
	id      INTEGER PRIMARY KEY,
	content TEXT
);

CREATE TABLE IF NOT EXISTS todos (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	text          TEXT NOT NULL,
	completed     BOOLEAN NOT NULL DEFAULT 0,
	parent_id     INTEGER REFERENCES todos(id) ON DELETE CASCADE,
	position      INTEGER NOT NULL DEFAULT 0,
	target_count  INTEGER,
	current_count INTEGER NOT NULL DEFAULT 0
);

INSERT INTO notes (id, content)
	SELECT 1, '' WHERE NOT EXISTS (SELECT 1 FROM notes WHERE id = 1);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		apply:   upgradeTodoColumns,
		sql: `
CREATE INDEX IF NOT EXISTS idx_todos_parent_position ON todos(parent_id, position);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}

// todoColumnUpgrades lists columns that older databases may lack, in the
// order they were introduced.
var todoColumnUpgrades = []struct {
	name string
	ddl  string
}{
	{"parent_id", "ALTER TABLE todos ADD COLUMN parent_id INTEGER"},
	{"position", "ALTER TABLE todos ADD COLUMN position INTEGER NOT NULL DEFAULT 0"},
	{"target_count", "ALTER TABLE todos ADD COLUMN target_count INTEGER"},
	{"current_count", "ALTER TABLE todos ADD COLUMN current_count INTEGER NOT NULL DEFAULT 0"},
}

// upgradeTodoColumns adds any missing optional columns, then repairs the
// tree that older writers left behind: they never compacted groups on
// delete, numbered from 1, could orphan rows and did not cascade completion.
func upgradeTodoColumns(tx *sqlx.Tx) error {
	existing, err := tableColumns(tx, "todos")
	if err != nil {
		return err
	}
	for _, col := range todoColumnUpgrades {
		if existing[col.name] {
			continue
		}
		if _, err := tx.Exec(col.ddl); err != nil {
			return fmt.Errorf("adding column %s: %w", col.name, err)
		}
	}

	ctx := context.Background()
	forest, err := reattachOrphans(ctx, tx)
	if err != nil {
		return err
	}
	if err := renumberAll(ctx, tx, forest); err != nil {
		return err
	}
	return recomputeCompletion(ctx, tx, forest)
}

// reattachOrphans moves rows whose parent is gone, or that sit on a parent
// cycle, to the end of the root group. Their subtrees travel with them.
// It returns the repaired forest.
func reattachOrphans(ctx context.Context, tx *sqlx.Tx) (*model.Forest, error) {
	for {
		forest, err := loadForest(ctx, tx)
		if err != nil {
			return nil, err
		}
		id, ok := firstUnrooted(forest)
		if !ok {
			return forest, nil
		}

		// Positions are rewritten by renumberAll; sorting orphans after the
		// existing roots keeps them below the list the user already had.
		if _, err := tx.ExecContext(ctx, `
			UPDATE todos SET
				parent_id = NULL,
				position = (SELECT COALESCE(MAX(position) + 1, 0) FROM todos WHERE parent_id IS NULL)
			WHERE id = ?`, id); err != nil {
			return nil, fmt.Errorf("reattaching todo %d to the root: %w", id, err)
		}
	}
}

// firstUnrooted picks the next row to reattach. Rows with a missing parent
// come first. Otherwise it is the lowest id sitting on a parent cycle.
func firstUnrooted(forest *model.Forest) (int64, bool) {
	reached := make(map[int64]bool, forest.Len())
	for _, t := range forest.Group(nil) {
		if t.ParentID != nil {
			return t.ID, true
		}
		reached[t.ID] = true
		for _, d := range forest.Descendants(t.ID) {
			reached[d] = true
		}
	}
	for _, id := range forest.IDs() {
		if reached[id] {
			continue
		}
		t, _ := forest.Node(id)
		if *t.ParentID == id || slices.Contains(forest.Descendants(id), *t.ParentID) {
			return id, true
		}
	}
	return 0, false
}

// recomputeCompletion derives every parent's completion from its children,
// deepest first, so a parent sees its children's repaired values.
func recomputeCompletion(ctx context.Context, tx *sqlx.Tx, forest *model.Forest) error {
	state := newCompletionState(forest)
	var visit func(id int64) error
	visit = func(id int64) error {
		children := forest.ChildIDs(id)
		if len(children) == 0 {
			return nil
		}
		want := true
		for _, c := range children {
			if err := visit(c); err != nil {
				return err
			}
			want = want && state.completed(c)
		}
		if want == state.completed(id) {
			return nil
		}
		if err := writeCompleted(ctx, tx, []int64{id}, want); err != nil {
			return err
		}
		state.set([]int64{id}, want)
		return nil
	}
	for _, t := range forest.Group(nil) {
		if err := visit(t.ID); err != nil {
			return err
		}
	}
	return nil
}

// tableColumns returns the set of column names of table.
func tableColumns(tx *sqlx.Tx, table string) (map[string]bool, error) {
	rows, err := tx.Queryx("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning column name: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// renumberAll rewrites positions so every sibling group is 0..k-1 in its
// current display order. Rows already in place are left untouched.
func renumberAll(ctx context.Context, tx *sqlx.Tx, forest *model.Forest) error {
	groups := [][]model.TodoNode{forest.Group(nil)}
	for _, t := range forest.Group(nil) {
		groups = appendSubgroups(groups, forest, t.ID)
	}

	for _, group := range groups {
		for i, t := range group {
			if t.Position == i {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				"UPDATE todos SET position = ? WHERE id = ?", i, t.ID); err != nil {
				return fmt.Errorf("renumbering todo %d: %w", t.ID, err)
			}
		}
	}
	return nil
}

func appendSubgroups(groups [][]model.TodoNode, forest *model.Forest, id int64) [][]model.TodoNode {
	children := forest.Group(&id)
	if len(children) == 0 {
		return groups
	}
	groups = append(groups, children)
	for _, c := range children {
		groups = appendSubgroups(groups, forest, c.ID)
	}
	return groups
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if err := s.applyMigration(m); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
		s.logger.Debug("applied migration", "version", m.version)
	}

	return nil
}

func (s *SQLiteStore) applyMigration(m migration) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if m.apply != nil {
		if err := m.apply(tx); err != nil {
			return err
		}
	}
	if m.sql != "" {
		if _, err := tx.Exec(m.sql); err != nil {
			return err
		}
	}
	return tx.Commit()
}
