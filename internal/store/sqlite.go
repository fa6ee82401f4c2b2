package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/stickies/internal/model"
)

// todoColumns is the explicit column list used by every todo read. Legacy
// databases received some of these columns via ALTER TABLE, so SELECT *
// would not have a stable order.
const todoColumns = "id, text, completed, parent_id, position, target_count, current_count"

// SQLiteStore implements the Store interface using a local SQLite database.
//
// All access goes through one connection and one mutex: the cascade walk and
// the sibling shifts read rows they later write, which is only sound when no
// other mutation interleaves.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sqlx.DB
	logger hclog.Logger
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithLogger sets the logger used for mutation tracing.
func WithLogger(l hclog.Logger) Option {
	return func(s *SQLiteStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if !isMemoryPath(dbPath) {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db, logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	s.logger.Debug("opened store", "path", dbPath)
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SchemaVersion returns the highest applied migration version.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var v int
	if err := s.db.GetContext(ctx, &v, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// withTx runs fn inside a transaction while holding the store lock.
// The transaction is rolled back unless fn returns nil and commit succeeds.
func (s *SQLiteStore) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		s.logger.Debug("rolled back", "op", op, "error", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("commit failed", "op", op, "error", err)
		return fmt.Errorf("committing %s: %w", op, err)
	}
	return nil
}

// selectTodos runs a todo query with an optional WHERE suffix.
func selectTodos(
	ctx context.Context,
	q sqlx.QueryerContext,
	suffix string,
	args ...interface{},
) ([]model.TodoNode, error) {
	query := "SELECT " + todoColumns + " FROM todos"
	if suffix != "" {
		query += " " + suffix
	}

	rows, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying todos: %w", err)
	}
	defer rows.Close()

	var todos []model.TodoNode
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	return todos, rows.Err()
}

// loadForest reads the whole table once and builds the adjacency view used
// by the cascade and cycle checks.
func loadForest(ctx context.Context, q sqlx.QueryerContext) (*model.Forest, error) {
	todos, err := selectTodos(ctx, q, "")
	if err != nil {
		return nil, err
	}
	return model.NewForest(todos), nil
}

// scanTodo scans a todo row selected with todoColumns.
func scanTodo(rows interface{ Scan(dest ...interface{}) error }) (model.TodoNode, error) {
	var (
		todo         model.TodoNode
		completedInt int
		parentID     *int64
		targetCount  *int
		currentCount *int
	)

	err := rows.Scan(
		&todo.ID, &todo.Text, &completedInt, &parentID,
		&todo.Position, &targetCount, &currentCount,
	)
	if err != nil {
		return model.TodoNode{}, fmt.Errorf("scanning todo row: %w", err)
	}

	todo.Completed = completedInt != 0
	todo.ParentID = parentID
	todo.TargetCount = targetCount
	if currentCount != nil {
		todo.CurrentCount = *currentCount
	}

	return todo, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isMemoryPath(p string) bool {
	return p == ":memory:" || strings.HasPrefix(p, "file:") || strings.Contains(p, "mode=memory")
}

// parentKey renders a parent id for log lines.
func parentKey(parentID *int64) interface{} {
	if parentID == nil {
		return "root"
	}
	return *parentID
}
