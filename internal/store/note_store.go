package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// noteID is the key of the singleton note row.
const noteID = 1

// GetNote returns the note content. A missing row reads as empty.
func (s *SQLiteStore) GetNote(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var content sql.NullString
	err := s.db.GetContext(ctx, &content, "SELECT content FROM notes WHERE id = ?", noteID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting note: %w", err)
	}
	return content.String, nil
}

// SaveNote replaces the note content.
func (s *SQLiteStore) SaveNote(ctx context.Context, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, content) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content`,
		noteID, content,
	)
	if err != nil {
		return fmt.Errorf("saving note: %w", err)
	}
	s.logger.Debug("saved note", "bytes", len(content))
	return nil
}
