package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// SaveDocument upserts the serialized document stored under id.
func (db *DB) SaveDocument(ctx context.Context, id string, content []byte) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO documents (id, content, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (id) DO UPDATE SET content = $2, updated_at = NOW()`,
		id, content,
	)
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", id, err)
	}
	return nil
}

// GetDocument returns the serialized document stored under id, or nil if there is none.
func (db *DB) GetDocument(ctx context.Context, id string) (*DocumentRecord, error) {
	var rec DocumentRecord
	err := db.pool.QueryRow(ctx,
		`SELECT id, content, updated_at FROM documents WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.Content, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	return &rec, nil
}

// DocumentRecord is a row of the documents table.
type DocumentRecord struct {
	ID        string
	Content   []byte
	UpdatedAt time.Time
}

// DocumentStore is the persistence boundary for one document.
type DocumentStore struct {
	db *DB
	id string
}

// Documents returns the store for the document with the given id.
func (db *DB) Documents(id string) *DocumentStore {
	return &DocumentStore{db: db, id: id}
}

// Persist implements autosave.Persister.
func (s *DocumentStore) Persist(ctx context.Context, data []byte) error {
	return s.db.SaveDocument(ctx, s.id, data)
}

// Load implements autosave.Persister.
func (s *DocumentStore) Load(ctx context.Context) ([]byte, error) {
	rec, err := s.db.GetDocument(ctx, s.id)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.Content, nil
}
