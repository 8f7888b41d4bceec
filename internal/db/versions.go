package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/resume-editor/internal/types"
)

// VersionStore persists the versions of one document.
type VersionStore struct {
	db         *DB
	documentID string
}

// Versions returns the version store for the document with the given id.
func (db *DB) Versions(documentID string) *VersionStore {
	return &VersionStore{db: db, documentID: documentID}
}

// SaveVersion upserts a version.
func (s *VersionStore) SaveVersion(ctx context.Context, v types.Version) error {
	snapshot, err := json.Marshal(v.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal version snapshot: %w", err)
	}
	var parentID *string
	if v.ParentID != "" {
		parentID = &v.ParentID
	}
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err = s.db.pool.Exec(ctx,
		`INSERT INTO document_versions
		   (id, document_id, name, description, tags, parent_id, created_at, last_modified, auto_captured, snapshot)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		   name = $3, description = $4, tags = $5, parent_id = $6,
		   last_modified = $8, auto_captured = $9, snapshot = $10`,
		v.ID, s.documentID, v.Name, v.Description, tags, parentID,
		v.CreatedAt, v.Metadata.LastModified, v.Metadata.AutoCaptured, snapshot,
	)
	if err != nil {
		return fmt.Errorf("failed to save version %s: %w", v.ID, err)
	}
	return nil
}

// DeleteVersion removes a version. Deleting a missing version is not an error.
func (s *VersionStore) DeleteVersion(ctx context.Context, id string) error {
	_, err := s.db.pool.Exec(ctx,
		`DELETE FROM document_versions WHERE id = $1 AND document_id = $2`,
		id, s.documentID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete version %s: %w", id, err)
	}
	return nil
}

// LoadVersions returns every version of the document in creation order.
func (s *VersionStore) LoadVersions(ctx context.Context) ([]types.Version, error) {
	rows, err := s.db.pool.Query(ctx,
		`SELECT id, name, description, tags, parent_id, created_at, last_modified, auto_captured, snapshot
		 FROM document_versions
		 WHERE document_id = $1
		 ORDER BY created_at, id`,
		s.documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var out []types.Version
	for rows.Next() {
		var (
			v        types.Version
			parentID *string
			snapshot []byte
		)
		if err := rows.Scan(&v.ID, &v.Name, &v.Description, &v.Tags, &parentID,
			&v.CreatedAt, &v.Metadata.LastModified, &v.Metadata.AutoCaptured, &snapshot); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		if parentID != nil {
			v.ParentID = *parentID
		}
		if err := json.Unmarshal(snapshot, &v.Snapshot); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot of version %s: %w", v.ID, err)
		}
		out = append(out, v.Clone())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	return out, nil
}
