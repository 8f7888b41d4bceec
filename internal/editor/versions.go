package editor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/resume-editor/internal/types"
	"github.com/jonathan/resume-editor/internal/versions"
)

// VersionDeleted is the payload of EventVersionDeleted.
type VersionDeleted struct {
	ID         string   `json:"id"`
	Reparented []string `json:"reparented,omitempty"`
}

// LoadVersions restores persisted versions into the session. Without a version store it
// does nothing.
func (s *Session) LoadVersions(ctx context.Context) error {
	if s.vstore == nil {
		return nil
	}
	vs, err := s.vstore.LoadVersions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load versions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.versions.Restore(vs); err != nil {
		return fmt.Errorf("failed to restore versions: %w", err)
	}
	s.logger.Info("loaded versions", zap.Int("count", len(vs)))
	return nil
}

// CreateVersion captures the live document as a new version.
func (s *Session) CreateVersion(ctx context.Context, p versions.CreateParams) (types.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createVersion(ctx, p)
}

func (s *Session) createVersion(ctx context.Context, p versions.CreateParams) (types.Version, error) {
	v, err := s.versions.Create(p, s.store.Document())
	if err != nil {
		return types.Version{}, err
	}
	s.dirty = false
	s.saveVersion(ctx, v)
	s.publish(EventVersionCreated, v.Summary())
	return v, nil
}

// ActivateVersion replaces the live document with a version's snapshot and restarts the
// undo history from it. Every other version stays available. Generation requests still in
// flight were built from the old document, so their results are discarded as stale.
func (s *Session) ActivateVersion(ctx context.Context, id string) (types.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := s.versions.Get(id)
	if err != nil {
		return types.Document{}, err
	}
	if s.autoCapture && s.dirty {
		captured, err := s.createVersion(ctx, versions.CreateParams{
			Name:         "Before switching to " + target.Name,
			Description:  "Captured automatically",
			Tags:         []string{"auto"},
			ParentID:     s.versions.ActiveID(),
			AutoCaptured: true,
		})
		if err != nil {
			return types.Document{}, fmt.Errorf("failed to capture live document: %w", err)
		}
		s.logger.Info("captured live document before activation", zap.String("version_id", captured.ID))
	}

	doc, err := s.versions.Activate(id)
	if err != nil {
		return types.Document{}, err
	}
	s.store.Replace(doc)
	s.history.Reset(s.store.Document())
	s.dirty = false
	if n := s.coord.Abandon("version " + id + " activated"); n > 0 {
		s.logger.Info("abandoned in-flight generations", zap.Int("count", n), zap.String("version_id", id))
	}
	s.publish(EventVersionActivated, target.Summary())
	return s.store.Document(), nil
}

// DeleteVersion removes a version, re-parenting its children. The live document and the
// undo history are untouched.
func (s *Session) DeleteVersion(ctx context.Context, id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reparented, err := s.versions.Delete(id)
	if err != nil {
		return nil, err
	}
	if s.vstore != nil {
		if err := s.vstore.DeleteVersion(ctx, id); err != nil {
			s.logger.Error("failed to delete persisted version", zap.String("version_id", id), zap.Error(err))
		}
		for _, child := range reparented {
			if v, err := s.versions.Get(child); err == nil {
				s.saveVersion(ctx, v)
			}
		}
	}
	s.publish(EventVersionDeleted, VersionDeleted{ID: id, Reparented: reparented})
	return reparented, nil
}

// saveVersion persists v. Failures are logged: the in-memory version is authoritative for
// the running session.
func (s *Session) saveVersion(ctx context.Context, v types.Version) {
	if s.vstore == nil {
		return
	}
	if err := s.vstore.SaveVersion(ctx, v); err != nil {
		s.logger.Error("failed to persist version", zap.String("version_id", v.ID), zap.Error(err))
	}
}

// ListVersions returns every version in creation order.
func (s *Session) ListVersions() []types.Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions.List()
}

// GetVersion returns one version.
func (s *Session) GetVersion(id string) (types.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions.Get(id)
}

// Lineage returns the chain of versions from the root down to id.
func (s *Session) Lineage(id string) ([]types.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions.Lineage(id)
}

// ActiveVersionID returns the id of the most recently activated version, or "".
func (s *Session) ActiveVersionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions.ActiveID()
}
