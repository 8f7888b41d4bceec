// Package versions maintains named document snapshots arranged as a lineage forest.
//
// A version may name a parent that already exists at creation time, so the parent links can
// never form a cycle. Activating a version never removes any other version.
package versions

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-editor/internal/types"
)

// CreateParams describes a new version.
type CreateParams struct {
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	ParentID     string   `json:"parent_id,omitempty"`
	AutoCaptured bool     `json:"-"`
}

// Manager stores versions in memory. It is not safe for concurrent use.
type Manager struct {
	versions map[string]types.Version
	order    []string
	activeID string
	now      func() time.Time
	newID    func() string
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator overrides version id generation.
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// NewManager returns an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		versions: make(map[string]types.Version),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create captures snapshot as a new version.
func (m *Manager) Create(p CreateParams, snapshot types.Document) (types.Version, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return types.Version{}, &types.ValidationError{Field: "name", Message: "version name is required"}
	}
	if p.ParentID != "" {
		if _, ok := m.versions[p.ParentID]; !ok {
			return types.Version{}, &types.ValidationError{Field: "parent_id", Message: "parent version does not exist: " + p.ParentID}
		}
	}

	now := m.now()
	v := types.Version{
		ID:          m.newID(),
		Name:        name,
		Description: strings.TrimSpace(p.Description),
		Tags:        normalizeTags(p.Tags),
		ParentID:    p.ParentID,
		CreatedAt:   now,
		Metadata: types.VersionMetadata{
			LastModified: now,
			AutoCaptured: p.AutoCaptured,
		},
		Snapshot: snapshot.Clone(),
	}
	m.versions[v.ID] = v
	m.order = append(m.order, v.ID)
	return v.Clone(), nil
}

// List returns every version in creation order.
func (m *Manager) List() []types.Version {
	out := make([]types.Version, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.versions[id].Clone())
	}
	return out
}

// Get returns one version.
func (m *Manager) Get(id string) (types.Version, error) {
	v, ok := m.versions[id]
	if !ok {
		return types.Version{}, &types.NotFoundError{Kind: "version", ID: id}
	}
	return v.Clone(), nil
}

// Activate marks id as the active version and returns its snapshot for adoption.
func (m *Manager) Activate(id string) (types.Document, error) {
	v, ok := m.versions[id]
	if !ok {
		return types.Document{}, &types.NotFoundError{Kind: "version", ID: id}
	}
	m.activeID = id
	return v.Snapshot.Clone(), nil
}

// ActiveID returns the id of the most recently activated version, or "".
func (m *Manager) ActiveID() string {
	return m.activeID
}

// Children returns the direct descendants of id in creation order.
func (m *Manager) Children(id string) []types.Version {
	var out []types.Version
	for _, vid := range m.order {
		if v := m.versions[vid]; v.ParentID == id && id != "" {
			out = append(out, v.Clone())
		}
	}
	return out
}

// Lineage returns the chain of versions from the root down to id.
func (m *Manager) Lineage(id string) ([]types.Version, error) {
	v, ok := m.versions[id]
	if !ok {
		return nil, &types.NotFoundError{Kind: "version", ID: id}
	}
	chain := []types.Version{v.Clone()}
	for v.ParentID != "" {
		v = m.versions[v.ParentID]
		chain = append(chain, v.Clone())
	}
	slices.Reverse(chain)
	return chain, nil
}

// Delete removes a version. Its children are re-parented to its own parent so the forest
// stays connected; the live document and edit history are untouched.
func (m *Manager) Delete(id string) ([]string, error) {
	v, ok := m.versions[id]
	if !ok {
		return nil, &types.NotFoundError{Kind: "version", ID: id}
	}
	var reparented []string
	for vid, child := range m.versions {
		if child.ParentID == id {
			child.ParentID = v.ParentID
			child.Metadata.LastModified = m.now()
			m.versions[vid] = child
			reparented = append(reparented, vid)
		}
	}
	sort.Strings(reparented)
	delete(m.versions, id)
	m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == id })
	if m.activeID == id {
		m.activeID = ""
	}
	return reparented, nil
}

// Restore loads previously persisted versions, replacing current contents. Versions are
// ordered by creation time and every parent must precede its children. Every snapshot must
// pass Document.Validate, since activating a version adopts it as the live document.
func (m *Manager) Restore(vs []types.Version) error {
	sorted := slices.Clone(vs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })

	versions := make(map[string]types.Version, len(sorted))
	order := make([]string, 0, len(sorted))
	for _, v := range sorted {
		if v.ID == "" {
			return &types.ValidationError{Field: "id", Message: "version id is empty"}
		}
		if _, dup := versions[v.ID]; dup {
			return &types.ValidationError{Field: "id", Message: "duplicate version id " + v.ID}
		}
		if v.ParentID != "" {
			if _, ok := versions[v.ParentID]; !ok {
				return &types.ValidationError{Field: "parent_id", Message: "parent of " + v.ID + " missing or newer: " + v.ParentID}
			}
		}
		restored := v.Clone()
		if err := restored.Snapshot.Validate(); err != nil {
			return &types.ValidationError{Field: "snapshot", Message: "version " + v.ID + ": " + err.Error()}
		}
		versions[v.ID] = restored
		order = append(order, v.ID)
	}

	m.versions = versions
	m.order = order
	if _, ok := versions[m.activeID]; !ok {
		m.activeID = ""
	}
	return nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}
