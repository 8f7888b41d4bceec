package types

import (
	"slices"
	"time"
)

// VersionMetadata records bookkeeping about a version.
type VersionMetadata struct {
	LastModified time.Time `json:"last_modified"`
	AutoCaptured bool      `json:"auto_captured"`
}

// Version is a named, timestamped, immutable snapshot of a document. Versions with no
// parent are roots of the lineage forest.
type Version struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Tags        []string        `json:"tags"`
	ParentID    string          `json:"parent_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Metadata    VersionMetadata `json:"metadata"`
	Snapshot    Document        `json:"snapshot"`
}

// Clone returns a deep copy of the version.
func (v Version) Clone() Version {
	out := v
	out.Tags = slices.Clone(v.Tags)
	if out.Tags == nil {
		out.Tags = []string{}
	}
	out.Snapshot = v.Snapshot.Clone()
	return out
}

// Summary drops the snapshot for listings.
func (v Version) Summary() VersionSummary {
	return VersionSummary{
		ID:          v.ID,
		Name:        v.Name,
		Description: v.Description,
		Tags:        slices.Clone(v.Tags),
		ParentID:    v.ParentID,
		CreatedAt:   v.CreatedAt,
		Metadata:    v.Metadata,
	}
}

// VersionSummary is a lightweight view of a version for listing.
type VersionSummary struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Tags        []string        `json:"tags"`
	ParentID    string          `json:"parent_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Metadata    VersionMetadata `json:"metadata"`
}
