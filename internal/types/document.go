// Package types provides type definitions for the résumé document model shared by the editor engine.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"slices"
	"strings"
)

// SectionID identifies one structural unit of the document.
type SectionID string

// Built-in sections. They are always present in the section order; they can be hidden but never removed.
const (
	SectionSummary        SectionID = "summary"
	SectionSkills         SectionID = "skills"
	SectionExperience     SectionID = "experience"
	SectionProjects       SectionID = "projects"
	SectionEducation      SectionID = "education"
	SectionCertifications SectionID = "certifications"
)

// CustomSectionPrefix distinguishes generated custom section ids from built-ins.
const CustomSectionPrefix = "custom-"

// BuiltinSections returns the built-in sections in their default display order.
func BuiltinSections() []SectionID {
	return []SectionID{
		SectionSummary,
		SectionSkills,
		SectionExperience,
		SectionProjects,
		SectionEducation,
		SectionCertifications,
	}
}

// IsBuiltin reports whether id names a built-in section.
func (id SectionID) IsBuiltin() bool {
	return slices.Contains(BuiltinSections(), id)
}

// IsCustom reports whether id has the custom section prefix.
func (id SectionID) IsCustom() bool {
	return strings.HasPrefix(string(id), CustomSectionPrefix)
}

// Profile holds the identity and contact fields of the résumé. Contact fields are free text:
// whatever an edit can write must load back unchanged, so formats are not enforced here.
type Profile struct {
	Name     string `json:"name"`
	Title    string `json:"title,omitempty"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Website  string `json:"website,omitempty"`
}

// WorkItem is one work-history entry.
type WorkItem struct {
	ID          string   `json:"id" validate:"required,excludes=."`
	Company     string   `json:"company"`
	Role        string   `json:"role"`
	Location    string   `json:"location,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date,omitempty"`
	Description string   `json:"description,omitempty"`
	Highlights  []string `json:"highlights,omitempty"`
}

// Project is one project entry.
type Project struct {
	ID           string   `json:"id" validate:"required,excludes=."`
	Name         string   `json:"name"`
	URL          string   `json:"url,omitempty"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// Education is one education entry.
type Education struct {
	ID          string `json:"id" validate:"required,excludes=."`
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	GPA         string `json:"gpa,omitempty"`
	Description string `json:"description,omitempty"`
}

// Credential is one certification or license entry.
type Credential struct {
	ID     string `json:"id" validate:"required,excludes=."`
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Date   string `json:"date,omitempty"`
	URL    string `json:"url,omitempty"`
}

// CustomField is an auxiliary identity/contact entry. It is never referenced by the section order.
type CustomField struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Value string `json:"value"`
}

// CustomSection is a user-defined section with a free-text body.
type CustomSection struct {
	ID      SectionID `json:"id" validate:"required"`
	Name    string    `json:"name" validate:"required"`
	Content string    `json:"content"`
}

// Layout is the structural composition of the document. The three collections are only ever
// replaced together; see Check for the invariant they maintain.
type Layout struct {
	SectionOrder      []SectionID        `json:"section_order"`
	SectionVisibility map[SectionID]bool `json:"section_visibility"`
	CustomSections    []CustomSection    `json:"custom_sections" validate:"dive"`
}

// Document is the full résumé content together with its layout.
type Document struct {
	Profile        Profile       `json:"profile"`
	Summary        string        `json:"summary"`
	Experience     []WorkItem    `json:"experience" validate:"dive"`
	Projects       []Project     `json:"projects" validate:"dive"`
	Education      []Education   `json:"education" validate:"dive"`
	Certifications []Credential  `json:"certifications" validate:"dive"`
	Skills         []string      `json:"skills"`
	CustomFields   []CustomField `json:"custom_fields" validate:"dive"`
	Layout
}

// DefaultLayout returns every built-in section, visible, in default order.
func DefaultLayout() Layout {
	order := BuiltinSections()
	visibility := make(map[SectionID]bool, len(order))
	for _, id := range order {
		visibility[id] = true
	}
	return Layout{
		SectionOrder:      order,
		SectionVisibility: visibility,
		CustomSections:    []CustomSection{},
	}
}

// NewDocument returns an empty document with the default layout.
func NewDocument() Document {
	return Document{
		Experience:     []WorkItem{},
		Projects:       []Project{},
		Education:      []Education{},
		Certifications: []Credential{},
		Skills:         []string{},
		CustomFields:   []CustomField{},
		Layout:         DefaultLayout(),
	}
}

// CustomSection returns the custom section with the given id.
func (l Layout) CustomSection(id SectionID) (CustomSection, bool) {
	for _, cs := range l.CustomSections {
		if cs.ID == id {
			return cs, true
		}
	}
	return CustomSection{}, false
}

// HasSection reports whether id is currently part of the section order.
func (l Layout) HasSection(id SectionID) bool {
	return slices.Contains(l.SectionOrder, id)
}

// Clone returns a structurally independent copy of the layout.
func (l Layout) Clone() Layout {
	out := Layout{
		SectionOrder:      slices.Clone(l.SectionOrder),
		SectionVisibility: make(map[SectionID]bool, len(l.SectionVisibility)),
		CustomSections:    slices.Clone(l.CustomSections),
	}
	for k, v := range l.SectionVisibility {
		out.SectionVisibility[k] = v
	}
	if out.SectionOrder == nil {
		out.SectionOrder = []SectionID{}
	}
	if out.CustomSections == nil {
		out.CustomSections = []CustomSection{}
	}
	return out
}

// Clone returns a deep copy of the document. Snapshots held by history and versions are
// always clones so later edits to the live document cannot reach them.
func (d Document) Clone() Document {
	out := d
	out.Experience = make([]WorkItem, len(d.Experience))
	for i, w := range d.Experience {
		w.Highlights = slices.Clone(w.Highlights)
		out.Experience[i] = w
	}
	out.Projects = make([]Project, len(d.Projects))
	for i, p := range d.Projects {
		p.Technologies = slices.Clone(p.Technologies)
		out.Projects[i] = p
	}
	out.Education = append([]Education{}, d.Education...)
	out.Certifications = append([]Credential{}, d.Certifications...)
	out.Skills = append([]string{}, d.Skills...)
	out.CustomFields = append([]CustomField{}, d.CustomFields...)
	out.Layout = d.Layout.Clone()
	return out
}

// IsReady reports whether all required identity fields are present and non-empty.
func (d Document) IsReady() bool {
	return strings.TrimSpace(d.Profile.Name) != "" && strings.TrimSpace(d.Profile.Email) != ""
}
