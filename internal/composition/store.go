// Package composition owns the live résumé document: its content fields, section order,
// section visibility, custom sections and custom fields.
//
// Every accepted mutation replaces the document with a new value and hands a clone of it to
// the commit hook. Rejected or no-op mutations never call the hook. Store is not safe for
// concurrent use; callers serialize access (see the editor package).
package composition

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jonathan/resume-editor/internal/types"
)

// CommitFunc receives a snapshot of the document after every accepted mutation.
type CommitFunc func(types.Document)

// Id prefixes. Each prefix has its own monotonic counter so ids are never reused within
// a session, even when an undo removes the entity that held them.
const (
	prefixExperience    = "exp-"
	prefixProject       = "proj-"
	prefixEducation     = "edu-"
	prefixCertification = "cert-"
	prefixCustomField   = "field-"
)

// Store holds the live document.
type Store struct {
	doc      types.Document
	seq      map[string]int
	onCommit CommitFunc
}

// New creates a store seeded with doc. onCommit may be nil.
func New(doc types.Document, onCommit CommitFunc) *Store {
	s := &Store{seq: make(map[string]int), onCommit: onCommit}
	s.Replace(doc)
	return s
}

// Document returns a copy of the live document.
func (s *Store) Document() types.Document {
	return s.doc.Clone()
}

// Replace adopts doc wholesale without committing. It is used for undo/redo, version
// activation and startup seeding.
func (s *Store) Replace(doc types.Document) {
	s.doc = doc.Clone()
	s.observeIDs()
}

// ReplaceAndCommit adopts doc wholesale as a regular edit.
func (s *Store) ReplaceAndCommit(doc types.Document) {
	s.Replace(doc)
	s.commit()
}

func (s *Store) commit() {
	if s.onCommit != nil {
		s.onCommit(s.doc.Clone())
	}
}

// apply swaps in next and commits it.
func (s *Store) apply(next types.Document) {
	s.doc = next
	s.commit()
}

// ToggleVisibility flips the visibility of a section. Unknown ids are a no-op.
func (s *Store) ToggleVisibility(id types.SectionID) bool {
	layout, ok := toggleSection(s.doc.Layout, id)
	return s.applyLayout(layout, ok)
}

// MoveSection swaps the section at index with its neighbour. Moves past either end are a no-op.
func (s *Store) MoveSection(index int, dir Direction) bool {
	layout, ok := moveSection(s.doc.Layout, index, dir)
	return s.applyLayout(layout, ok)
}

// AddCustomSection appends a new visible custom section. Names that trim to empty are rejected.
func (s *Store) AddCustomSection(name, content string) (types.SectionID, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	id := types.SectionID(s.nextID(types.CustomSectionPrefix))
	layout := addSection(s.doc.Layout, types.CustomSection{ID: id, Name: name, Content: content})
	s.applyLayout(layout, true)
	return id, true
}

// DeleteCustomSection removes a custom section from the order, the visibility map and the
// custom section list. Unknown and built-in ids are a no-op.
func (s *Store) DeleteCustomSection(id types.SectionID) bool {
	layout, ok := removeSection(s.doc.Layout, id)
	return s.applyLayout(layout, ok)
}

// UpdateCustomSectionContent replaces the body of a custom section.
func (s *Store) UpdateCustomSectionContent(id types.SectionID, content string) bool {
	layout, ok := setSectionContent(s.doc.Layout, id, content)
	return s.applyLayout(layout, ok)
}

func (s *Store) applyLayout(layout types.Layout, changed bool) bool {
	if !changed {
		return false
	}
	next := s.doc.Clone()
	next.Layout = layout
	s.apply(next)
	return true
}

// AddCustomField appends a custom field with an empty value.
func (s *Store) AddCustomField(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	id := s.nextID(prefixCustomField)
	next := s.doc.Clone()
	next.CustomFields = append(next.CustomFields, types.CustomField{ID: id, Name: name})
	s.apply(next)
	return id, true
}

// RemoveCustomField deletes a custom field. Unknown ids are a no-op.
func (s *Store) RemoveCustomField(id string) bool {
	if !slices.ContainsFunc(s.doc.CustomFields, func(f types.CustomField) bool { return f.ID == id }) {
		return false
	}
	next := s.doc.Clone()
	next.CustomFields = slices.DeleteFunc(next.CustomFields, func(f types.CustomField) bool { return f.ID == id })
	s.apply(next)
	return true
}

// UpdateCustomField sets the value of a custom field. Unknown ids are a no-op.
func (s *Store) UpdateCustomField(id, value string) bool {
	i := slices.IndexFunc(s.doc.CustomFields, func(f types.CustomField) bool { return f.ID == id })
	if i < 0 || s.doc.CustomFields[i].Value == value {
		return false
	}
	next := s.doc.Clone()
	next.CustomFields[i].Value = value
	s.apply(next)
	return true
}

// UpdateField writes value at a field path (see fields.go for the grammar).
func (s *Store) UpdateField(path, value string) (bool, error) {
	next := s.doc.Clone()
	changed, err := setField(&next, path, value)
	if err != nil || !changed {
		return false, err
	}
	s.apply(next)
	return true, nil
}

// AddEntry appends an empty entry to a collection section and returns its id.
func (s *Store) AddEntry(section types.SectionID) (string, error) {
	next := s.doc.Clone()
	var id string
	switch section {
	case types.SectionExperience:
		id = s.nextID(prefixExperience)
		next.Experience = append(next.Experience, types.WorkItem{ID: id})
	case types.SectionProjects:
		id = s.nextID(prefixProject)
		next.Projects = append(next.Projects, types.Project{ID: id})
	case types.SectionEducation:
		id = s.nextID(prefixEducation)
		next.Education = append(next.Education, types.Education{ID: id})
	case types.SectionCertifications:
		id = s.nextID(prefixCertification)
		next.Certifications = append(next.Certifications, types.Credential{ID: id})
	default:
		return "", &types.ValidationError{Field: "section", Message: "section has no entries: " + string(section)}
	}
	s.apply(next)
	return id, nil
}

// RemoveEntry deletes an entry from a collection section. Unknown ids are a no-op.
func (s *Store) RemoveEntry(section types.SectionID, id string) (bool, error) {
	if !hasEntry(s.doc, section, id) {
		if !isCollection(section) {
			return false, &types.ValidationError{Field: "section", Message: "section has no entries: " + string(section)}
		}
		return false, nil
	}
	next := s.doc.Clone()
	switch section {
	case types.SectionExperience:
		next.Experience = slices.DeleteFunc(next.Experience, func(w types.WorkItem) bool { return w.ID == id })
	case types.SectionProjects:
		next.Projects = slices.DeleteFunc(next.Projects, func(p types.Project) bool { return p.ID == id })
	case types.SectionEducation:
		next.Education = slices.DeleteFunc(next.Education, func(e types.Education) bool { return e.ID == id })
	case types.SectionCertifications:
		next.Certifications = slices.DeleteFunc(next.Certifications, func(c types.Credential) bool { return c.ID == id })
	}
	s.apply(next)
	return true, nil
}

// AddSkill appends a normalized skill tag unless an equivalent tag already exists.
func (s *Store) AddSkill(skill string) bool {
	name := types.NormalizeSkillName(skill)
	if name == "" || s.hasSkill(name) {
		return false
	}
	next := s.doc.Clone()
	next.Skills = append(next.Skills, name)
	s.apply(next)
	return true
}

// RemoveSkill deletes the tag equivalent to skill. Unknown tags are a no-op.
func (s *Store) RemoveSkill(skill string) bool {
	key := types.SkillKey(skill)
	if key == "" || !s.hasSkill(skill) {
		return false
	}
	next := s.doc.Clone()
	next.Skills = slices.DeleteFunc(next.Skills, func(t string) bool { return types.SkillKey(t) == key })
	s.apply(next)
	return true
}

func (s *Store) hasSkill(skill string) bool {
	key := types.SkillKey(skill)
	return slices.ContainsFunc(s.doc.Skills, func(t string) bool { return types.SkillKey(t) == key })
}

// ApplyRecommendation applies a job-match recommendation as a single edit.
func (s *Store) ApplyRecommendation(rec types.Recommendation) (bool, error) {
	switch rec.Action {
	case types.ActionAddSkill:
		return s.AddSkill(rec.Value), nil
	case types.ActionSetField:
		return s.UpdateField(rec.Path, rec.Value)
	case types.ActionAdvice:
		return false, nil
	default:
		return false, &types.ValidationError{Field: "action", Message: fmt.Sprintf("unknown recommendation action %q", rec.Action)}
	}
}

// nextID allocates the next id for prefix.
func (s *Store) nextID(prefix string) string {
	s.seq[prefix]++
	return prefix + strconv.Itoa(s.seq[prefix])
}

// observeIDs raises the counters above every id already present in the document so
// adopted documents (imports, versions) never collide with newly allocated ids.
func (s *Store) observeIDs() {
	bump := func(prefix, id string) {
		if n, err := strconv.Atoi(strings.TrimPrefix(id, prefix)); err == nil && strings.HasPrefix(id, prefix) && n > s.seq[prefix] {
			s.seq[prefix] = n
		}
	}
	for _, w := range s.doc.Experience {
		bump(prefixExperience, w.ID)
	}
	for _, p := range s.doc.Projects {
		bump(prefixProject, p.ID)
	}
	for _, e := range s.doc.Education {
		bump(prefixEducation, e.ID)
	}
	for _, c := range s.doc.Certifications {
		bump(prefixCertification, c.ID)
	}
	for _, f := range s.doc.CustomFields {
		bump(prefixCustomField, f.ID)
	}
	for _, cs := range s.doc.CustomSections {
		bump(types.CustomSectionPrefix, string(cs.ID))
	}
}

func isCollection(section types.SectionID) bool {
	switch section {
	case types.SectionExperience, types.SectionProjects, types.SectionEducation, types.SectionCertifications:
		return true
	}
	return false
}

func hasEntry(doc types.Document, section types.SectionID, id string) bool {
	switch section {
	case types.SectionExperience:
		return slices.ContainsFunc(doc.Experience, func(w types.WorkItem) bool { return w.ID == id })
	case types.SectionProjects:
		return slices.ContainsFunc(doc.Projects, func(p types.Project) bool { return p.ID == id })
	case types.SectionEducation:
		return slices.ContainsFunc(doc.Education, func(e types.Education) bool { return e.ID == id })
	case types.SectionCertifications:
		return slices.ContainsFunc(doc.Certifications, func(c types.Credential) bool { return c.ID == id })
	}
	return false
}
