package composition

import (
	"slices"

	"github.com/jonathan/resume-editor/internal/types"
)

// CheckTarget rejects targets that can never receive generated text: sections without a
// free-text body and collection sections addressed without an entry.
func CheckTarget(t types.Target) error {
	switch {
	case t.Section == types.SectionSummary && t.EntryID == "":
		return nil
	case t.Section.IsCustom() && t.EntryID == "":
		return nil
	case t.EntryID != "" && (t.Section == types.SectionExperience || t.Section == types.SectionProjects || t.Section == types.SectionEducation):
		return nil
	}
	return &types.ValidationError{Field: "target", Message: "cannot generate content for " + t.String()}
}

// Resolve reports whether the target currently exists in the live document.
func (s *Store) Resolve(t types.Target) bool {
	_, ok := s.TargetText(t)
	return ok
}

// TargetText returns the current text at the target.
func (s *Store) TargetText(t types.Target) (string, bool) {
	if CheckTarget(t) != nil {
		return "", false
	}
	doc := s.doc
	switch {
	case t.Section == types.SectionSummary:
		return doc.Summary, true
	case t.Section.IsCustom():
		cs, ok := doc.CustomSection(t.Section)
		return cs.Content, ok
	case t.Section == types.SectionExperience:
		if i := slices.IndexFunc(doc.Experience, func(w types.WorkItem) bool { return w.ID == t.EntryID }); i >= 0 {
			return doc.Experience[i].Description, true
		}
	case t.Section == types.SectionProjects:
		if i := slices.IndexFunc(doc.Projects, func(p types.Project) bool { return p.ID == t.EntryID }); i >= 0 {
			return doc.Projects[i].Description, true
		}
	case t.Section == types.SectionEducation:
		if i := slices.IndexFunc(doc.Education, func(e types.Education) bool { return e.ID == t.EntryID }); i >= 0 {
			return doc.Education[i].Description, true
		}
	}
	return "", false
}

// MergeGenerated writes generated text into the target through the regular mutation path.
// It is a no-op when the target no longer resolves.
func (s *Store) MergeGenerated(t types.Target, content string) bool {
	if !s.Resolve(t) {
		return false
	}
	if t.Section.IsCustom() {
		return s.UpdateCustomSectionContent(t.Section, content)
	}
	path := "summary"
	if t.EntryID != "" {
		path = string(t.Section) + "." + t.EntryID + ".description"
	}
	changed, err := s.UpdateField(path, content)
	return err == nil && changed
}
