package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks field formats and structural consistency of a document: entry ids are
// unique within each collection and the layout satisfies Check.
func (d *Document) Validate() error {
	var problems ValidationErrors

	if err := validate.Struct(d); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("failed to validate document: %w", err)
		}
		for _, fe := range fieldErrs {
			problems = append(problems, ValidationError{
				Field:   fe.Namespace(),
				Message: fmt.Sprintf("failed %q check", fe.Tag()),
			})
		}
	}

	checkUnique := func(collection string, ids []string) {
		seen := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				problems = append(problems, ValidationError{Field: collection, Message: "duplicate id " + id})
			}
			seen[id] = struct{}{}
		}
	}
	checkUnique("experience", collectIDs(d.Experience, func(w WorkItem) string { return w.ID }))
	checkUnique("projects", collectIDs(d.Projects, func(p Project) string { return p.ID }))
	checkUnique("education", collectIDs(d.Education, func(e Education) string { return e.ID }))
	checkUnique("certifications", collectIDs(d.Certifications, func(c Credential) string { return c.ID }))
	checkUnique("custom_fields", collectIDs(d.CustomFields, func(f CustomField) string { return f.ID }))

	for _, cs := range d.CustomSections {
		if !cs.ID.IsCustom() {
			problems = append(problems, ValidationError{
				Field:   "custom_sections",
				Message: fmt.Sprintf("id %q must start with %q", cs.ID, CustomSectionPrefix),
			})
		}
		if strings.TrimSpace(cs.Name) == "" {
			problems = append(problems, ValidationError{Field: "custom_sections", Message: "name is empty for " + string(cs.ID)})
		}
	}

	if err := d.Layout.Check(); err != nil {
		problems = append(problems, ValidationError{Field: "section_order", Message: err.Error()})
	}

	if len(problems) > 0 {
		return problems
	}
	return nil
}

func collectIDs[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, id(item))
	}
	return out
}
