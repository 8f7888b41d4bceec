package composition

import (
	"slices"
	"strings"

	"github.com/jonathan/resume-editor/internal/types"
)

// Field paths accepted by UpdateField:
//
//	name | title | email | phone | location | website | summary
//	experience.<id>.(company|role|location|start_date|end_date|description|highlights)
//	projects.<id>.(name|url|description|technologies)
//	education.<id>.(institution|degree|field|start_date|end_date|gpa|description)
//	certifications.<id>.(name|issuer|date|url)
//
// List fields take newline separated (highlights) or comma separated (technologies) values.

// setField writes value at path into doc. It reports whether doc changed; an unknown entry id
// is a no-op, an unknown field or malformed path is a validation error.
func setField(doc *types.Document, path, value string) (bool, error) {
	parts := strings.Split(path, ".")
	switch len(parts) {
	case 1:
		return setTopLevel(doc, parts[0], value)
	case 3:
		return setEntryField(doc, types.SectionID(parts[0]), parts[1], parts[2], value)
	default:
		return false, &types.ValidationError{Field: "path", Message: "malformed field path " + path}
	}
}

func setTopLevel(doc *types.Document, name, value string) (bool, error) {
	var field *string
	switch name {
	case "name":
		field = &doc.Profile.Name
	case "title":
		field = &doc.Profile.Title
	case "email":
		field = &doc.Profile.Email
	case "phone":
		field = &doc.Profile.Phone
	case "location":
		field = &doc.Profile.Location
	case "website":
		field = &doc.Profile.Website
	case "summary":
		field = &doc.Summary
	default:
		return false, &types.ValidationError{Field: "path", Message: "unknown field " + name}
	}
	if *field == value {
		return false, nil
	}
	*field = value
	return true, nil
}

func setEntryField(doc *types.Document, section types.SectionID, id, name, value string) (bool, error) {
	switch section {
	case types.SectionExperience:
		i := slices.IndexFunc(doc.Experience, func(w types.WorkItem) bool { return w.ID == id })
		field, list, err := workItemField(name)
		if err != nil || i < 0 {
			return false, err
		}
		if list {
			return setList(&doc.Experience[i].Highlights, splitLines(value)), nil
		}
		return setString(field(&doc.Experience[i]), value), nil

	case types.SectionProjects:
		i := slices.IndexFunc(doc.Projects, func(p types.Project) bool { return p.ID == id })
		field, list, err := projectField(name)
		if err != nil || i < 0 {
			return false, err
		}
		if list {
			return setList(&doc.Projects[i].Technologies, splitCommas(value)), nil
		}
		return setString(field(&doc.Projects[i]), value), nil

	case types.SectionEducation:
		i := slices.IndexFunc(doc.Education, func(e types.Education) bool { return e.ID == id })
		field, err := educationField(name)
		if err != nil || i < 0 {
			return false, err
		}
		return setString(field(&doc.Education[i]), value), nil

	case types.SectionCertifications:
		i := slices.IndexFunc(doc.Certifications, func(c types.Credential) bool { return c.ID == id })
		field, err := credentialField(name)
		if err != nil || i < 0 {
			return false, err
		}
		return setString(field(&doc.Certifications[i]), value), nil

	default:
		return false, &types.ValidationError{Field: "path", Message: "section has no entries: " + string(section)}
	}
}

func workItemField(name string) (func(*types.WorkItem) *string, bool, error) {
	switch name {
	case "company":
		return func(w *types.WorkItem) *string { return &w.Company }, false, nil
	case "role":
		return func(w *types.WorkItem) *string { return &w.Role }, false, nil
	case "location":
		return func(w *types.WorkItem) *string { return &w.Location }, false, nil
	case "start_date":
		return func(w *types.WorkItem) *string { return &w.StartDate }, false, nil
	case "end_date":
		return func(w *types.WorkItem) *string { return &w.EndDate }, false, nil
	case "description":
		return func(w *types.WorkItem) *string { return &w.Description }, false, nil
	case "highlights":
		return nil, true, nil
	}
	return nil, false, &types.ValidationError{Field: "path", Message: "unknown experience field " + name}
}

func projectField(name string) (func(*types.Project) *string, bool, error) {
	switch name {
	case "name":
		return func(p *types.Project) *string { return &p.Name }, false, nil
	case "url":
		return func(p *types.Project) *string { return &p.URL }, false, nil
	case "description":
		return func(p *types.Project) *string { return &p.Description }, false, nil
	case "technologies":
		return nil, true, nil
	}
	return nil, false, &types.ValidationError{Field: "path", Message: "unknown project field " + name}
}

func educationField(name string) (func(*types.Education) *string, error) {
	switch name {
	case "institution":
		return func(e *types.Education) *string { return &e.Institution }, nil
	case "degree":
		return func(e *types.Education) *string { return &e.Degree }, nil
	case "field":
		return func(e *types.Education) *string { return &e.Field }, nil
	case "start_date":
		return func(e *types.Education) *string { return &e.StartDate }, nil
	case "end_date":
		return func(e *types.Education) *string { return &e.EndDate }, nil
	case "gpa":
		return func(e *types.Education) *string { return &e.GPA }, nil
	case "description":
		return func(e *types.Education) *string { return &e.Description }, nil
	}
	return nil, &types.ValidationError{Field: "path", Message: "unknown education field " + name}
}

func credentialField(name string) (func(*types.Credential) *string, error) {
	switch name {
	case "name":
		return func(c *types.Credential) *string { return &c.Name }, nil
	case "issuer":
		return func(c *types.Credential) *string { return &c.Issuer }, nil
	case "date":
		return func(c *types.Credential) *string { return &c.Date }, nil
	case "url":
		return func(c *types.Credential) *string { return &c.URL }, nil
	}
	return nil, &types.ValidationError{Field: "path", Message: "unknown certification field " + name}
}

func setString(field *string, value string) bool {
	if *field == value {
		return false
	}
	*field = value
	return true
}

func setList(field *[]string, values []string) bool {
	if slices.Equal(*field, values) {
		return false
	}
	*field = values
	return true
}

func splitLines(value string) []string {
	return splitTrim(value, "\n")
}

func splitCommas(value string) []string {
	return splitTrim(value, ",")
}

func splitTrim(value, sep string) []string {
	var out []string
	for _, part := range strings.Split(value, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
