package types

import "fmt"

// Check verifies that the section order is a permutation of the built-ins plus the existing
// custom sections and that visibility has exactly one entry per ordered section.
func (l Layout) Check() error {
	seen := make(map[SectionID]struct{}, len(l.SectionOrder))
	for _, id := range l.SectionOrder {
		if _, dup := seen[id]; dup {
			return &InvariantError{Message: fmt.Sprintf("duplicate section %q in order", id)}
		}
		seen[id] = struct{}{}
	}

	for _, id := range BuiltinSections() {
		if _, ok := seen[id]; !ok {
			return &InvariantError{Message: fmt.Sprintf("built-in section %q missing from order", id)}
		}
	}

	custom := make(map[SectionID]struct{}, len(l.CustomSections))
	for _, cs := range l.CustomSections {
		if _, dup := custom[cs.ID]; dup {
			return &InvariantError{Message: fmt.Sprintf("duplicate custom section %q", cs.ID)}
		}
		custom[cs.ID] = struct{}{}
		if _, ok := seen[cs.ID]; !ok {
			return &InvariantError{Message: fmt.Sprintf("custom section %q missing from order", cs.ID)}
		}
	}

	for id := range seen {
		if id.IsBuiltin() {
			continue
		}
		if _, ok := custom[id]; !ok {
			return &InvariantError{Message: fmt.Sprintf("order references unknown section %q", id)}
		}
	}

	if len(l.SectionVisibility) != len(seen) {
		return &InvariantError{Message: fmt.Sprintf("visibility has %d keys, order has %d sections", len(l.SectionVisibility), len(seen))}
	}
	for id := range l.SectionVisibility {
		if _, ok := seen[id]; !ok {
			return &InvariantError{Message: fmt.Sprintf("visibility entry %q has no section", id)}
		}
	}

	return nil
}
