package composition

import (
	"slices"

	"github.com/jonathan/resume-editor/internal/types"
)

// Direction is the way a section moves in the order.
type Direction string

// Move directions
const (
	Up   Direction = "up"
	Down Direction = "down"
)

// The functions below are the only transitions applied to a Layout. Each takes the current
// layout and returns a complete new one, so order, visibility and custom sections always
// change together or not at all.

func toggleSection(l types.Layout, id types.SectionID) (types.Layout, bool) {
	if !l.HasSection(id) {
		return l, false
	}
	next := l.Clone()
	next.SectionVisibility[id] = !next.SectionVisibility[id]
	return next, true
}

func moveSection(l types.Layout, index int, dir Direction) (types.Layout, bool) {
	var target int
	switch dir {
	case Up:
		target = index - 1
	case Down:
		target = index + 1
	default:
		return l, false
	}
	if index < 0 || index >= len(l.SectionOrder) || target < 0 || target >= len(l.SectionOrder) {
		return l, false
	}
	next := l.Clone()
	next.SectionOrder[index], next.SectionOrder[target] = next.SectionOrder[target], next.SectionOrder[index]
	return next, true
}

func addSection(l types.Layout, cs types.CustomSection) types.Layout {
	next := l.Clone()
	next.CustomSections = append(next.CustomSections, cs)
	next.SectionOrder = append(next.SectionOrder, cs.ID)
	next.SectionVisibility[cs.ID] = true
	return next
}

func removeSection(l types.Layout, id types.SectionID) (types.Layout, bool) {
	if id.IsBuiltin() {
		return l, false
	}
	if _, ok := l.CustomSection(id); !ok {
		return l, false
	}
	next := l.Clone()
	next.CustomSections = slices.DeleteFunc(next.CustomSections, func(cs types.CustomSection) bool { return cs.ID == id })
	next.SectionOrder = slices.DeleteFunc(next.SectionOrder, func(s types.SectionID) bool { return s == id })
	delete(next.SectionVisibility, id)
	return next, true
}

func setSectionContent(l types.Layout, id types.SectionID, content string) (types.Layout, bool) {
	i := slices.IndexFunc(l.CustomSections, func(cs types.CustomSection) bool { return cs.ID == id })
	if i < 0 || l.CustomSections[i].Content == content {
		return l, false
	}
	next := l.Clone()
	next.CustomSections[i].Content = content
	return next, true
}
