// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-editor/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for CLI commands
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or right-pads line to the box's inner width, counting runes.
func pad(line string) string {
	width := boxWidth - 4
	if utf8.RuneCountInString(line) > width {
		return string([]rune(line)[:width-3]) + "..."
	}
	return line + strings.Repeat(" ", width-utf8.RuneCountInString(line))
}

// PrintDocument outputs a summary of a document in section order.
func (p *Printer) PrintDocument(doc types.Document) {
	var sb strings.Builder

	name := doc.Profile.Name
	if name == "" {
		name = "(unnamed)"
	}
	sb.WriteString(name)
	if doc.Profile.Title != "" {
		sb.WriteString(" · " + doc.Profile.Title)
	}
	sb.WriteString("\n")
	if doc.Profile.Email != "" {
		sb.WriteString(doc.Profile.Email + "\n")
	}
	if !doc.IsReady() {
		sb.WriteString("(not ready to save: name and email required)\n")
	}
	sb.WriteString("\n")

	for _, id := range doc.SectionOrder {
		marker := "●"
		if !doc.SectionVisibility[id] {
			marker = "○"
		}
		sb.WriteString(fmt.Sprintf("%s %-16s %s\n", marker, sectionLabel(doc, id), sectionDetail(doc, id)))
	}

	if len(doc.CustomFields) > 0 {
		sb.WriteString("\nCustom fields:\n")
		for _, f := range doc.CustomFields {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", f.Name, f.Value))
		}
	}

	p.printBox("DOCUMENT", strings.TrimSuffix(sb.String(), "\n"))
}

func sectionLabel(doc types.Document, id types.SectionID) string {
	if cs, ok := doc.CustomSection(id); ok {
		return cs.Name
	}
	return string(id)
}

func sectionDetail(doc types.Document, id types.SectionID) string {
	switch id {
	case types.SectionSummary:
		if doc.Summary == "" {
			return "empty"
		}
		return fmt.Sprintf("%d chars", utf8.RuneCountInString(doc.Summary))
	case types.SectionSkills:
		return listPreview(doc.Skills)
	case types.SectionExperience:
		return countLabel(len(doc.Experience), "entry", "entries")
	case types.SectionProjects:
		return countLabel(len(doc.Projects), "entry", "entries")
	case types.SectionEducation:
		return countLabel(len(doc.Education), "entry", "entries")
	case types.SectionCertifications:
		return countLabel(len(doc.Certifications), "entry", "entries")
	}
	if cs, ok := doc.CustomSection(id); ok {
		return fmt.Sprintf("%d chars", utf8.RuneCountInString(cs.Content))
	}
	return ""
}

func countLabel(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}

func listPreview(items []string) string {
	if len(items) == 0 {
		return "empty"
	}
	count := min(len(items), maxItemsToShow)
	s := strings.Join(items[:count], ", ")
	if len(items) > maxItemsToShow {
		s += fmt.Sprintf(" +%d", len(items)-maxItemsToShow)
	}
	return s
}

// PrintVersionTree outputs the version forest, children indented under their parents.
// The active version is marked with an asterisk.
func (p *Printer) PrintVersionTree(versions []types.Version, activeID string) {
	if len(versions) == 0 {
		p.printBox("VERSIONS", "No versions saved")
		return
	}

	known := make(map[string]bool, len(versions))
	for _, v := range versions {
		known[v.ID] = true
	}
	children := make(map[string][]types.Version)
	var roots []types.Version
	for _, v := range versions {
		if v.ParentID == "" || !known[v.ParentID] {
			roots = append(roots, v)
			continue
		}
		children[v.ParentID] = append(children[v.ParentID], v)
	}

	var sb strings.Builder
	var walk func(v types.Version, depth int)
	walk = func(v types.Version, depth int) {
		marker := " "
		if v.ID == activeID {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf("%s %s%s  %s", marker, strings.Repeat("  ", depth), v.Name, v.CreatedAt.Format("2006-01-02 15:04")))
		if len(v.Tags) > 0 {
			sb.WriteString(" [" + strings.Join(v.Tags, ", ") + "]")
		}
		sb.WriteString("\n")
		for _, c := range children[v.ID] {
			walk(c, depth+1)
		}
	}
	for _, r := range roots {
		walk(r, 0)
	}

	p.printBox(fmt.Sprintf("VERSIONS (%d)", len(versions)), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMatchAnalysis outputs a job-match analysis.
func (p *Printer) PrintMatchAnalysis(analysis *types.MatchAnalysis) {
	if analysis == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Match score: %d/100\n\n", analysis.MatchScore))
	sb.WriteString("Matched: " + listPreview(analysis.MatchedKeywords) + "\n")
	sb.WriteString("Missing: " + listPreview(analysis.MissingKeywords) + "\n")

	if len(analysis.Recommendations) > 0 {
		sb.WriteString("\nRecommendations:\n")
		for _, rec := range analysis.Recommendations {
			sb.WriteString("  • " + rec.Message + "\n")
		}
	}

	p.printBox("JOB MATCH", strings.TrimSuffix(sb.String(), "\n"))
}
