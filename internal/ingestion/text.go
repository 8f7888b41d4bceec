// Package ingestion turns pasted job postings, plain text or HTML, into clean text for
// job-match analysis.
package ingestion

import (
	"regexp"
	"strings"

	"github.com/jonathan/resume-editor/internal/types"
)

var (
	spaceRun      = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	blankLineRun  = regexp.MustCompile(`\n{3,}`)
	htmlSignature = regexp.MustCompile(`(?i)<(html|body|div|p|ul|ol|li|br|h[1-6]|section|article|main|span)[\s/>]`)
)

// JobDescription normalizes a job posting. HTML input is reduced to the text of its main
// content first. An input with no text left is a validation error.
func JobDescription(input string) (string, error) {
	text := input
	if LooksLikeHTML(input) {
		extracted, err := ExtractMainText(input, JobPostingSelectors())
		if err != nil {
			return "", &types.ValidationError{Field: "job_description", Message: err.Error()}
		}
		text = extracted
	}
	text = CleanText(text)
	if text == "" {
		return "", &types.ValidationError{Field: "job_description", Message: "must not be blank"}
	}
	return text, nil
}

// LooksLikeHTML reports whether s contains common block-level HTML tags.
func LooksLikeHTML(s string) bool {
	return htmlSignature.MatchString(s)
}

// CleanText cleans and normalizes text content while preserving structure
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	// Normalize line endings (CRLF → LF)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := strings.Join(lines, "\n")
	result = blankLineRun.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine trims a line and collapses inner whitespace. Markdown headings and bullets
// lose their indentation but keep their markers.
func cleanLine(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return ""
	}
	if isBulletLine(trimmed) {
		return "- " + spaceRun.ReplaceAllString(strings.TrimSpace(trimmed[bulletWidth(trimmed):]), " ")
	}
	return spaceRun.ReplaceAllString(trimmed, " ")
}

var bulletMarkers = []string{"- ", "* ", "• ", "· "}

// isBulletLine checks if a line is a bullet list item
func isBulletLine(line string) bool {
	return bulletWidth(line) > 0
}

func bulletWidth(line string) int {
	for _, m := range bulletMarkers {
		if strings.HasPrefix(line, m) {
			return len(m)
		}
	}
	return 0
}
