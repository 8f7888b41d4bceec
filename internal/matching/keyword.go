package matching

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/jonathan/resume-editor/internal/types"
)

// vocabulary lists terms the keyword analyzer recognizes in job descriptions. Entries are
// lowercase and may span two words.
var vocabulary = []string{
	"go", "golang", "python", "java", "kotlin", "scala", "rust", "c++", "c#", "ruby", "php", "swift",
	"javascript", "typescript", "node.js", "react", "vue", "angular", "svelte", "graphql", "grpc", "rest",
	"sql", "postgresql", "postgres", "mysql", "sqlite", "mongodb", "redis", "cassandra", "elasticsearch",
	"kafka", "rabbitmq", "nats", "spark", "airflow", "dbt", "snowflake", "bigquery",
	"docker", "kubernetes", "k8s", "helm", "terraform", "ansible", "linux", "aws", "gcp", "azure",
	"ci/cd", "github actions", "jenkins", "prometheus", "grafana", "opentelemetry",
	"microservices", "distributed systems", "machine learning", "deep learning", "pytorch", "tensorflow",
	"data engineering", "system design", "agile", "scrum", "tdd", "security", "oauth",
}

var vocabularySet = func() map[string]bool {
	m := make(map[string]bool, len(vocabulary))
	for _, term := range vocabulary {
		m[term] = true
	}
	return m
}()

const maxSkillSuggestions = 5

// KeywordAnalyzer matches vocabulary terms without calling a model.
type KeywordAnalyzer struct{}

// NewKeywordAnalyzer creates a KeywordAnalyzer.
func NewKeywordAnalyzer() *KeywordAnalyzer {
	return &KeywordAnalyzer{}
}

// Analyze implements Analyzer.
func (KeywordAnalyzer) Analyze(_ context.Context, jobDescription string, doc types.Document) (*types.MatchAnalysis, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return nil, &types.ValidationError{Field: "job_description", Message: "is required"}
	}

	// Skills already on the document count as vocabulary for this run.
	known := make(map[string]bool, len(vocabularySet)+len(doc.Skills))
	for term := range vocabularySet {
		known[term] = true
	}
	for _, skill := range doc.Skills {
		known[types.SkillKey(skill)] = true
	}

	resumeTerms := termSet(resumeText(doc))
	for _, skill := range doc.Skills {
		resumeTerms[types.SkillKey(skill)] = true
	}

	analysis := &types.MatchAnalysis{MatchedKeywords: []string{}, MissingKeywords: []string{}}
	seen := make(map[string]bool)
	for _, term := range terms(jobDescription) {
		if !known[term] {
			continue
		}
		key := types.SkillKey(term)
		if seen[key] {
			continue
		}
		seen[key] = true
		if resumeTerms[term] || resumeTerms[key] {
			analysis.MatchedKeywords = append(analysis.MatchedKeywords, types.NormalizeSkillName(term))
		} else {
			analysis.MissingKeywords = append(analysis.MissingKeywords, types.NormalizeSkillName(term))
		}
	}

	total := len(analysis.MatchedKeywords) + len(analysis.MissingKeywords)
	if total > 0 {
		analysis.MatchScore = len(analysis.MatchedKeywords) * 100 / total
	}
	analysis.Recommendations = recommend(analysis, doc)
	return analysis, nil
}

func recommend(analysis *types.MatchAnalysis, doc types.Document) []types.Recommendation {
	recs := []types.Recommendation{}
	for i, kw := range analysis.MissingKeywords {
		if i == maxSkillSuggestions {
			break
		}
		recs = append(recs, types.Recommendation{
			Message: fmt.Sprintf("Add %s to your skills if you have used it", kw),
			Action:  types.ActionAddSkill,
			Value:   kw,
		})
	}
	if strings.TrimSpace(doc.Summary) == "" {
		recs = append(recs, types.Recommendation{
			Message: "Add a summary that names the role and your strongest matching skills",
			Action:  types.ActionAdvice,
		})
	}
	if len(analysis.MatchedKeywords) > 0 && len(analysis.MissingKeywords) > len(analysis.MatchedKeywords) {
		recs = append(recs, types.Recommendation{
			Message: "Mention the matched skills in your experience descriptions, not only the skills list",
			Action:  types.ActionAdvice,
		})
	}
	return recs
}

// resumeText concatenates the free text of the document.
func resumeText(doc types.Document) string {
	parts := []string{doc.Profile.Title, doc.Summary}
	for _, w := range doc.Experience {
		parts = append(parts, w.Role, w.Description)
		parts = append(parts, w.Highlights...)
	}
	for _, p := range doc.Projects {
		parts = append(parts, p.Name, p.Description)
		parts = append(parts, p.Technologies...)
	}
	for _, e := range doc.Education {
		parts = append(parts, e.Field, e.Description)
	}
	for _, c := range doc.Certifications {
		parts = append(parts, c.Name)
	}
	for _, cs := range doc.CustomSections {
		parts = append(parts, cs.Content)
	}
	return strings.Join(parts, "\n")
}

func termSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, term := range terms(text) {
		set[term] = true
		set[types.SkillKey(term)] = true
	}
	return set
}

// terms returns the lowercase words of text followed by each adjacent word pair, in order
// of appearance.
func terms(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune("+#./-", r)
	})
	out := make([]string, 0, len(words)*2)
	for i, w := range words {
		w = strings.Trim(w, ".-/")
		words[i] = w
		if w == "" {
			continue
		}
		out = append(out, w)
		if i > 0 && words[i-1] != "" {
			out = append(out, words[i-1]+" "+w)
		}
	}
	return out
}
