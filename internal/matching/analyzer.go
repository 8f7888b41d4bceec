// Package matching compares the document with a job description and suggests edits.
//
// Two analyzers are provided: an LLM-backed one and a deterministic keyword analyzer used
// when no model is configured. Both return recommendations that the editor applies through
// the regular mutation path, so every applied suggestion is undoable.
package matching

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/resume-editor/internal/llm"
	"github.com/jonathan/resume-editor/internal/prompts"
	"github.com/jonathan/resume-editor/internal/types"
)

// Analyzer produces a match analysis for doc against a job description.
type Analyzer interface {
	Analyze(ctx context.Context, jobDescription string, doc types.Document) (*types.MatchAnalysis, error)
}

var validate = validator.New()

// LLMAnalyzer asks a language model for the analysis.
type LLMAnalyzer struct {
	client llm.Client
	logger *zap.Logger
}

// NewLLMAnalyzer creates an analyzer backed by client.
func NewLLMAnalyzer(client llm.Client, logger *zap.Logger) *LLMAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMAnalyzer{client: client, logger: logger}
}

// Analyze implements Analyzer.
func (a *LLMAnalyzer) Analyze(ctx context.Context, jobDescription string, doc types.Document) (*types.MatchAnalysis, error) {
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		return nil, &types.ValidationError{Field: "job_description", Message: "is required"}
	}

	resume, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	prompt, err := prompts.Render(prompts.MatchingFile, "analyze-match", map[string]string{
		"JobDescription": jobDescription,
		"Resume":         string(resume),
	})
	if err != nil {
		return nil, err
	}

	// Use TierAdvanced for structured analysis (requires reasoning)
	responseText, err := a.client.GenerateJSON(ctx, prompt, llm.Options{Tier: llm.TierAdvanced})
	if err != nil {
		return nil, &APICallError{Message: "failed to analyze job match", Cause: err}
	}

	var analysis types.MatchAnalysis
	if err := json.Unmarshal([]byte(responseText), &analysis); err != nil {
		return nil, &ParseError{Message: "failed to parse match analysis", Cause: err}
	}
	a.postProcess(&analysis)
	return &analysis, nil
}

// postProcess clamps the score, normalizes keywords and drops recommendations that could
// not be applied or shown.
func (a *LLMAnalyzer) postProcess(analysis *types.MatchAnalysis) {
	analysis.MatchScore = min(max(analysis.MatchScore, 0), 100)
	analysis.MatchedKeywords = normalizeKeywords(analysis.MatchedKeywords)
	analysis.MissingKeywords = normalizeKeywords(analysis.MissingKeywords)

	kept := make([]types.Recommendation, 0, len(analysis.Recommendations))
	for _, rec := range analysis.Recommendations {
		rec.Message = strings.TrimSpace(rec.Message)
		if rec.Action == types.ActionAddSkill {
			rec.Value = types.NormalizeSkillName(rec.Value)
		}
		if err := validate.Struct(rec); err != nil {
			a.logger.Debug("dropping invalid recommendation", zap.String("message", rec.Message), zap.Error(err))
			continue
		}
		kept = append(kept, rec)
	}
	analysis.Recommendations = kept
}

func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		name := types.NormalizeSkillName(k)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}
