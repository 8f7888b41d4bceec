package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/resume-editor/internal/llm"
	"github.com/jonathan/resume-editor/internal/prompts"
	"github.com/jonathan/resume-editor/internal/types"
)

var toneGuidance = map[types.Tone]string{
	types.ToneProfessional:   "polished and neutral, suitable for most employers",
	types.ToneTechnical:      "precise, naming concrete technologies and methods",
	types.ToneCreative:       "vivid and distinctive while staying credible",
	types.ToneExecutive:      "strategic, focused on scope, leadership and business outcomes",
	types.ToneResultsFocused: "lead with measurable outcomes and impact",
	types.ToneCasual:         "friendly and plain-spoken",
	types.ToneFormal:         "formal and restrained",
}

var lengthGuidance = map[types.Length]struct {
	hint   string
	tokens int32
}{
	types.LengthConcise:  {"one or two sentences", 256},
	types.LengthMedium:   {"three to four sentences", 512},
	types.LengthDetailed: {"a full paragraph of five to seven sentences", 1024},
}

var toneTemperature = map[types.Tone]float32{
	types.ToneCreative: 0.9,
	types.ToneCasual:   0.7,
}

// LLMService generates section content with an LLM client.
type LLMService struct {
	client llm.Client
}

// NewLLMService wraps client.
func NewLLMService(client llm.Client) *LLMService {
	return &LLMService{client: client}
}

// Generate implements Service.
func (s *LLMService) Generate(ctx context.Context, req types.GenerationRequest) (string, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return "", err
	}

	tier := llm.TierStandard
	if req.Length == types.LengthConcise {
		tier = llm.TierLite
	}
	text, err := s.client.GenerateContent(ctx, prompt, llm.Options{
		Tier:            tier,
		Temperature:     toneTemperature[req.Tone],
		MaxOutputTokens: lengthGuidance[req.Length].tokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content for %s: %w", req.Target, err)
	}

	text = llm.CleanText(text)
	if text == "" {
		return "", fmt.Errorf("generation for %s returned empty content", req.Target)
	}
	return text, nil
}

// BuildPrompt renders the generation prompt for req.
func BuildPrompt(req types.GenerationRequest) (string, error) {
	instructions := strings.TrimSpace(req.Prompt)
	if instructions == "" {
		var err error
		if instructions, err = prompts.Get(prompts.GenerationFile, "default-instructions"); err != nil {
			return "", err
		}
	}
	current := strings.TrimSpace(req.Context)
	if current == "" {
		current = "(empty)"
	}

	return prompts.Render(prompts.GenerationFile, "section-content", map[string]string{
		"Target":         describeTarget(req.Target),
		"Tone":           string(req.Tone),
		"ToneGuidance":   toneGuidance[req.Tone],
		"Length":         string(req.Length),
		"LengthGuidance": lengthGuidance[req.Length].hint,
		"Current":        current,
		"Instructions":   instructions,
	})
}

func describeTarget(t types.Target) string {
	switch {
	case t.Section == types.SectionSummary:
		return "professional summary"
	case t.Section.IsCustom():
		return "custom section " + string(t.Section)
	case t.Section == types.SectionExperience:
		return "description of work-history entry " + t.EntryID
	case t.Section == types.SectionProjects:
		return "description of project " + t.EntryID
	case t.Section == types.SectionEducation:
		return "description of education entry " + t.EntryID
	}
	return t.String()
}
