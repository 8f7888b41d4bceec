package types

// Tone is the voice requested from the generation service.
type Tone string

// Supported tones
const (
	ToneProfessional   Tone = "professional"
	ToneTechnical      Tone = "technical"
	ToneCreative       Tone = "creative"
	ToneExecutive      Tone = "executive"
	ToneResultsFocused Tone = "results-focused"
	ToneCasual         Tone = "casual"
	ToneFormal         Tone = "formal"
)

// Length is the requested size of generated content.
type Length string

// Supported lengths
const (
	LengthConcise  Length = "concise"
	LengthMedium   Length = "medium"
	LengthDetailed Length = "detailed"
)

// Target locates the entity generated content is merged into: a whole section
// (summary or a custom section) or one entry inside a collection section.
type Target struct {
	Section SectionID `json:"section" validate:"required"`
	EntryID string    `json:"entry_id,omitempty"`
}

// String renders the target as "section" or "section/entry".
func (t Target) String() string {
	if t.EntryID == "" {
		return string(t.Section)
	}
	return string(t.Section) + "/" + t.EntryID
}

// GenerationRequest is what the engine sends to the generation service.
type GenerationRequest struct {
	GenerationID string `json:"generation_id"`
	Target       Target `json:"target"`
	Prompt       string `json:"prompt"`
	Tone         Tone   `json:"tone" validate:"omitempty,oneof=professional technical creative executive results-focused casual formal"`
	Length       Length `json:"length" validate:"omitempty,oneof=concise medium detailed"`
	// Context is the current text of the target, given to the service as a starting point.
	Context string `json:"context,omitempty"`
}

// GenerationResult is delivered asynchronously by the generation service. Exactly one of
// Content or Failure is meaningful.
type GenerationResult struct {
	GenerationID string `json:"generation_id"`
	Content      string `json:"content,omitempty"`
	Failure      string `json:"failure,omitempty"`
}

// Failed reports whether the service reported a failure.
func (r GenerationResult) Failed() bool {
	return r.Failure != ""
}
