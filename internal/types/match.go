package types

// RecommendationAction says how a recommendation changes the document when applied.
type RecommendationAction string

// Recommendation actions
const (
	// ActionAddSkill adds Value to the skills section.
	ActionAddSkill RecommendationAction = "add_skill"
	// ActionSetField writes Value at the field path Path.
	ActionSetField RecommendationAction = "set_field"
	// ActionAdvice is informational only and cannot be applied.
	ActionAdvice RecommendationAction = "advice"
)

// Recommendation is one suggestion from job-match analysis.
type Recommendation struct {
	Message string               `json:"message" validate:"required"`
	Action  RecommendationAction `json:"action" validate:"required,oneof=add_skill set_field advice"`
	Path    string               `json:"path,omitempty" validate:"required_if=Action set_field"`
	Value   string               `json:"value,omitempty" validate:"required_unless=Action advice"`
}

// MatchAnalysis is the response of the job-match analysis service.
type MatchAnalysis struct {
	MatchScore      int              `json:"match_score" validate:"min=0,max=100"`
	MatchedKeywords []string         `json:"matched_keywords"`
	MissingKeywords []string         `json:"missing_keywords"`
	Recommendations []Recommendation `json:"recommendations" validate:"dive"`
}
