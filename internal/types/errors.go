package types

import (
	"fmt"
	"strings"
)

// NotFoundError indicates an operation referenced an id that does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ValidationError indicates a single invalid input value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one input.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// StaleResultError reports a generation result that was discarded because its
// target vanished or a newer request superseded it.
type StaleResultError struct {
	GenerationID string
	Target       Target
	Reason       string
}

func (e *StaleResultError) Error() string {
	return fmt.Sprintf("stale generation result %s for %s: %s", e.GenerationID, e.Target, e.Reason)
}

// InvariantError reports a desync between section order, visibility and custom sections.
// It is a defect when observed, never an expected runtime condition.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return "layout invariant violated: " + e.Message
}
