// Package generation coordinates asynchronous content generation and merges results back
// into the live document.
//
// Every request is tagged with a generation id and the target it was issued for. When a
// result arrives the coordinator accepts it only if that id is still the newest one issued
// for the target and the target still exists; anything else is discarded as stale.
package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-editor/internal/composition"
	"github.com/jonathan/resume-editor/internal/types"
)

// Workspace is the part of the composition store the coordinator reads and writes.
type Workspace interface {
	TargetText(t types.Target) (string, bool)
	MergeGenerated(t types.Target, content string) bool
}

// Dispatcher hands a request to the generation service. It must return immediately.
type Dispatcher interface {
	Dispatch(ctx context.Context, req types.GenerationRequest)
}

// Outcome classifies what happened to a delivered result.
type Outcome string

// Outcomes
const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeStale     Outcome = "stale"
	OutcomeFailed    Outcome = "failed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeUnknown   Outcome = "unknown"
)

// Report describes the handling of one result.
type Report struct {
	GenerationID string       `json:"generation_id"`
	Target       types.Target `json:"target"`
	Outcome      Outcome      `json:"outcome"`
	// Changed is true when an accepted result modified the document.
	Changed bool   `json:"changed"`
	Detail  string `json:"detail,omitempty"`
	Err     error  `json:"-"`
}

// Params are the caller-supplied parts of a generation request.
type Params struct {
	Target types.Target `json:"target" validate:"required"`
	Prompt string       `json:"prompt"`
	Tone   types.Tone   `json:"tone,omitempty" validate:"omitempty,oneof=professional technical creative executive results-focused casual formal"`
	Length types.Length `json:"length,omitempty" validate:"omitempty,oneof=concise medium detailed"`
}

// Coordinator tracks in-flight requests. It is not safe for concurrent use; the editor
// session serializes Issue and OnResult with every other mutation.
type Coordinator struct {
	workspace  Workspace
	dispatcher Dispatcher
	logger     *zap.Logger
	newID      func() string

	pending   map[string]types.Target
	latest    map[string]string
	settled   map[string]Outcome
	abandoned map[string]string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIDGenerator overrides generation id allocation.
func WithIDGenerator(newID func() string) Option {
	return func(c *Coordinator) { c.newID = newID }
}

// NewCoordinator creates a coordinator writing into workspace and sending through dispatcher.
func NewCoordinator(workspace Workspace, dispatcher Dispatcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		workspace:  workspace,
		dispatcher: dispatcher,
		logger:     zap.NewNop(),
		newID:      func() string { return uuid.New().String() },
		pending:    make(map[string]types.Target),
		latest:     make(map[string]string),
		settled:    make(map[string]Outcome),
		abandoned:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue validates the target, allocates a generation id, dispatches the request and returns
// the id without waiting for the result. A newer Issue for the same target supersedes any
// request still in flight for it.
func (c *Coordinator) Issue(ctx context.Context, p Params) (string, error) {
	if err := composition.CheckTarget(p.Target); err != nil {
		return "", err
	}
	tone, length, err := normalizeStyle(p.Tone, p.Length)
	if err != nil {
		return "", err
	}
	current, ok := c.workspace.TargetText(p.Target)
	if !ok {
		return "", &types.NotFoundError{Kind: "target", ID: p.Target.String()}
	}

	id := c.newID()
	c.pending[id] = p.Target
	if prev, inFlight := c.latest[p.Target.String()]; inFlight {
		c.logger.Debug("superseding generation request",
			zap.String("previous_id", prev), zap.String("generation_id", id), zap.Stringer("target", p.Target))
	}
	c.latest[p.Target.String()] = id

	c.dispatcher.Dispatch(ctx, types.GenerationRequest{
		GenerationID: id,
		Target:       p.Target,
		Prompt:       strings.TrimSpace(p.Prompt),
		Tone:         tone,
		Length:       length,
		Context:      current,
	})
	return id, nil
}

// OnResult merges a delivered result when it is current and its target still exists.
// Every id is handled at most once; later deliveries of the same id are duplicates.
func (c *Coordinator) OnResult(res types.GenerationResult) Report {
	id := res.GenerationID
	if _, done := c.settled[id]; done {
		return Report{GenerationID: id, Outcome: OutcomeDuplicate}
	}
	target, ok := c.pending[id]
	if !ok {
		return Report{GenerationID: id, Outcome: OutcomeUnknown, Detail: "generation id was never issued"}
	}
	delete(c.pending, id)

	report := c.settle(id, target, res)
	c.settled[id] = report.Outcome
	return report
}

func (c *Coordinator) settle(id string, target types.Target, res types.GenerationResult) Report {
	if reason, ok := c.abandoned[id]; ok {
		delete(c.abandoned, id)
		return stale(id, target, reason)
	}
	key := target.String()
	if c.latest[key] != id {
		return stale(id, target, "superseded by a newer request")
	}
	delete(c.latest, key)

	if res.Failed() {
		return Report{
			GenerationID: id,
			Target:       target,
			Outcome:      OutcomeFailed,
			Detail:       res.Failure,
			Err:          fmt.Errorf("generation %s failed: %s", id, res.Failure),
		}
	}
	if _, exists := c.workspace.TargetText(target); !exists {
		return stale(id, target, "target no longer exists")
	}

	changed := c.workspace.MergeGenerated(target, res.Content)
	return Report{GenerationID: id, Target: target, Outcome: OutcomeAccepted, Changed: changed}
}

func stale(id string, target types.Target, reason string) Report {
	return Report{
		GenerationID: id,
		Target:       target,
		Outcome:      OutcomeStale,
		Detail:       reason,
		Err:          &types.StaleResultError{GenerationID: id, Target: target, Reason: reason},
	}
}

// Abandon makes every request still in flight stale. It is used when the whole document is
// swapped out, since content generated from the old document must not land in the new one.
// The results are still reported once, as stale, when they arrive.
func (c *Coordinator) Abandon(reason string) int {
	for id := range c.pending {
		c.abandoned[id] = reason
	}
	clear(c.latest)
	return len(c.pending)
}

// InFlight returns the number of issued requests without a delivered result.
func (c *Coordinator) InFlight() int {
	return len(c.pending)
}

func normalizeStyle(tone types.Tone, length types.Length) (types.Tone, types.Length, error) {
	if tone == "" {
		tone = types.ToneProfessional
	}
	if length == "" {
		length = types.LengthMedium
	}
	if _, ok := toneGuidance[tone]; !ok {
		return "", "", &types.ValidationError{Field: "tone", Message: "unsupported tone " + string(tone)}
	}
	if _, ok := lengthGuidance[length]; !ok {
		return "", "", &types.ValidationError{Field: "length", Message: "unsupported length " + string(length)}
	}
	return tone, length, nil
}
