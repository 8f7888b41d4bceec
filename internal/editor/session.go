// Package editor ties the document state engine together.
//
// A Session owns the composition store, the history log, the version manager and the
// generation coordinator. Every operation runs under one mutex, which plays the role of a
// single-threaded event loop: mutations, history transitions, version operations, merged
// generation results and autosave reads never interleave.
package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-editor/internal/autosave"
	"github.com/jonathan/resume-editor/internal/composition"
	"github.com/jonathan/resume-editor/internal/generation"
	"github.com/jonathan/resume-editor/internal/history"
	"github.com/jonathan/resume-editor/internal/ingestion"
	"github.com/jonathan/resume-editor/internal/matching"
	"github.com/jonathan/resume-editor/internal/schemas"
	"github.com/jonathan/resume-editor/internal/types"
	"github.com/jonathan/resume-editor/internal/versions"
)

// VersionStore persists versions. A Session works without one.
type VersionStore interface {
	SaveVersion(ctx context.Context, v types.Version) error
	DeleteVersion(ctx context.Context, id string) error
	LoadVersions(ctx context.Context) ([]types.Version, error)
}

// Session is the live editing session for one document. It is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	store    *composition.Store
	history  *history.Log
	versions *versions.Manager
	coord    *generation.Coordinator
	analyzer matching.Analyzer
	vstore   VersionStore
	events   *broker
	logger   *zap.Logger
	now      func() time.Time

	autoCapture bool
	// dirty is set by every change to the live document and cleared when the document is
	// captured in or loaded from a version.
	dirty bool

	async *generation.AsyncDispatcher
}

type settings struct {
	historyLimit   int
	autoCapture    bool
	logger         *zap.Logger
	dispatcher     generation.Dispatcher
	service        generation.Service
	dispatchConfig generation.DispatcherConfig
	analyzer       matching.Analyzer
	vstore         VersionStore
	versionOpts    []versions.Option
	generationOpts []generation.Option
	now            func() time.Time
}

// Option configures a Session.
type Option func(*settings)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHistoryLimit bounds the undo log. Zero means unbounded.
func WithHistoryLimit(n int) Option {
	return func(s *settings) { s.historyLimit = n }
}

// WithAutoCapture enables capturing the live document as a version before another
// version is activated, when it changed since it was last captured or loaded.
func WithAutoCapture(enabled bool) Option {
	return func(s *settings) { s.autoCapture = enabled }
}

// WithGenerationService runs generation requests on service through an AsyncDispatcher.
func WithGenerationService(service generation.Service, cfg generation.DispatcherConfig) Option {
	return func(s *settings) {
		s.service = service
		s.dispatchConfig = cfg
	}
}

// WithDispatcher sends generation requests to d. Results must be handed back through
// DeliverGeneration.
func WithDispatcher(d generation.Dispatcher) Option {
	return func(s *settings) { s.dispatcher = d }
}

// WithAnalyzer sets the job-match analyzer. The keyword analyzer is used by default.
func WithAnalyzer(a matching.Analyzer) Option {
	return func(s *settings) { s.analyzer = a }
}

// WithVersionStore persists versions through vs.
func WithVersionStore(vs VersionStore) Option {
	return func(s *settings) { s.vstore = vs }
}

// WithVersionOptions passes options to the version manager.
func WithVersionOptions(opts ...versions.Option) Option {
	return func(s *settings) { s.versionOpts = append(s.versionOpts, opts...) }
}

// WithGenerationOptions passes options to the generation coordinator.
func WithGenerationOptions(opts ...generation.Option) Option {
	return func(s *settings) { s.generationOpts = append(s.generationOpts, opts...) }
}

// WithClock overrides the time used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// discardDispatcher drops requests. It is used when no generation backend is configured;
// the requests stay in flight forever, which the coordinator tolerates.
type discardDispatcher struct{ logger *zap.Logger }

func (d discardDispatcher) Dispatch(_ context.Context, req types.GenerationRequest) {
	d.logger.Warn("no generation backend configured, dropping request", zap.String("generation_id", req.GenerationID))
}

// NewSession starts a session on initial.
func NewSession(initial types.Document, opts ...Option) *Session {
	cfg := settings{logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Session{
		events:      newBroker(),
		logger:      cfg.logger,
		now:         cfg.now,
		autoCapture: cfg.autoCapture,
		vstore:      cfg.vstore,
		analyzer:    cfg.analyzer,
	}
	if s.analyzer == nil {
		s.analyzer = matching.NewKeywordAnalyzer()
	}

	s.store = composition.New(initial, s.onCommit)
	s.history = history.New(s.store.Document(), history.WithCapacity(cfg.historyLimit))
	s.versions = versions.NewManager(cfg.versionOpts...)

	dispatcher := cfg.dispatcher
	if dispatcher == nil && cfg.service != nil {
		if cfg.dispatchConfig.Logger == nil {
			cfg.dispatchConfig.Logger = cfg.logger
		}
		s.async = generation.NewAsyncDispatcher(cfg.service, func(res types.GenerationResult) {
			s.DeliverGeneration(res)
		}, cfg.dispatchConfig)
		dispatcher = s.async
	}
	if dispatcher == nil {
		dispatcher = discardDispatcher{logger: cfg.logger}
	}
	genOpts := append([]generation.Option{generation.WithLogger(cfg.logger)}, cfg.generationOpts...)
	s.coord = generation.NewCoordinator(s.store, dispatcher, genOpts...)
	return s
}

// onCommit runs inside a locked operation for every accepted mutation.
func (s *Session) onCommit(doc types.Document) {
	s.history.Commit(doc)
	s.dirty = true
	s.publish(EventCommitted, s.history.State())
}

func (s *Session) publish(t EventType, data any) {
	if dropped := s.events.publish(Event{Type: t, At: s.now(), Data: data}); dropped > 0 {
		s.logger.Debug("event dropped for slow subscribers", zap.String("event", string(t)), zap.Int("subscribers", dropped))
	}
}

// Subscribe returns a stream of session events and a function that ends the subscription.
func (s *Session) Subscribe() (<-chan Event, func()) {
	return s.events.subscribe()
}

// Wait blocks until every dispatched generation request has been delivered.
func (s *Session) Wait() {
	if s.async != nil {
		s.async.Wait()
	}
}

// Document returns a copy of the live document.
func (s *Session) Document() types.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Document()
}

// Snapshot implements autosave.Source.
func (s *Session) Snapshot() types.Document {
	return s.Document()
}

// HistoryState returns the undo/redo position.
func (s *Session) HistoryState() history.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.State()
}

// ToggleVisibility flips a section's visibility.
func (s *Session) ToggleVisibility(id types.SectionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ToggleVisibility(id)
}

// MoveSection moves the section at index one step in dir.
func (s *Session) MoveSection(index int, dir composition.Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.MoveSection(index, dir)
}

// AddCustomSection creates a custom section.
func (s *Session) AddCustomSection(name, content string) (types.SectionID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.AddCustomSection(name, content)
}

// DeleteCustomSection removes a custom section.
func (s *Session) DeleteCustomSection(id types.SectionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.DeleteCustomSection(id)
}

// UpdateCustomSectionContent replaces a custom section's body.
func (s *Session) UpdateCustomSectionContent(id types.SectionID, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.UpdateCustomSectionContent(id, content)
}

// AddCustomField creates a custom field.
func (s *Session) AddCustomField(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.AddCustomField(name)
}

// RemoveCustomField deletes a custom field.
func (s *Session) RemoveCustomField(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.RemoveCustomField(id)
}

// UpdateCustomField sets a custom field's value.
func (s *Session) UpdateCustomField(id, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.UpdateCustomField(id, value)
}

// UpdateField writes value at a field path.
func (s *Session) UpdateField(path, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.UpdateField(path, value)
}

// AddEntry appends an empty entry to a collection section.
func (s *Session) AddEntry(section types.SectionID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.AddEntry(section)
}

// RemoveEntry deletes an entry from a collection section.
func (s *Session) RemoveEntry(section types.SectionID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.RemoveEntry(section, id)
}

// AddSkill adds a skill tag.
func (s *Session) AddSkill(skill string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.AddSkill(skill)
}

// RemoveSkill removes a skill tag.
func (s *Session) RemoveSkill(skill string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.RemoveSkill(skill)
}

// Edit runs fn against the composition store as one step of the event loop and returns the
// history position that step left behind. Callers reporting the position use it instead of a
// separate HistoryState call, which could observe a concurrent edit.
func (s *Session) Edit(fn func(*composition.Store) (bool, error)) (bool, history.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed, err := fn(s.store)
	return changed, s.history.State(), err
}

// Undo steps back one history entry. Adopting the entry is not a commit.
func (s *Session) Undo() bool {
	ok, _ := s.UndoWithState()
	return ok
}

// UndoWithState is Undo that also returns the resulting history position.
func (s *Session) UndoWithState() (bool, history.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.history.Undo()
	if !ok {
		return false, s.history.State()
	}
	s.store.Replace(doc)
	s.dirty = true
	state := s.history.State()
	s.publish(EventUndo, state)
	return true, state
}

// Redo steps forward one history entry. Adopting the entry is not a commit.
func (s *Session) Redo() bool {
	ok, _ := s.RedoWithState()
	return ok
}

// RedoWithState is Redo that also returns the resulting history position.
func (s *Session) RedoWithState() (bool, history.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.history.Redo()
	if !ok {
		return false, s.history.State()
	}
	s.store.Replace(doc)
	s.dirty = true
	state := s.history.State()
	s.publish(EventRedo, state)
	return true, state
}

// Import validates a serialized document and, only if every check passes, adopts it as a
// single undoable edit.
func (s *Session) Import(data []byte) error {
	_, err := s.ImportWithState(data)
	return err
}

// ImportWithState is Import that also returns the resulting history position.
func (s *Session) ImportWithState(data []byte) (history.State, error) {
	doc, err := schemas.DecodeDocument(data)
	if err != nil {
		return history.State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.ReplaceAndCommit(doc)
	state := s.history.State()
	s.publish(EventImported, state)
	return state, nil
}

// Export serializes the live document.
func (s *Session) Export() ([]byte, error) {
	data, err := json.MarshalIndent(s.Document(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to export document: %w", err)
	}
	return data, nil
}

// Generate issues a generation request and returns its id without waiting for the result.
func (s *Session) Generate(ctx context.Context, p generation.Params) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coord.Issue(ctx, p)
}

// DeliverGeneration hands a generation result to the coordinator. Stale results leave the
// document untouched and are reported once through the event stream.
func (s *Session) DeliverGeneration(res types.GenerationResult) generation.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := s.coord.OnResult(res)
	switch report.Outcome {
	case generation.OutcomeStale:
		s.logger.Info("discarded stale generation result",
			zap.String("generation_id", report.GenerationID),
			zap.Stringer("target", report.Target),
			zap.String("reason", report.Detail))
	case generation.OutcomeFailed:
		s.logger.Warn("generation failed", zap.String("generation_id", report.GenerationID), zap.String("detail", report.Detail))
	case generation.OutcomeDuplicate, generation.OutcomeUnknown:
		s.logger.Debug("ignored generation result", zap.String("generation_id", report.GenerationID), zap.String("outcome", string(report.Outcome)))
		return report
	}
	s.publish(EventGeneration, report)
	return report
}

// InFlightGenerations returns the number of requests awaiting a result.
func (s *Session) InFlightGenerations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coord.InFlight()
}

// AnalyzeMatch compares the live document with a job description, which may be pasted
// HTML. The analysis runs on a snapshot, outside the session lock.
func (s *Session) AnalyzeMatch(ctx context.Context, jobDescription string) (*types.MatchAnalysis, error) {
	text, err := ingestion.JobDescription(jobDescription)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Analyze(ctx, text, s.Document())
}

// ApplyRecommendation applies one recommendation as a single undoable edit.
func (s *Session) ApplyRecommendation(rec types.Recommendation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ApplyRecommendation(rec)
}

type autosaveEvent struct {
	Status autosave.Status `json:"status"`
	Bytes  int             `json:"bytes,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// NotifyAutosave publishes an autosave outcome. Skipped ticks are not published.
func (s *Session) NotifyAutosave(res autosave.Result) {
	if res.Status == autosave.StatusSkipped {
		return
	}
	ev := autosaveEvent{Status: res.Status, Bytes: res.Bytes}
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}
	s.publish(EventAutosave, ev)
}
