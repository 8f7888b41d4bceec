// Package autosave periodically persists the live document once it passes the readiness
// check, and seeds the document from the persistence boundary on startup.
package autosave

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-editor/internal/types"
)

// Source returns a consistent copy of the live document. Implementations must never
// expose a document in the middle of a mutation.
type Source interface {
	Snapshot() types.Document
}

// Persister is the persistence boundary.
type Persister interface {
	// Persist stores a serialized document, replacing any previous one.
	Persist(ctx context.Context, data []byte) error
	// Load returns the stored document, or nil when nothing has been stored yet.
	Load(ctx context.Context) ([]byte, error)
}

// Status is the outcome of one tick.
type Status string

// Statuses
const (
	StatusSaved   Status = "saved"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result describes one tick.
type Result struct {
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
	Bytes  int       `json:"bytes,omitempty"`
	Err    error     `json:"-"`
}

// DefaultInterval is used when no interval is configured.
const DefaultInterval = 30 * time.Second

// flushTimeout bounds the final save performed on shutdown.
const flushTimeout = 5 * time.Second

// Scheduler saves the document on a fixed period.
type Scheduler struct {
	source    Source
	persister Persister
	interval  time.Duration
	logger    *zap.Logger
	notify    func(Result)
	now       func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNotify registers a callback invoked after every tick.
func WithNotify(fn func(Result)) Option {
	return func(s *Scheduler) { s.notify = fn }
}

// WithClock overrides the time source used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a scheduler. A non-positive interval means DefaultInterval.
func New(source Source, persister Persister, interval time.Duration, opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Scheduler{
		source:    source,
		persister: persister,
		interval:  interval,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the tick period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Run ticks until ctx is cancelled, then performs one last save so edits made since the
// previous tick are not lost. It always returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("autosave started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
			s.Tick(flushCtx)
			cancel()
			s.logger.Info("autosave stopped")
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick performs a single save attempt. A document that is not ready is skipped silently.
func (s *Scheduler) Tick(ctx context.Context) Result {
	res := s.tick(ctx)
	if s.notify != nil {
		s.notify(res)
	}
	return res
}

func (s *Scheduler) tick(ctx context.Context) Result {
	doc := s.source.Snapshot()
	if !doc.IsReady() {
		s.logger.Debug("autosave skipped: document not ready")
		return Result{Status: StatusSkipped, At: s.now()}
	}

	data, err := Encode(doc)
	if err != nil {
		s.logger.Error("failed to serialize document", zap.Error(err))
		return Result{Status: StatusFailed, At: s.now(), Err: err}
	}
	if err := s.persister.Persist(ctx, data); err != nil {
		s.logger.Error("failed to persist document", zap.Error(err))
		return Result{Status: StatusFailed, At: s.now(), Err: err}
	}

	s.logger.Debug("autosaved document", zap.Int("bytes", len(data)))
	return Result{Status: StatusSaved, At: s.now(), Bytes: len(data)}
}

// Encode serializes a document as a flat JSON record.
func Encode(doc types.Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}
