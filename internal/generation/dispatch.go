package generation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/jonathan/resume-editor/internal/types"
)

// Service produces content for one request. Implementations may block for as long as the
// provider takes; the dispatcher runs them off the caller's goroutine.
type Service interface {
	Generate(ctx context.Context, req types.GenerationRequest) (string, error)
}

// DeliverFunc receives results. It is called from dispatcher goroutines.
type DeliverFunc func(types.GenerationResult)

// AsyncDispatcher runs each request on its own goroutine, bounded by a semaphore, and
// delivers the outcome through a callback in whatever order requests finish.
type AsyncDispatcher struct {
	service Service
	deliver DeliverFunc
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// DispatcherConfig tunes an AsyncDispatcher.
type DispatcherConfig struct {
	// MaxConcurrent bounds in-flight service calls. Values below 1 mean 4.
	MaxConcurrent int64
	// Timeout bounds a single service call. Zero means no timeout.
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewAsyncDispatcher creates a dispatcher calling service and handing results to deliver.
func NewAsyncDispatcher(service Service, deliver DeliverFunc, cfg DispatcherConfig) *AsyncDispatcher {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &AsyncDispatcher{
		service: service,
		deliver: deliver,
		sem:     semaphore.NewWeighted(cfg.MaxConcurrent),
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
}

// Dispatch starts the request and returns immediately. The request outlives ctx's
// cancellation: a client disconnecting does not abort generation.
func (d *AsyncDispatcher) Dispatch(ctx context.Context, req types.GenerationRequest) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(d.run(ctx, req))
	}()
}

func (d *AsyncDispatcher) run(ctx context.Context, req types.GenerationRequest) types.GenerationResult {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return types.GenerationResult{GenerationID: req.GenerationID, Failure: err.Error()}
	}
	defer d.sem.Release(1)

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	content, err := d.service.Generate(ctx, req)
	if err != nil {
		d.logger.Warn("generation failed",
			zap.String("generation_id", req.GenerationID),
			zap.Stringer("target", req.Target),
			zap.Error(err))
		return types.GenerationResult{GenerationID: req.GenerationID, Failure: err.Error()}
	}

	d.logger.Debug("generation finished",
		zap.String("generation_id", req.GenerationID),
		zap.Duration("elapsed", time.Since(start)))
	return types.GenerationResult{GenerationID: req.GenerationID, Content: content}
}

// Wait blocks until every dispatched request has been delivered.
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}
