// Package worker runs the single ingestion loop that turns queued candidate
// events into published match states.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/innings/internal/adapters/mq/queue"
	"github.com/okian/innings/internal/adapters/repository"
	"github.com/okian/innings/internal/domain/model"
	"github.com/okian/innings/internal/domain/transition"
	"github.com/okian/innings/internal/domain/validation"
	"github.com/okian/innings/pkg/logger"
	"github.com/okian/innings/pkg/metrics"
)

// Queue is what the ingester reads from and Submit writes to.
type Queue interface {
	Enqueue(ctx context.Context, c queue.Candidate) error
	Dequeue() <-chan queue.Candidate
}

// Store is the snapshot store the ingester publishes to.
type Store interface {
	Current(ctx context.Context) repository.Versioned
	Publish(ctx context.Context, next model.MatchState) (uint64, error)
}

// PublishFunc observes every newly published snapshot.
type PublishFunc func(ctx context.Context, v repository.Versioned)

// Stats counts what the ingester has done since start.
type Stats struct {
	Applied  uint64 `json:"applied"`
	Rejected uint64 `json:"rejected"`
}

// Ingester is the only writer of match state.
type Ingester struct {
	queue  Queue
	store  Store
	engine *transition.Engine
	name   string

	hooksMu sync.RWMutex
	hooks   []PublishFunc

	applied  atomic.Uint64
	rejected atomic.Uint64

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewIngester creates an ingester reading q and publishing to store.
func NewIngester(q Queue, store Store, opts ...Option) *Ingester {
	in := &Ingester{
		queue:    q,
		store:    store,
		engine:   transition.NewEngine(),
		name:     "ingester",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("ingester"),
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.name != "ingester" {
		in.logger = in.logger.Named(in.name)
	}
	return in
}

// OnPublish registers fn to run after every successful publish.
func (in *Ingester) OnPublish(fn PublishFunc) {
	if fn == nil {
		return
	}
	in.hooksMu.Lock()
	in.hooks = append(in.hooks, fn)
	in.hooksMu.Unlock()
}

// Submit enqueues a single candidate for ingestion. It returns ErrStopped
// once Shutdown has been called.
func (in *Ingester) Submit(ctx context.Context, c queue.Candidate) error { //nolint:gocritic // hugeParam: Candidate is passed by value for channel semantics
	select {
	case <-in.shutdown:
		return fmt.Errorf("submit %s: %w", c.ID, ErrStopped)
	default:
	}
	if c.Source == "" {
		c.Source = queue.SourceConsole
	}
	metrics.RecordEventReceived(c.Source)
	if err := in.queue.Enqueue(ctx, c); err != nil {
		return fmt.Errorf("submit %s: %w", c.ID, err)
	}
	return nil
}

// Run consumes candidates until ctx is cancelled, Shutdown is called or the
// queue is closed and drained. Stop requests are honoured between
// candidates only.
func (in *Ingester) Run(ctx context.Context) error {
	defer close(in.done)

	in.logger.Info(ctx, "ingester started")
	candidates := in.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			in.logger.Info(ctx, "ingester stopped", logger.String("cause", "context"))
			return nil
		case <-in.shutdown:
			in.logger.Info(ctx, "ingester stopped", logger.String("cause", "shutdown"))
			return nil
		case c, ok := <-candidates:
			if !ok {
				in.logger.Info(ctx, "ingester stopped", logger.String("cause", "queue closed"))
				return nil
			}
			// Already logged and counted; a rejected candidate never stops the loop.
			_, _ = in.Process(ctx, c)
		}
	}
}

// Shutdown asks Run to return and waits for it.
func (in *Ingester) Shutdown(ctx context.Context) error {
	in.stopOnce.Do(func() { close(in.shutdown) })

	select {
	case <-in.done:
		return nil
	case <-ctx.Done():
		in.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Process validates and applies one candidate and publishes the result.
// Rejections are logged, counted and returned as *RejectedError; the
// current snapshot is left untouched.
func (in *Ingester) Process(ctx context.Context, c queue.Candidate) (repository.Versioned, error) { //nolint:gocritic // hugeParam: Candidate is passed by value for channel semantics
	start := time.Now()

	ev, err := candidateEvent(c)
	if err != nil {
		return repository.Versioned{}, in.reject(ctx, c, StageValidate, validation.Reason(err), err)
	}

	prior := in.store.Current(ctx)
	next, err := in.engine.Apply(prior.State, ev)
	if err != nil {
		reason := "unknown"
		var te *transition.InvalidTransitionError
		if errors.As(err, &te) {
			reason = te.Reason
		}
		return repository.Versioned{}, in.reject(ctx, c, StageTransition, reason, err)
	}

	version, err := in.store.Publish(ctx, next)
	if err != nil {
		return repository.Versioned{}, in.reject(ctx, c, StagePublish, "store", err)
	}
	metrics.RecordTransitionLatency(time.Since(start))
	metrics.RecordEventApplied(string(ev.Type))
	in.applied.Add(1)

	published := repository.Versioned{Version: version, State: next}
	in.logger.Debug(ctx, "state published",
		logger.String("candidate_id", c.ID),
		logger.String("event_type", string(ev.Type)),
		logger.Int64("version", int64(version)),
		logger.Int("runs", next.TotalRuns),
		logger.Int("wickets", next.WicketsLost),
		logger.Float64("overs", next.OversPlayed),
		logger.Float64("p_draw", next.PDraw),
	)
	in.notify(ctx, published)
	return published, nil
}

// Stats returns the applied and rejected counts.
func (in *Ingester) Stats() Stats {
	return Stats{Applied: in.applied.Load(), Rejected: in.rejected.Load()}
}

func (in *Ingester) reject(ctx context.Context, c queue.Candidate, stage, reason string, err error) error { //nolint:gocritic // hugeParam
	in.rejected.Add(1)
	metrics.RecordEventRejected(stage, reason)
	in.logger.Warn(ctx, "candidate rejected",
		logger.String("candidate_id", c.ID),
		logger.String("source", c.Source),
		logger.String("stage", stage),
		logger.String("reason", reason),
		logger.Error(err),
	)
	return &RejectedError{Stage: stage, Reason: reason, Err: err}
}

func (in *Ingester) notify(ctx context.Context, v repository.Versioned) {
	in.hooksMu.RLock()
	hooks := append([]PublishFunc(nil), in.hooks...)
	in.hooksMu.RUnlock()

	for _, fn := range hooks {
		fn(ctx, v)
	}
}

func candidateEvent(c queue.Candidate) (model.Event, error) { //nolint:gocritic // hugeParam
	if c.Event != nil {
		ev := *c.Event
		if err := validation.Check(ev); err != nil {
			return model.Event{}, err
		}
		if ev.ID == "" {
			ev.ID = c.ID
		}
		return ev, nil
	}
	if c.Payload == nil {
		return model.Event{}, &validation.MissingFieldError{Field: validation.KeyEventType}
	}
	ev, err := validation.Validate(c.Payload)
	if err != nil {
		return model.Event{}, err
	}
	if ev.ID == "" {
		ev.ID = c.ID
	}
	return ev, nil
}
