package provider

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/innings/internal/adapters/mq/queue"
	"github.com/okian/innings/internal/adapters/repository"
	"github.com/okian/innings/pkg/logger"
	"github.com/okian/innings/pkg/metrics"
)

const (
	defaultInterval = 30 * time.Second
	// errorLogEvery limits repeated failure logs while the feed is down.
	errorLogEvery = 10
)

// Poll outcomes.
const (
	PollEvent     = "event"
	PollUnchanged = "unchanged"
	PollNoMatch   = "no_match"
	PollError     = "error"
	PollRejected  = "enqueue_error"
)

// Fetcher reads the live score.
type Fetcher interface {
	FetchMatchData(ctx context.Context) (MatchData, error)
}

// StateReader exposes the currently published state.
type StateReader interface {
	Current(ctx context.Context) repository.Versioned
}

// Submitter accepts candidate events for ingestion.
type Submitter interface {
	Submit(ctx context.Context, c queue.Candidate) error
}

// Poller turns score feed readings into candidate events at its own pace.
type Poller struct {
	fetch    Fetcher
	state    StateReader
	submit   Submitter
	interval time.Duration
	now      func() time.Time
	logger   logger.Logger

	mu       sync.Mutex
	last     *Reading
	failures int
}

// NewPoller creates a poller.
func NewPoller(f Fetcher, state StateReader, submit Submitter, opts ...PollerOption) *Poller {
	p := &Poller{
		fetch:    f,
		state:    state,
		submit:   submit,
		interval: defaultInterval,
		now:      time.Now,
		logger:   logger.Get().Named("poller"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PollOnce reads the feed once and submits an event when the score moved.
// It returns the outcome label.
func (p *Poller) PollOnce(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := p.fetch.FetchMatchData(ctx)
	if err != nil {
		outcome := PollError
		if errors.Is(err, ErrNoMatch) {
			outcome = PollNoMatch
		}
		p.failed(ctx, outcome, err)
		return outcome, err
	}
	p.failures = 0

	reading := data.Reading()
	// The previous candidate may still be queued; do not submit it twice.
	if p.last != nil && p.last.Same(reading) {
		metrics.RecordPoll(PollUnchanged)
		return PollUnchanged, nil
	}

	ev, ok := DetectEvent(data, p.state.Current(ctx).State, p.now())
	if !ok {
		metrics.RecordPoll(PollUnchanged)
		return PollUnchanged, nil
	}

	ev.ID = uuid.NewString()
	c := queue.Candidate{ID: ev.ID, Source: queue.SourcePoller, Event: &ev, Received: p.now()}
	if err := p.submit.Submit(ctx, c); err != nil {
		p.failed(ctx, PollRejected, err)
		return PollRejected, err
	}

	p.last = &reading
	metrics.RecordPoll(PollEvent)
	p.logger.Info(ctx, "new event detected",
		logger.String("event_type", string(ev.Type)),
		logger.Int("score", ev.CurrentScore),
		logger.Int("wickets", ev.CurrentWickets),
		logger.Float64("overs", ev.OversPlayed),
	)
	return PollEvent, nil
}

// RunLoop polls immediately and then every interval until ctx is cancelled.
func (p *Poller) RunLoop(ctx context.Context) error {
	p.logger.Info(ctx, "poller started", logger.Duration("interval", p.interval))
	_, _ = p.PollOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info(ctx, "poller stopped")
			return nil
		case <-ticker.C:
			_, _ = p.PollOnce(ctx)
		}
	}
}

func (p *Poller) failed(ctx context.Context, outcome string, err error) {
	metrics.RecordPoll(outcome)
	metrics.RecordError("poller", outcome)
	p.failures++
	if p.failures == 1 || p.failures%errorLogEvery == 0 {
		p.logger.Warn(ctx, "poll failed, will retry",
			logger.String("outcome", outcome),
			logger.Int("consecutive_failures", p.failures),
			logger.Error(err),
		)
	}
}
