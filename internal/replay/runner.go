package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/okian/innings/pkg/logger"
)

// Run posts evs to the service in order and verifies that the published
// state ends where the last event says it should. Events are sent one at a
// time; the ingester applies them in arrival order.
func Run(ctx context.Context, cfg Config, evs []json.RawMessage) (Stats, error) {
	cfg = withDefaults(cfg)
	stats := Stats{StartTime: time.Now()}
	log := logger.Get().Named("replay")

	if len(evs) == 0 {
		return stats, ErrNoEvents
	}

	log.Info(ctx, "starting replay",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("events", len(evs)),
		logger.Duration("timeout", cfg.Timeout),
	)

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, err
	}

	before, err := client.processed(ctx)
	if err != nil {
		return stats, fmt.Errorf("read initial stats: %w", err)
	}

	for i, ev := range evs {
		if err := ctx.Err(); err != nil {
			return finish(stats), err
		}
		res, id, err := client.submit(ctx, ev)
		stats.EventsSubmitted++
		switch res {
		case resultAccepted:
			stats.EventsAccepted++
		case resultDuplicate:
			stats.EventsDuplicate++
		default:
			stats.EventsFailed++
			log.Warn(ctx, "event not accepted", logger.Int("index", i), logger.Error(err))
		}
		if cfg.Verbose {
			log.Info(ctx, "event submitted", logger.Int("index", i), logger.String("event_id", id))
		}
		if cfg.Pace > 0 {
			select {
			case <-ctx.Done():
				return finish(stats), ctx.Err()
			case <-time.After(cfg.Pace):
			}
		}
	}

	if err := waitForDrain(ctx, client, before+uint64(stats.EventsAccepted), cfg.Wait); err != nil {
		return finish(stats), err
	}
	final, err := client.state(ctx)
	if err != nil {
		return finish(stats), fmt.Errorf("read final state: %w", err)
	}
	stats.FinalVersion = final.Version

	if stats.EventsFailed == 0 && stats.EventsDuplicate == 0 {
		if exp, ok := Expect(evs); ok {
			if err := verify(final, exp); err != nil {
				return finish(stats), err
			}
			stats.Verified = true
		}
	}

	stats = finish(stats)
	log.Info(ctx, "replay completed",
		logger.Int("eventsSubmitted", stats.EventsSubmitted),
		logger.Int("eventsAccepted", stats.EventsAccepted),
		logger.Int("eventsDuplicate", stats.EventsDuplicate),
		logger.Int("eventsFailed", stats.EventsFailed),
		logger.Int64("finalVersion", int64(stats.FinalVersion)),
		logger.Bool("verified", stats.Verified),
		logger.Duration("duration", stats.Duration),
	)
	return stats, nil
}

func withDefaults(cfg Config) Config {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Wait <= 0 {
		cfg.Wait = DefaultWait
	}
	return cfg
}

func finish(s Stats) Stats {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
	return s
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, c *HTTPClient) error {
	resp, err := c.get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	_, _ = readResponseBody(resp)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// waitForDrain polls GET /stats until the ingester has processed want
// events in total, applied or rejected.
func waitForDrain(ctx context.Context, c *HTTPClient, want uint64, wait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	ticker := time.NewTicker(statePollInterval)
	defer ticker.Stop()

	var have uint64
	for {
		n, err := c.processed(ctx)
		if err == nil {
			have = n
			if n >= want {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: processed %d of %d", ErrTimeout, have, want)
		case <-ticker.C:
		}
	}
}

func verify(s snapshot, exp Expectation) error {
	if s.State.TotalRuns != exp.Score || s.State.WicketsLost != exp.Wickets || math.Abs(s.State.OversPlayed-exp.Overs) > oversEpsilon {
		return fmt.Errorf("%w: state %d/%d in %.1f, last event %d/%d in %.1f", ErrMismatch,
			s.State.TotalRuns, s.State.WicketsLost, s.State.OversPlayed, exp.Score, exp.Wickets, exp.Overs)
	}
	return nil
}
