// Package service wires the match-state pipeline together and implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/innings/internal/adapters/cache"
	"github.com/okian/innings/internal/adapters/cache/redis"
	"github.com/okian/innings/internal/adapters/http/api"
	"github.com/okian/innings/internal/adapters/http/swagger"
	"github.com/okian/innings/internal/adapters/http/ws"
	"github.com/okian/innings/internal/adapters/llm"
	"github.com/okian/innings/internal/adapters/mq/queue"
	"github.com/okian/innings/internal/adapters/mq/worker"
	"github.com/okian/innings/internal/adapters/provider"
	"github.com/okian/innings/internal/adapters/repository"
	"github.com/okian/innings/internal/config"
	"github.com/okian/innings/internal/domain/answer"
	"github.com/okian/innings/internal/domain/dedupe"
	"github.com/okian/innings/internal/domain/model"
	"github.com/okian/innings/internal/domain/probability"
	"github.com/okian/innings/internal/domain/transition"
	"github.com/okian/innings/pkg/logger"
	"github.com/okian/innings/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 30 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
	historyFetchTimeout   = 10 * time.Second
)

// Service owns every pipeline component for one match.
type Service struct {
	cfg *config.Config

	store    *repository.SnapshotStore
	queue    *queue.InMemoryQueue
	deduper  dedupe.Deduper
	ingester *worker.Ingester
	hub      *ws.Hub
	answers  *answer.Service
	poller   *provider.Poller
	redis    *redis.Client

	generator answer.Generator
	respCache answer.Cache
	fetcher   provider.Fetcher

	started time.Time
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGenerator replaces the configured LLM generator.
func WithGenerator(g answer.Generator) Option {
	return func(s *Service) { s.generator = g }
}

// WithResponseCache replaces the configured answer cache.
func WithResponseCache(c answer.Cache) Option {
	return func(s *Service) { s.respCache = c }
}

// WithFetcher replaces the score feed client used by the poller.
func WithFetcher(f provider.Fetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// New builds every component from cfg. The seed state is published as
// version 1 before New returns.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{cfg: cfg, started: time.Now()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if cfg.Poll.Enabled && s.fetcher == nil {
		s.fetcher = provider.NewClient(cfg.Match.ID, cfg.Teams(),
			provider.WithBaseURL(cfg.Poll.BaseURL),
			provider.WithHistoryURL(cfg.Poll.HistoryURL),
			provider.WithTimeout(cfg.Poll.Timeout),
		)
	}

	seed, err := model.NewMatchState(cfg.Seed())
	if err != nil {
		return nil, fmt.Errorf("seed state: %w", err)
	}
	seed = s.mergeHistory(ctx, seed)

	s.store = repository.NewSnapshotStore(seed, repository.WithHistory(cfg.HistorySize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(cfg.EventQueueSize))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.DedupeSize))

	engine := transition.NewEngine(transition.WithModel(
		probability.New(probability.WithTotalOvers(cfg.TotalOvers)),
	))
	s.ingester = worker.NewIngester(s.queue, s.store,
		worker.WithEngine(engine),
		worker.WithLogger(logger.Get().Named("ingester")),
	)
	s.hub = ws.NewHub(s.store)
	s.ingester.OnPublish(s.hub.Publish)

	if err := s.buildAnswers(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	if cfg.Poll.Enabled {
		s.poller = provider.NewPoller(s.fetcher, s.store, s.ingester,
			provider.WithInterval(cfg.Poll.Interval),
		)
	}

	s.logger.Info(ctx, "match service ready",
		logger.String("match_id", seed.MatchID),
		logger.String("batting", seed.TeamBatting),
		logger.Int("runs", seed.TotalRuns),
		logger.Int("wickets", seed.WicketsLost),
		logger.Float64("overs", seed.OversPlayed),
		logger.Int("queue_size", cfg.EventQueueSize),
		logger.Bool("polling", cfg.Poll.Enabled),
		logger.Bool("llm", s.generator != nil),
	)
	return s, nil
}

// HistoryFetcher reads the dismissals already on the scorecard.
type HistoryFetcher interface {
	FetchDismissals(ctx context.Context) ([]model.DismissedPlayer, error)
}

// mergeHistory replaces the seed dismissals with the scorecard ones when
// polling is on and the feed has them. Failures keep the configured list.
func (s *Service) mergeHistory(ctx context.Context, seed model.MatchState) model.MatchState {
	h, ok := s.fetcher.(HistoryFetcher)
	if !ok || !s.cfg.Poll.Enabled || !s.cfg.Poll.FetchHistory {
		return seed
	}
	ctx, cancel := context.WithTimeout(ctx, historyFetchTimeout)
	defer cancel()

	ds, err := h.FetchDismissals(ctx)
	if err != nil {
		s.logger.Warn(ctx, "dismissal history unavailable, keeping configured list", logger.Error(err))
		metrics.RecordError("provider", "history")
		return seed
	}
	s.logger.Info(ctx, "merged dismissal history", logger.Int("dismissed", len(ds)))
	return seed.WithDismissals(ds)
}

func (s *Service) buildAnswers(ctx context.Context) error {
	c := s.cfg
	if s.generator == nil && c.LLM.Enabled {
		gen, err := llm.New(llm.Config{
			APIKey:      c.LLM.APIKey,
			BaseURL:     c.LLM.BaseURL,
			Model:       c.LLM.Model,
			MaxTokens:   c.LLM.MaxTokens,
			Temperature: c.LLM.Temperature,
			Timeout:     c.LLM.Timeout,
		})
		switch {
		case errors.Is(err, llm.ErrMissingAPIKey):
			s.logger.Warn(ctx, "no LLM api key configured, answers will use templates")
		case err != nil:
			return fmt.Errorf("llm: %w", err)
		default:
			s.generator = gen
		}
	}

	if s.respCache == nil {
		switch c.Cache.Backend {
		case config.CacheMemory:
			s.respCache = cache.NewMemory(cache.WithTTL(c.Cache.TTL), cache.WithMaxEntries(c.Cache.MaxEntries))
		case config.CacheRedis:
			rc, err := redis.New(ctx, redis.ClientConfig{
				Addr:     c.Cache.RedisAddr,
				Password: c.Cache.RedisPassword,
				DB:       c.Cache.RedisDB,
			})
			if err != nil {
				return fmt.Errorf("response cache: %w", err)
			}
			s.redis = rc
			s.respCache = redis.NewResponseCache(rc, c.Cache.RedisPrefix, c.Cache.TTL)
		}
	}

	opts := []answer.Option{
		answer.WithTotalOvers(c.TotalOvers),
		answer.WithMomentumWindow(c.MomentumWindow),
		answer.WithTimeout(c.LLM.Timeout),
	}
	if s.generator != nil {
		opts = append(opts, answer.WithGenerator(s.generator))
	}
	if s.respCache != nil {
		opts = append(opts, answer.WithCache(s.respCache))
	}
	s.answers = answer.NewService(opts...)
	return nil
}

// Run drives the ingester, the stream hub, the poller when enabled and the
// system metrics ticker until ctx is cancelled or one of them fails.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.ingester.Run(ctx) })
	g.Go(func() error { return s.hub.Run(ctx) })
	if s.poller != nil {
		g.Go(func() error { return s.poller.RunLoop(ctx) })
	}
	g.Go(func() error {
		runSystemMetrics(ctx)
		return nil
	})

	return g.Wait()
}

// Serve runs the pipeline and the HTTP server on cfg.Addr. It returns after
// a graceful shutdown once ctx is cancelled.
func (s *Service) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(ctx),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Run(gctx) })
	g.Go(func() error {
		s.logger.Info(gctx, "starting HTTP server", logger.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info(gctx, "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(gctx, "server shutdown failed", logger.Error(err))
		}
		return nil
	})

	err := g.Wait()
	s.logger.Info(ctx, "server stopped")
	return err
}

// Handler returns the HTTP routes: the API, the snapshot stream and the docs.
func (s *Service) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(s, s, api.WithStream(s.hub)).Register(ctx, mux)
	return mux
}

// Close releases the queue, the store and the redis connection.
func (s *Service) Close() error {
	var errs []error
	if s.queue != nil {
		if err := s.queue.Close(); err != nil && !errors.Is(err, queue.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil && !errors.Is(err, repository.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SeenAndRecord reports whether id was already accepted and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordEventDuplicate()
	}
	return seen
}

// Unrecord forgets id so a rejected submission can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the number of remembered event ids.
func (s *Service) Size() int {
	return s.deduper.Size()
}

// Submit hands a candidate event to the ingester.
func (s *Service) Submit(ctx context.Context, c queue.Candidate) error { //nolint:gocritic // hugeParam: Candidate is passed by value for channel semantics
	return s.ingester.Submit(ctx, c)
}

// Current returns the latest published snapshot.
func (s *Service) Current(ctx context.Context) repository.Versioned {
	return s.store.Current(ctx)
}

// At returns a retained snapshot by version.
func (s *Service) At(ctx context.Context, version uint64) (repository.Versioned, error) {
	return s.store.At(ctx, version)
}

// Ask answers query against state.
func (s *Service) Ask(ctx context.Context, query string, state model.MatchState) answer.Answer {
	return s.answers.Ask(ctx, query, state)
}

// AskCurrent answers query against the latest snapshot.
func (s *Service) AskCurrent(ctx context.Context, query string) answer.Answer {
	return s.answers.Ask(ctx, query, s.store.Current(ctx).State)
}

// Apply runs one candidate through validation and the transition in the
// caller's goroutine, bypassing the queue.
func (s *Service) Apply(ctx context.Context, c queue.Candidate) (repository.Versioned, error) { //nolint:gocritic // hugeParam
	return s.ingester.Process(ctx, c)
}

// OnPublish registers fn to run after every published snapshot.
func (s *Service) OnPublish(fn worker.PublishFunc) {
	s.ingester.OnPublish(fn)
}

// PollOnce performs a single feed poll. It fails when polling is disabled.
func (s *Service) PollOnce(ctx context.Context) (string, error) {
	if s.poller == nil {
		return "", ErrPollingDisabled
	}
	return s.poller.PollOnce(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	ctx := context.Background()
	cur := s.store.Current(ctx)
	st := s.ingester.Stats()

	queueLen, queueCap := s.queue.Len(), s.queue.Cap()
	metrics.UpdateQueueMetrics(queueLen, queueCap)

	return map[string]any{
		"matchId":        cur.State.MatchID,
		"version":        cur.Version,
		"queueLength":    queueLen,
		"queueCapacity":  queueCap,
		"dedupeSize":     s.deduper.Size(),
		"eventsApplied":  st.Applied,
		"eventsRejected": st.Rejected,
		"polling":        s.poller != nil,
		"llmEnabled":     s.generator != nil,
		"uptimeSeconds":  int64(time.Since(s.started).Seconds()),
	}
}

func runSystemMetrics(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		updateSystemMetrics()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMetrics(m.Alloc, runtime.NumGoroutine())
}
