// Package answer responds to natural-language questions about a match state.
// A Generator (usually an LLM) is tried first; when it is missing, fails or
// returns nothing, a deterministic template answer is used instead.
package answer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/okian/innings/internal/domain/classify"
	"github.com/okian/innings/internal/domain/model"
	"github.com/okian/innings/pkg/logger"
	"github.com/okian/innings/pkg/metrics"
)

// Answer sources.
const (
	SourceLLM      = "llm"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

const (
	defaultTotalOvers     = 90.0
	defaultMomentumWindow = 10
	defaultTimeout        = 10 * time.Second
)

// ErrEmptyResponse is returned by generators that produced no text.
var ErrEmptyResponse = errors.New("empty response")

// Request is what a Generator is asked to answer.
type Request struct {
	Query    string
	Label    classify.Label
	Snapshot Snapshot
}

// Generator produces free-text answers.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Cache stores generated answers by key. Implementations bound entry
// lifetime themselves.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Answer is the response to one question.
type Answer struct {
	Query  string         `json:"query"`
	Label  classify.Label `json:"label"`
	Text   string         `json:"answer"`
	Source string         `json:"source"`
}

// Line renders the answer for a console, e.g. "[STATS] India: 27 for 2 ...".
func (a Answer) Line() string { return a.Label.Tag() + " " + a.Text }

// Service answers questions. It is safe for concurrent use.
type Service struct {
	gen       Generator
	cache     Cache
	fallbacks Fallbacks
	timeout   time.Duration
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithGenerator sets the generator tried before the templates.
func WithGenerator(g Generator) Option {
	return func(s *Service) { s.gen = g }
}

// WithCache sets the cache for generated answers.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithTotalOvers sets the day length used for overs-remaining figures.
func WithTotalOvers(overs float64) Option {
	return func(s *Service) {
		if overs > 0 {
			s.fallbacks.TotalOvers = overs
		}
	}
}

// WithMomentumWindow sets how many recent events the momentum template reads.
func WithMomentumWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fallbacks.MomentumWindow = n
		}
	}
}

// WithTimeout bounds a single generator call.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewService creates a service. Without a generator every answer is templated.
func NewService(opts ...Option) *Service {
	s := &Service{
		fallbacks: Fallbacks{TotalOvers: defaultTotalOvers, MomentumWindow: defaultMomentumWindow},
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask classifies query and answers it against state.
func (s *Service) Ask(ctx context.Context, query string, state model.MatchState) Answer {
	label := classify.Route(query)
	ans := s.answer(ctx, query, label, state)
	metrics.RecordQuery(string(label), ans.Source)
	return ans
}

func (s *Service) answer(ctx context.Context, query string, label classify.Label, state model.MatchState) Answer {
	ans := Answer{Query: query, Label: label, Source: SourceFallback}
	log := logger.Get().Named("answer")

	prompt := strings.TrimSpace(query)
	if prompt == "" {
		if label == classify.Stats {
			ans.Text = s.fallbacks.Render(label, query, state)
			return ans
		}
		prompt = defaultQuestion(label, state)
	}

	if s.gen != nil {
		key := CacheKey(prompt, state)
		if text, ok := s.lookup(ctx, key); ok {
			ans.Text, ans.Source = text, SourceCache
			return ans
		}

		text, err := s.generate(ctx, Request{Query: prompt, Label: label, Snapshot: Flatten(state, label, s.fallbacks.TotalOvers)})
		if err == nil {
			ans.Text, ans.Source = text, SourceLLM
			s.store(ctx, key, text)
			return ans
		}
		log.Warn(ctx, "generator failed, using template",
			logger.String("label", string(label)), logger.Error(err))
	}

	ans.Text = s.fallbacks.Render(label, query, state)
	return ans
}

func (s *Service) generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := s.gen.Generate(ctx, req)
	text = strings.TrimSpace(text)
	switch {
	case err != nil:
		metrics.RecordLLMLatency(time.Since(start), "error")
		return "", fmt.Errorf("generate: %w", err)
	case text == "":
		metrics.RecordLLMLatency(time.Since(start), "empty")
		return "", ErrEmptyResponse
	}
	metrics.RecordLLMLatency(time.Since(start), "ok")
	return text, nil
}

func (s *Service) lookup(ctx context.Context, key string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	text, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.Get().Named("answer").Warn(ctx, "response cache read failed", logger.Error(err))
		metrics.RecordError("response_cache", "get")
		return "", false
	}
	metrics.RecordCacheLookup(ok)
	return text, ok
}

func (s *Service) store(ctx context.Context, key, text string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, text); err != nil {
		logger.Get().Named("answer").Warn(ctx, "response cache write failed", logger.Error(err))
		metrics.RecordError("response_cache", "set")
	}
}

func defaultQuestion(label classify.Label, s model.MatchState) string {
	switch label {
	case classify.Momentum:
		return "What's the current momentum in the match?"
	case classify.Probability:
		return fmt.Sprintf("What are %s's chances of drawing or winning?", s.TeamBatting)
	case classify.Tactical:
		if n := len(s.RecentEvents); n > 0 && s.RecentEvents[n-1].Type == model.EventWicket {
			return fmt.Sprintf("Why was %s dismissed?", s.RecentEvents[n-1].BatterName())
		}
		return "What's the tactical situation?"
	default:
		return ""
	}
}

type cacheKeyFields struct {
	Overs   float64 `json:"overs"`
	Query   string  `json:"query"`
	Runs    int     `json:"runs"`
	Wickets int     `json:"wickets"`
}

// CacheKey identifies an answer by the normalized question and the score.
// Overs are rounded to one decimal so float noise does not split entries.
func CacheKey(query string, s model.MatchState) string {
	b, _ := json.Marshal(cacheKeyFields{
		Overs:   math.Round(s.OversPlayed*10) / 10,
		Query:   strings.ToLower(strings.TrimSpace(query)),
		Runs:    s.TotalRuns,
		Wickets: s.WicketsLost,
	})
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
