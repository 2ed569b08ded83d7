// Package llm answers match questions with an OpenAI-compatible chat model.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/okian/innings/internal/domain/answer"
	"github.com/okian/innings/pkg/logger"
)

const (
	DefaultModel       = openai.ChatModelGPT4oMini
	DefaultMaxTokens   = 150
	DefaultTemperature = 0.3
	DefaultTimeout     = 10 * time.Second
)

// ErrMissingAPIKey is returned by New when no key is configured.
var ErrMissingAPIKey = errors.New("llm: api key is required")

// Config selects the endpoint and sampling parameters.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature < 0 {
		c.Temperature = DefaultTemperature
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Generator implements answer.Generator over the chat completions API.
type Generator struct {
	client openai.Client
	cfg    Config
}

var _ answer.Generator = (*Generator)(nil)

// New creates a generator. Retries are disabled; the answer service falls
// back to templates instead.
func New(cfg Config) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	cfg = cfg.withDefaults()

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Generator{client: openai.NewClient(opts...), cfg: cfg}, nil
}

// Generate asks the model one question about the snapshot in req.
func (g *Generator) Generate(ctx context.Context, req answer.Request) (string, error) {
	log := logger.Get().Named("llm")

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(req)),
		},
		MaxTokens:   openai.Int(int64(g.cfg.MaxTokens)),
		Temperature: openai.Float(g.cfg.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", answer.ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", answer.ErrEmptyResponse
	}
	log.Debug(ctx, "completion received",
		logger.String("label", string(req.Label)),
		logger.Int64("total_tokens", resp.Usage.TotalTokens))
	return text, nil
}
