package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o"
	DefaultTimeout = 30 * time.Second
)

var ErrNoChoices = errors.New("no choices returned from completion API")

// Client runs chat completions through the official SDK. BaseURL can point
// at any OpenAI-compatible server (a local model, a proxy), as long as it
// serves /chat/completions under that prefix.
type Client struct {
	sdk   openai.Client
	model string
}

type ClientConfig struct {
	APIKey  string
	BaseURL string
	Model   string

	// Timeout bounds each attempt, not the whole call with retries.
	Timeout time.Duration

	// MaxRetries is how often the SDK retries 429s, 5xx and dropped
	// connections. Zero disables retries.
	MaxRetries int
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	sdk := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(cfg.MaxRetries),
	)
	return &Client{sdk: sdk, model: cfg.Model}
}

// Option tweaks a single completion request.
type Option func(*openai.ChatCompletionNewParams)

func WithTemperature(temp float64) Option {
	return func(p *openai.ChatCompletionNewParams) { p.Temperature = openai.Float(temp) }
}

func WithMaxTokens(tokens int) Option {
	return func(p *openai.ChatCompletionNewParams) { p.MaxTokens = openai.Int(int64(tokens)) }
}

// WithJSONObject asks the model for a single JSON object.
func WithJSONObject() Option {
	return func(p *openai.ChatCompletionNewParams) {
		p.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
}

// Complete runs a single system+user turn and returns the first choice's
// content, which may be empty.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, opts ...Option) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	}
	for _, opt := range opts {
		opt(&params)
	}

	resp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}
