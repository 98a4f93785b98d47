// Package anthropic implements llm.LLM against the Anthropic Messages API
// over a plain net/http client, grounded on the teacher's
// providers/anthropic package (same endpoint, header set, and wire
// request/response shape), adapted to this module's llm.Content model and
// routed through internal/retry instead of the teacher's own retry
// package.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/deepnoodle-ai/biographer/internal/retry"
	"github.com/deepnoodle-ai/biographer/llm"
)

var (
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultEndpoint  = "https://api.anthropic.com/v1/messages"
	DefaultVersion   = "2023-06-01"
	DefaultMaxTokens = 4096
)

var _ llm.LLM = &Provider{}

// Provider is a minimal, non-streaming Anthropic client: the Orchestrator,
// Interviewer, and Scribe only ever issue single-shot Generate calls, so
// Stream is implemented to satisfy llm.LLM but always reports unsupported.
type Provider struct {
	apiKey    string
	client    *http.Client
	endpoint  string
	model     string
	version   string
	maxTokens int
}

// Option configures a Provider.
type Option func(*Provider)

func WithAPIKey(key string) Option        { return func(p *Provider) { p.apiKey = key } }
func WithModel(model string) Option       { return func(p *Provider) { p.model = model } }
func WithHTTPClient(c *http.Client) Option { return func(p *Provider) { p.client = c } }
func WithMaxTokens(n int) Option          { return func(p *Provider) { p.maxTokens = n } }

// New creates a Provider, defaulting the API key to the ANTHROPIC_API_KEY
// environment variable.
func New(opts ...Option) *Provider {
	p := &Provider{
		apiKey:    os.Getenv("ANTHROPIC_API_KEY"),
		client:    http.DefaultClient,
		endpoint:  DefaultEndpoint,
		version:   DefaultVersion,
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) SupportsStreaming() bool { return false }

func (p *Provider) Stream(ctx context.Context, messages []*llm.Message, opts ...llm.GenerateOption) (llm.Stream, error) {
	return nil, fmt.Errorf("anthropic: streaming not supported by this provider")
}

type apiError struct {
	statusCode int
	body       string
}

func (e *apiError) Error() string    { return fmt.Sprintf("anthropic: status %d: %s", e.statusCode, e.body) }
func (e *apiError) StatusCode() int  { return e.statusCode }

func (p *Provider) Generate(ctx context.Context, messages []*llm.Message, opts ...llm.GenerateOption) (*llm.Response, error) {
	cfg := &llm.GenerateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("anthropic: no messages provided")
	}

	model := cfg.Model
	if model == "" {
		model = p.model
	}
	maxTokens := p.maxTokens
	if cfg.MaxTokens != nil {
		maxTokens = *cfg.MaxTokens
	}

	wireMessages, err := convertMessages(messages)
	if err != nil {
		return nil, fmt.Errorf("anthropic: converting messages: %w", err)
	}

	reqBody := wireRequest{
		Model:       model,
		Messages:    wireMessages,
		MaxTokens:   maxTokens,
		Temperature: cfg.Temperature,
		System:      cfg.SystemPrompt,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("anthropic: marshaling request: %w", err)
	}

	var result wireResponse
	err = retry.WithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(jsonBody))
		if err != nil {
			return fmt.Errorf("anthropic: creating request: %w", err)
		}
		req.Header.Set("x-api-key", p.apiKey)
		req.Header.Set("anthropic-version", p.version)
		req.Header.Set("content-type", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			return fmt.Errorf("anthropic: making request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return &apiError{statusCode: resp.StatusCode, body: string(body)}
		}
		return json.NewDecoder(resp.Body).Decode(&result)
	})
	if err != nil {
		return nil, err
	}
	if len(result.Content) == 0 {
		return nil, fmt.Errorf("anthropic: empty response")
	}

	content := make([]llm.Content, 0, len(result.Content))
	for _, block := range result.Content {
		if block.Type == "text" {
			content = append(content, &llm.TextContent{Text: block.Text})
		}
	}

	return &llm.Response{
		ID:         result.ID,
		Model:      model,
		Role:       llm.Assistant,
		Content:    content,
		StopReason: result.StopReason,
		Usage: llm.Usage{
			InputTokens:  result.Usage.InputTokens,
			OutputTokens: result.Usage.OutputTokens,
		},
	}, nil
}

func convertMessages(messages []*llm.Message) ([]wireMessage, error) {
	out := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		text := m.Text()
		if text == "" {
			return nil, fmt.Errorf("message with role %q has no text content", m.Role)
		}
		out = append(out, wireMessage{
			Role:    string(m.Role),
			Content: text,
		})
	}
	return out, nil
}
