package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	openaigo "github.com/sashabaranov/go-openai"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ErrGenerationFailed marks a single backend attempt that errored or produced
// empty text. The orchestrator advances to the next tier on this.
var ErrGenerationFailed = errors.New("text generation failed")

// GenerationParams are per-request sampling parameters. Pointers distinguish
// "not set" from an explicit zero.
type GenerationParams struct {
	Temperature *float64
	MaxTokens   *int
}

// UsageInfo reports token counts for one completion. Counts are estimated when
// the backend does not return usage data.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client is one text-generation backend: accept a prompt and sampling
// parameters, return generated text or fail. Any provider with this shape can
// be slotted into a tier.
type Client interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, UsageInfo, error)
	Model() string
}

// --- OpenAI-compatible client ---

type openAIClient struct {
	client *openaigo.Client
	model  string
	tier   string
	logger *zap.Logger
}

// NewOpenAIClient builds a client for any OpenAI-compatible endpoint
// (OpenAI, OpenRouter, self-hosted gateways).
func NewOpenAIClient(baseURL, apiKey, model, tier string, timeout time.Duration, logger *zap.Logger) Client {
	cfg := openaigo.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &openAIClient{
		client: openaigo.NewClientWithConfig(cfg),
		model:  model,
		tier:   tier,
		logger: logger.Named("OpenAIClient").With(zap.String("tier", tier), zap.String("model", model)),
	}
}

func (c *openAIClient) Model() string { return c.model }

func (c *openAIClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, UsageInfo, error) {
	usage := UsageInfo{}

	if strings.TrimSpace(prompt) == "" {
		aiRequestsTotal.With(prometheus.Labels{"tier": c.tier, "model": c.model, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: prompt is empty", ErrGenerationFailed)
	}

	startTime := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model: c.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32Val(params.Temperature),
		MaxTokens:   intVal(params.MaxTokens),
	})
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Warn("AI request failed", zap.Duration("duration", duration), zap.Error(err))
		aiRequestsTotal.With(prometheus.Labels{"tier": c.tier, "model": c.model, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		c.logger.Warn("AI returned empty response", zap.Duration("duration", duration))
		aiRequestsTotal.With(prometheus.Labels{"tier": c.tier, "model": c.model, "status": "error_empty_response"}).Inc()
		return "", usage, fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}

	text := resp.Choices[0].Message.Content
	aiRequestsTotal.With(prometheus.Labels{"tier": c.tier, "model": c.model, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"tier": c.tier, "model": c.model}).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		usage.PromptTokens = resp.Usage.PromptTokens
		usage.CompletionTokens = resp.Usage.CompletionTokens
		usage.TotalTokens = resp.Usage.TotalTokens
	} else {
		usage.PromptTokens = estimateTokens(prompt)
		usage.CompletionTokens = estimateTokens(text)
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	aiPromptTokens.With(prometheus.Labels{"tier": c.tier, "model": c.model}).Observe(float64(usage.PromptTokens))
	aiCompletionTokens.With(prometheus.Labels{"tier": c.tier, "model": c.model}).Observe(float64(usage.CompletionTokens))

	c.logger.Debug("AI request completed",
		zap.Duration("duration", duration),
		zap.Int("responseChars", len(text)),
		zap.Int("totalTokens", usage.TotalTokens))
	return text, usage, nil
}

// --- Ollama client ---

type ollamaClient struct {
	client  *api.Client
	model   string
	tier    string
	timeout time.Duration
	logger  *zap.Logger
}

// NewOllamaClient builds a client for a local Ollama instance.
func NewOllamaClient(baseURL, model, tier string, timeout time.Duration, logger *zap.Logger) (Client, error) {
	base := strings.TrimSuffix(strings.TrimSuffix(baseURL, "/v1"), "/")
	parsedURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Ollama base URL '%s': %w", base, err)
	}
	return &ollamaClient{
		client:  api.NewClient(parsedURL, &http.Client{Timeout: timeout}),
		model:   model,
		tier:    tier,
		timeout: timeout,
		logger:  logger.Named("OllamaClient").With(zap.String("tier", tier), zap.String("model", model)),
	}, nil
}

func (c *ollamaClient) Model() string { return c.model }

func (c *ollamaClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, UsageInfo, error) {
	usage := UsageInfo{}

	if strings.TrimSpace(prompt) == "" {
		aiRequestsTotal.With(prometheus.Labels{"tier": c.tier, "model": c.model, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: prompt is empty", ErrGenerationFailed)
	}

	options := map[string]interface{}{}
	if params.Temperature != nil {
		options["temperature"] = *params.Temperature
	}
	if params.MaxTokens != nil {
		options["num_predict"] = *params.MaxTokens
	}

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
		Options:  options,
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warn("Ollama request timed out", zap.Duration("timeout", c.timeout), zap.Error(err))
		} else {
			c.logger.Warn("Ollama request failed", zap.Duration("duration", duration), zap.Error(err))
		}
		aiRequestsTotal.With(prometheus.Labels{"tier": c.tier, "model": c.model, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if resp.Message.Content == "" {
		c.logger.Warn("Ollama returned empty response", zap.Duration("duration", duration))
		aiRequestsTotal.With(prometheus.Labels{"tier": c.tier, "model": c.model, "status": "error_empty_response"}).Inc()
		return "", usage, fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}

	aiRequestsTotal.With(prometheus.Labels{"tier": c.tier, "model": c.model, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"tier": c.tier, "model": c.model}).Observe(duration.Seconds())

	usage.PromptTokens = resp.PromptEvalCount
	usage.CompletionTokens = resp.EvalCount
	usage.TotalTokens = resp.PromptEvalCount + resp.EvalCount
	if usage.TotalTokens > 0 {
		aiPromptTokens.With(prometheus.Labels{"tier": c.tier, "model": c.model}).Observe(float64(usage.PromptTokens))
		aiCompletionTokens.With(prometheus.Labels{"tier": c.tier, "model": c.model}).Observe(float64(usage.CompletionTokens))
	}

	return resp.Message.Content, usage, nil
}

// float32Val converts an optional *float64 into the float32 the OpenAI API expects.
func float32Val(f64 *float64) float32 {
	if f64 == nil {
		return 1.0
	}
	return float32(*f64)
}

func intVal(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
