// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/olegiv/wpautoblog/internal/metrics"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 4096
)

var (
	// ErrNotConfigured is returned when the provider needs an API key and none is set.
	ErrNotConfigured = errors.New("ai: provider is not configured")
	// ErrEmptyResponse is returned when the model answered with no text.
	ErrEmptyResponse = errors.New("ai: empty response")
	// ErrImagesDisabled is returned by image calls when no OpenAI key is configured.
	ErrImagesDisabled = errors.New("ai: image generation is disabled")
)

// Config configures a Client.
type Config struct {
	Provider   string
	APIKey     string
	BaseURL    string
	Model      string
	QuickModel string
	Timeout    time.Duration

	// Image generation always goes through OpenAI.
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	ImageModel       string
	ImagePromptModel string

	// HTTPClient overrides the client used for every outbound call.
	HTTPClient *http.Client
}

// ChatRequest is a single-turn completion request.
type ChatRequest struct {
	System      string
	Prompt      string
	Quick       bool
	MaxTokens   int
	Temperature float64
}

// ChatResponse is the text answer plus usage.
type ChatResponse struct {
	Content          string
	PromptTokens     int64
	CompletionTokens int64
	Model            string
	CostUSD          float64
}

// Client talks to the configured text provider and, when enabled, to the
// OpenAI image API. It is safe for concurrent use.
type Client struct {
	cfg      Config
	provider *ProviderInfo
	text     openai.Client
	images   *openai.Client
	http     *http.Client
	logger   *slog.Logger
}

// New constructs a Client. It does not contact the provider.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Provider == "" {
		cfg.Provider = ProviderGroq
	}
	provider, err := GetProviderInfo(strings.ToLower(cfg.Provider))
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = provider.DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = provider.DefaultModel
	}
	if cfg.QuickModel == "" {
		cfg.QuickModel = provider.QuickModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = "dall-e-3"
	}
	if cfg.ImagePromptModel == "" {
		cfg.ImagePromptModel = "gpt-4o-mini"
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{cfg: cfg, provider: provider, http: hc, logger: logger}

	if provider.OpenAICompatible {
		key := cfg.APIKey
		if key == "" && !provider.NeedsAPIKey {
			key = provider.ID
		}
		c.text = openai.NewClient(
			option.WithAPIKey(key),
			option.WithBaseURL(withTrailingSlash(cfg.BaseURL)),
			option.WithHTTPClient(hc),
			option.WithMaxRetries(0),
		)
	}

	if cfg.OpenAIAPIKey != "" {
		imageBase := cfg.OpenAIBaseURL
		if imageBase == "" {
			imageBase = "https://api.openai.com/v1"
		}
		img := openai.NewClient(
			option.WithAPIKey(cfg.OpenAIAPIKey),
			option.WithBaseURL(withTrailingSlash(imageBase)),
			option.WithHTTPClient(hc),
			option.WithMaxRetries(0),
		)
		c.images = &img
	}

	return c, nil
}

// Provider returns the active provider ID.
func (c *Client) Provider() string { return c.provider.ID }

// Configured reports whether text generation can be attempted.
func (c *Client) Configured() bool {
	return !c.provider.NeedsAPIKey || c.cfg.APIKey != ""
}

// ImagesEnabled reports whether featured images can be generated.
func (c *Client) ImagesEnabled() bool { return c.images != nil }

// Complete runs one chat completion against the text provider.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	model := c.cfg.Model
	if req.Quick {
		model = c.cfg.QuickModel
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = defaultMaxTokens
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var (
		resp *ChatResponse
		err  error
	)
	if c.provider.OpenAICompatible {
		resp, err = chatOpenAI(ctx, c.text, model, req)
	} else {
		resp, err = c.chatClaude(ctx, model, req)
	}
	if err != nil {
		return nil, fmt.Errorf("%s chat: %w", c.provider.ID, err)
	}

	c.recordUsage(c.provider.ID, resp)

	if strings.TrimSpace(resp.Content) == "" {
		return nil, ErrEmptyResponse
	}
	return resp, nil
}

func chatOpenAI(ctx context.Context, client openai.Client, model string, req ChatRequest) (*ChatResponse, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(model),
		Messages:  messages,
		MaxTokens: openai.Int(int64(req.MaxTokens)),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("no choices returned")
	}

	usedModel := completion.Model
	if usedModel == "" {
		usedModel = model
	}
	return &ChatResponse{
		Content:          completion.Choices[0].Message.Content,
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
		Model:            usedModel,
	}, nil
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	Model       string          `json:"model"`
	System      string          `json:"system,omitempty"`
	Messages    []claudeMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature,omitempty"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
	Model string `json:"model"`
}

// chatClaude calls the Anthropic messages API, which is not OpenAI-compatible.
func (c *Client) chatClaude(ctx context.Context, model string, req ChatRequest) (*ChatResponse, error) {
	body := claudeRequest{
		Model:       model,
		System:      req.System,
		Messages:    []claudeMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/messages"

	var out claudeResponse
	err := requests.URL(endpoint).
		Client(c.http).
		Method(http.MethodPost).
		Header("x-api-key", c.cfg.APIKey).
		Header("anthropic-version", "2023-06-01").
		BodyJSON(body).
		AddValidator(checkStatus).
		ToJSON(&out).
		Fetch(ctx)
	if err != nil {
		return nil, err
	}

	content := ""
	for _, part := range out.Content {
		if part.Type == "text" {
			content = part.Text
			break
		}
	}

	usedModel := out.Model
	if usedModel == "" {
		usedModel = model
	}
	return &ChatResponse{
		Content:          content,
		PromptTokens:     out.Usage.InputTokens,
		CompletionTokens: out.Usage.OutputTokens,
		Model:            usedModel,
	}, nil
}

// checkStatus rejects non-2xx responses and keeps a short body excerpt.
func checkStatus(r *http.Response) error {
	if r.StatusCode >= 200 && r.StatusCode < 300 {
		return nil
	}
	excerpt, _ := io.ReadAll(io.LimitReader(r.Body, 512))
	return fmt.Errorf("api error (status %d): %s", r.StatusCode, strings.TrimSpace(string(excerpt)))
}

func (c *Client) recordUsage(provider string, resp *ChatResponse) {
	resp.CostUSD = CalculateCost(provider, resp.Model, resp.PromptTokens, resp.CompletionTokens)
	metrics.RecordAIUsage(provider, resp.Model, resp.PromptTokens, resp.CompletionTokens)
	c.logger.Debug("ai usage",
		"provider", provider,
		"model", resp.Model,
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens,
		"cost_usd", resp.CostUSD,
	)
}

func withTrailingSlash(u string) string {
	return strings.TrimRight(u, "/") + "/"
}
