package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xaenox/mawari-agent/internal/models"
)

// Preset describes a known OpenAI-compatible chat completion provider
type Preset struct {
	Name         string
	BaseURL      string
	DefaultModel string
	Label        string
}

var presets = map[string]Preset{
	"openrouter": {
		Name:         "openrouter",
		BaseURL:      "https://openrouter.ai/api/v1",
		DefaultModel: "anthropic/claude-3.5-sonnet",
		Label:        "OpenRouter AI",
	},
	"fireworks": {
		Name:         "fireworks",
		BaseURL:      "https://api.fireworks.ai/inference/v1",
		DefaultModel: "accounts/sentientfoundation/models/dobby-unhinged-llama-3-3-70b-new",
		Label:        "Fireworks AI",
	},
}

// LookupPreset returns the preset registered under name
func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

type Config struct {
	Name    string
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// Referer and Title are sent as HTTP-Referer / X-Title (OpenRouter attribution)
	Referer string
	Title   string
}

// Completion is the successful outcome of a provider call
type Completion struct {
	Text       string
	TokensUsed int
	Model      string
	Latency    time.Duration
}

// Client issues one chat completion request per call
type Client struct {
	client  *openai.Client
	name    string
	label   string
	model   string
	logger  *zap.Logger
	nowFunc func() time.Time
}

func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	preset, ok := LookupPreset(cfg.Name)
	if !ok {
		return nil, &Error{Kind: KindConfig, Err: fmt.Errorf("unknown provider %q", cfg.Name)}
	}
	if cfg.APIKey == "" {
		return nil, &Error{Kind: KindConfig, Err: errors.New("api key not configured")}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = preset.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = preset.DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	headers := map[string]string{}
	if cfg.Referer != "" {
		headers["HTTP-Referer"] = cfg.Referer
	}
	if cfg.Title != "" {
		headers["X-Title"] = cfg.Title
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = baseURL
	clientConfig.HTTPClient = &statusDoer{
		client:  &http.Client{Timeout: timeout},
		headers: headers,
	}

	return &Client{
		client:  openai.NewClientWithConfig(clientConfig),
		name:    preset.Name,
		label:   preset.Label,
		model:   model,
		logger:  logger,
		nowFunc: time.Now,
	}, nil
}

func (c *Client) Name() string  { return c.name }
func (c *Client) Label() string { return c.label }
func (c *Client) Model() string { return c.model }

// Complete sends the system prompt, history and query as a single chat completion
func (c *Client) Complete(ctx context.Context, req models.ProviderRequest) (*Completion, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, turn := range req.History {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserQuery,
	})

	params := req.ModelParameters
	start := c.nowFunc()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:            c.model,
		Messages:         messages,
		Temperature:      float32(params.Temperature),
		MaxTokens:        params.MaxTokens,
		TopP:             float32(params.TopP),
		FrequencyPenalty: float32(params.FrequencyPenalty),
		PresencePenalty:  float32(params.PresencePenalty),
	})
	latency := c.nowFunc().Sub(start)
	if err != nil {
		return nil, classify(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &Error{Kind: KindMalformed, Err: errors.New("response has no choices")}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, &Error{Kind: KindMalformed, Err: errors.New("response has empty content")}
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}

	c.logger.Debug("Chat completion received",
		zap.String("provider", c.name),
		zap.String("model", model),
		zap.Int("tokens", resp.Usage.TotalTokens),
		zap.Duration("latency", latency))

	return &Completion{
		Text:       text,
		TokensUsed: resp.Usage.TotalTokens,
		Model:      model,
		Latency:    latency,
	}, nil
}

// statusDoer adds attribution headers and turns non-2xx responses into
// typed errors before go-openai sees them.
type statusDoer struct {
	client  *http.Client
	headers map[string]string
}

func (d *statusDoer) Do(req *http.Request) (*http.Response, error) {
	for k, v := range d.headers {
		req.Header.Set(k, v)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: err}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &Error{
			Kind:   KindStatus,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body))),
		}
	}
	return resp, nil
}
