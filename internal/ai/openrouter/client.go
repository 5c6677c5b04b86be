package openrouter

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spigell/cv-refiner/internal/ai"
	"github.com/spigell/cv-refiner/internal/logger"
	"github.com/spigell/cv-refiner/internal/utils"

	"go.uber.org/zap"
)

const (
	Provider = "openrouter"

	DefaultBaseURL = "https://openrouter.ai/api/v1"

	defaultModel        = "google/gemini-3-flash-preview"
	defaultTimeout      = 60 * time.Second
	defaultMaxLogLength = 400
	userAgent           = "spigell/cv-refiner"
	contentType         = "application/json"
)

// Config describes how to reach the OpenRouter chat completions endpoint.
type Config struct {
	BaseURL         string        `mapstructure:"base-url"`
	APIKey          string        `mapstructure:"api-key"`
	APIKeyFile      string        `mapstructure:"api-key-file"`
	Model           string        `mapstructure:"model"`
	ReasoningEffort string        `mapstructure:"reasoning-effort"`
	HTTPReferer     string        `mapstructure:"http-referer"`
	XTitle          string        `mapstructure:"x-title"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxLogLength    int           `mapstructure:"max-log-length"`

	// Set by callers, not read from config files.
	JSON        bool     `mapstructure:"-"`
	Temperature *float64 `mapstructure:"-"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type reasoning struct {
	Effort string `json:"effort"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Reasoning      *reasoning      `json:"reasoning,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client is a single-model OpenRouter chat completions client.
type Client struct {
	cfg        Config
	model      string
	HTTPClient *http.Client
	base       *zap.Logger
	logger     *zap.Logger
}

func New(cfg Config, log *zap.Logger) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("openrouter api key is required")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	return &Client{
		cfg:        cfg,
		model:      model,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		base:       logger.WithFields(log),
		logger:     logger.WithCommonFields(log, Provider, model),
	}, nil
}

// WithModel returns a client sharing the HTTP client and credentials but targeting another model.
func (c *Client) WithModel(model string) *Client {
	clone := *c
	if model = strings.TrimSpace(model); model != "" {
		clone.model = model
		clone.logger = logger.WithCommonFields(c.base, Provider, model)
	}
	return &clone
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// GenerateContent performs one chat completion. It does not retry; callers own retry policy.
func (c *Client) GenerateContent(ctx context.Context, system, prompt string) (string, error) {
	if c == nil || c.HTTPClient == nil {
		return "", errors.New("openrouter client is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	payload := chatRequest{Model: c.model, Temperature: c.cfg.Temperature}
	if system = strings.TrimSpace(system); system != "" {
		payload.Messages = append(payload.Messages, message{Role: "system", Content: system})
	}
	payload.Messages = append(payload.Messages, message{Role: "user", Content: prompt})
	if c.cfg.JSON {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	if effort := strings.TrimSpace(c.cfg.ReasoningEffort); effort != "" {
		payload.Reasoning = &reasoning{Effort: effort}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.setHeaders(req)

	c.logger.Debug("openrouter request",
		zap.Int("prompt_length", len([]rune(prompt))),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, c.cfg.MaxLogLength)),
	)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openrouter request: %w", err)
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return "", fmt.Errorf("read openrouter response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &ai.StatusError{Code: resp.StatusCode, Body: string(data)}
		if resp.StatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %w", ai.ErrRateLimited, statusErr)
		}
		return "", statusErr
	}

	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode openrouter response: %w", err)
	}
	if out.Error != nil && out.Error.Message != "" {
		return "", fmt.Errorf("openrouter error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openrouter returned no choices")
	}

	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("openrouter returned empty content")
	}

	c.logger.Debug("openrouter response",
		zap.String("served_by", out.Model),
		zap.String("response_preview", utils.TruncateForLog(content, c.cfg.MaxLogLength)),
	)

	return content, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.APIKey))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)
	if referer := strings.TrimSpace(c.cfg.HTTPReferer); referer != "" {
		req.Header.Set("HTTP-Referer", referer)
	}
	if title := strings.TrimSpace(c.cfg.XTitle); title != "" {
		req.Header.Set("X-Title", title)
	}
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}

	return io.ReadAll(reader)
}
