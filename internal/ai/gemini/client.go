package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/cv-refiner/internal/ai"
	"github.com/spigell/cv-refiner/internal/logger"
	"github.com/spigell/cv-refiner/internal/utils"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	Provider = "gemini"

	defaultModel         = "gemini-2.5-pro"
	defaultMaxRetries    = 3
	defaultBaseDelay     = 2 * time.Second
	defaultMaxQuotaDelay = 30 * time.Second
	defaultMaxLogLength  = 400
)

var quotaDelayPattern = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*s`)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	chats *genai.Chats
}

func (c genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	return c.chats.Create(ctx, model, config, history)
}

// Options tune a Generator. Zero values fall back to defaults.
type Options struct {
	Model        string
	MaxRetries   int
	MaxLogLength int
	Temperature  *float32
	JSON         bool
}

// Generator sends prompts to Gemini through a fresh chat session per call.
type Generator struct {
	chats        chatCreator
	model        string
	maxRetries   int
	maxLogLength int
	temperature  *float32
	json         bool

	baseDelay     time.Duration
	maxQuotaDelay time.Duration
	wait          func(context.Context, time.Duration) error

	base   *zap.Logger
	logger *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey string, opts Options, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(genaiChats{chats: client.Chats}, opts, log), nil
}

func newGenerator(chats chatCreator, opts Options, log *zap.Logger) *Generator {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	retries := opts.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	logLength := opts.MaxLogLength
	if logLength <= 0 {
		logLength = defaultMaxLogLength
	}

	return &Generator{
		chats:         chats,
		model:         model,
		maxRetries:    retries,
		maxLogLength:  logLength,
		temperature:   opts.Temperature,
		json:          opts.JSON,
		baseDelay:     defaultBaseDelay,
		maxQuotaDelay: defaultMaxQuotaDelay,
		wait:          utils.WaitFor,
		base:          logger.WithFields(log),
		logger:        logger.WithCommonFields(log, Provider, model),
	}
}

// WithModel returns a copy of the generator that talks to another model.
func (g *Generator) WithModel(model string) *Generator {
	clone := *g
	if model = strings.TrimSpace(model); model != "" {
		clone.model = model
		clone.logger = logger.WithCommonFields(g.base, Provider, model)
	}
	return &clone
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// GenerateContent sends the prompt to Gemini and returns the textual response. Temporary
// failures are retried up to maxRetries attempts in total.
func (g *Generator) GenerateContent(ctx context.Context, system, prompt string) (string, error) {
	if g == nil || g.chats == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{Temperature: g.temperature}
	if system = strings.TrimSpace(system); system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if g.json {
		config.ResponseMIMEType = "application/json"
	}

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		output, err := g.send(ctx, config, prompt)
		if err == nil {
			g.logger.Debug("gemini response received",
				zap.Int("attempt", attempt),
				zap.String("response", utils.TruncateForLog(output, g.maxLogLength)),
			)
			return output, nil
		}
		lastErr = err

		delay, retry := g.retryDelay(err, attempt)
		if !retry || attempt == g.maxRetries {
			break
		}

		g.logger.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := g.wait(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", lastErr
}

func (g *Generator) send(ctx context.Context, config *genai.GenerateContentConfig, prompt string) (string, error) {
	chat, err := g.chats.Create(ctx, g.model, config, nil)
	if err != nil {
		return "", fmt.Errorf("create gemini chat: %w", err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: prompt})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return "", fmt.Errorf("generate content: %w: %w", ai.ErrRateLimited, err)
		}
		return "", fmt.Errorf("generate content: %w", err)
	}

	output := responseText(resp)
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

// retryDelay decides whether err is worth another attempt and how long to wait first.
// Quota errors asking for a longer pause than maxQuotaDelay are not retried.
func (g *Generator) retryDelay(err error, attempt int) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	backoff := g.baseDelay * time.Duration(1<<(attempt-1))

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		if quota, ok := quotaDelay(apiErr); ok {
			if quota > g.maxQuotaDelay {
				return 0, false
			}
			return quota, true
		}
		return backoff, true
	case apiErr.Code >= http.StatusInternalServerError:
		return backoff, true
	default:
		return 0, false
	}
}

func quotaDelay(apiErr genai.APIError) (time.Duration, bool) {
	for _, detail := range apiErr.Details {
		if raw, ok := detail["retryDelay"].(string); ok {
			if d, err := time.ParseDuration(raw); err == nil {
				return d, true
			}
		}
	}

	if m := quotaDelayPattern.FindStringSubmatch(apiErr.Message); m != nil {
		if secs, err := strconv.ParseFloat(m[1], 64); err == nil {
			return time.Duration(secs * float64(time.Second)), true
		}
	}

	return 0, false
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}
