package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/spigell/cv-refiner/internal/ai"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeChatCreator struct {
	mu    sync.Mutex
	calls []chatCallRecord
	queue map[string][]fakeChatResponse
}

type chatCallRecord struct {
	model  string
	config *genai.GenerateContentConfig
	chat   *fakeChat
}

type fakeChatResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeChat struct {
	mu       sync.Mutex
	response fakeChatResponse
	messages []string
}

func (f *fakeChat) SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, part := range parts {
		f.messages = append(f.messages, part.Text)
	}
	return f.response.resp, f.response.err
}

func newFakeChatCreator() *fakeChatCreator {
	return &fakeChatCreator{queue: make(map[string][]fakeChatResponse)}
}

func (f *fakeChatCreator) enqueue(model string, resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue[model] = append(f.queue[model], fakeChatResponse{resp: resp, err: err})
}

func (f *fakeChatCreator) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	responses := f.queue[model]
	if len(responses) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := responses[0]
	f.queue[model] = responses[1:]
	chat := &fakeChat{response: res}
	f.calls = append(f.calls, chatCallRecord{model: model, config: config, chat: chat})
	return chat, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func testGenerator(chats chatCreator, opts Options) (*Generator, *[]time.Duration) {
	g := newGenerator(chats, opts, zap.NewNop())
	waits := &[]time.Duration{}
	g.wait = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return g, waits
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	t.Parallel()

	chats := newFakeChatCreator()
	tempErr := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}
	chats.enqueue("gemini-pro", nil, tempErr)
	chats.enqueue("gemini-pro", textResponse("retry ok"), nil)

	g, waits := testGenerator(chats, Options{Model: "gemini-pro", MaxRetries: 2})

	output, err := g.GenerateContent(context.Background(), "system", "message")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(chats.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(chats.calls))
	}

	if len(*waits) != 1 || (*waits)[0] != defaultBaseDelay {
		t.Fatalf("expected a single base delay wait, got %v", *waits)
	}

	for _, call := range chats.calls {
		if call.config == nil || call.config.SystemInstruction == nil {
			t.Fatalf("expected system instruction to be set")
		}
		if got := call.config.SystemInstruction.Parts[0].Text; got != "system" {
			t.Fatalf("unexpected system instruction: %q", got)
		}
		if len(call.chat.messages) != 1 || call.chat.messages[0] != "message" {
			t.Fatalf("unexpected chat message: %+v", call.chat.messages)
		}
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	t.Parallel()

	chats := newFakeChatCreator()
	tempErr := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}
	chats.enqueue("gemini-pro", nil, tempErr)
	chats.enqueue("gemini-pro", nil, tempErr)

	g, _ := testGenerator(chats, Options{Model: "gemini-pro", MaxRetries: 2})

	_, err := g.GenerateContent(context.Background(), "sys", "msg")
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}

	if len(chats.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(chats.calls))
	}
}

func TestGeneratorDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	t.Parallel()

	chats := newFakeChatCreator()
	quotaErr := genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	}
	chats.enqueue("gemini-pro", nil, quotaErr)

	g, _ := testGenerator(chats, Options{Model: "gemini-pro", MaxRetries: 3})

	_, err := g.GenerateContent(context.Background(), "sys", "msg")
	if err == nil {
		t.Fatal("expected error when quota delay too long")
	}

	if !errors.Is(err, ai.ErrRateLimited) {
		t.Fatalf("expected rate limit error, got %v", err)
	}

	if len(chats.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(chats.calls))
	}
}

func TestGeneratorWaitsForShortQuotaDelay(t *testing.T) {
	t.Parallel()

	chats := newFakeChatCreator()
	quotaErr := genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Details: []map[string]any{{"retryDelay": "7s"}},
	}
	chats.enqueue("gemini-pro", nil, quotaErr)
	chats.enqueue("gemini-pro", textResponse("{}"), nil)

	g, waits := testGenerator(chats, Options{Model: "gemini-pro"})

	if _, err := g.GenerateContent(context.Background(), "sys", "msg"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(*waits) != 1 || (*waits)[0] != 7*time.Second {
		t.Fatalf("expected to wait for the quota delay, got %v", *waits)
	}
}

func TestGeneratorDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	chats := newFakeChatCreator()
	chats.enqueue("gemini-pro", nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	g, _ := testGenerator(chats, Options{Model: "gemini-pro"})

	if _, err := g.GenerateContent(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error")
	}

	if len(chats.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(chats.calls))
	}
}

func TestGeneratorJSONModeAndEmptyPrompt(t *testing.T) {
	t.Parallel()

	chats := newFakeChatCreator()
	chats.enqueue("judge-model", textResponse(`{"score": 80}`), nil)

	temp := float32(0.3)
	base, _ := testGenerator(chats, Options{Model: "gemini-pro", JSON: true, Temperature: &temp})
	g := base.WithModel("judge-model")

	if g.Model() != "judge-model" || base.Model() != "gemini-pro" {
		t.Fatalf("unexpected models: %q, %q", g.Model(), base.Model())
	}

	if _, err := g.GenerateContent(context.Background(), "", "  "); err == nil {
		t.Fatal("expected error for empty prompt")
	}

	out, err := g.GenerateContent(context.Background(), "", "evaluate")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != `{"score": 80}` {
		t.Fatalf("unexpected output %q", out)
	}

	cfg := chats.calls[0].config
	if cfg.ResponseMIMEType != "application/json" {
		t.Fatalf("expected JSON response type, got %q", cfg.ResponseMIMEType)
	}
	if cfg.SystemInstruction != nil {
		t.Fatalf("expected no system instruction for empty system prompt")
	}
	if cfg.Temperature == nil || *cfg.Temperature != temp {
		t.Fatalf("expected temperature to be forwarded")
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	t.Parallel()

	chats := newFakeChatCreator()
	chats.enqueue("gemini-pro", &genai.GenerateContentResponse{}, nil)

	g, _ := testGenerator(chats, Options{Model: "gemini-pro", MaxRetries: 1})

	if _, err := g.GenerateContent(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error for empty response")
	}
}
