package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"disha/models"

	"github.com/tmc/langchaingo/llms"
	"google.golang.org/genai"
)

type fakeClient struct {
	errs  []error
	calls int
}

func (f *fakeClient) Complete(_ context.Context, _ CompletionRequest) (*Completion, error) {
	f.calls++
	if len(f.errs) >= f.calls && f.errs[f.calls-1] != nil {
		return nil, f.errs[f.calls-1]
	}
	return &Completion{Content: "ok"}, nil
}

func TestIsRateLimit(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"sentinel", fmt.Errorf("wrapped: %w", ErrRateLimited), true},
		{"gemini 429", &genai.APIError{Code: 429, Message: "quota"}, true},
		{"gemini 500", &genai.APIError{Code: 500, Message: "boom"}, false},
		{"status text", errors.New("API returned unexpected status code: 429"), true},
		{"resource exhausted", errors.New("RESOURCE_EXHAUSTED: try later"), true},
		{"rate limit phrase", errors.New("Rate limit reached for model"), true},
		{"too many requests", errors.New("429 Too Many Requests"), true},
		{"429 inside request id", errors.New("API returned unexpected status code: 400: request req_84291 invalid"), false},
		{"429 inside model name", errors.New("status code: 500: model gpt-429b unavailable"), false},
		{"other", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRateLimit(tt.err); got != tt.expected {
				t.Errorf("IsRateLimit(%v) = %v, expected %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestRetryClient(t *testing.T) {
	rateErr := errors.New("429 Too Many Requests")

	tests := []struct {
		name          string
		errs          []error
		expectedCalls int
		wantErr       error
	}{
		{"success first try", nil, 1, nil},
		{"retries once after rate limit", []error{rateErr}, 2, nil},
		{"gives up after second rate limit", []error{rateErr, rateErr}, 2, ErrRateLimited},
		{"other errors are not retried", []error{errors.New("bad request")}, 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeClient{errs: tt.errs}
			client := WithRateLimitRetry(fake, time.Millisecond)

			_, err := client.Complete(context.Background(), CompletionRequest{})
			if fake.calls != tt.expectedCalls {
				t.Errorf("expected %d calls, got %d", tt.expectedCalls, fake.calls)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRetryClientHonoursContext(t *testing.T) {
	fake := &fakeClient{errs: []error{errors.New("rate limit")}}
	client := WithRateLimitRetry(fake, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, CompletionRequest{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("expected no retry after cancellation, got %d calls", fake.calls)
	}
}

func TestSplitSystem(t *testing.T) {
	system, rest := splitSystem([]models.Message{
		{Role: models.RoleSystem, Content: "persona"},
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleSystem, Content: "extra"},
		{Role: models.RoleAssistant, Content: "hello"},
	})

	if system != "persona\n\nextra" {
		t.Errorf("unexpected system prompt %q", system)
	}
	if len(rest) != 2 || rest[0].Role != models.RoleUser || rest[1].Role != models.RoleAssistant {
		t.Errorf("unexpected remaining messages %+v", rest)
	}
}

type searchInput struct {
	Query string `json:"query" jsonschema:"required,description=What to look up"`
}

func TestSchemaForAndGeminiSchema(t *testing.T) {
	params, err := SchemaFor[searchInput]()
	if err != nil {
		t.Fatalf("SchemaFor() error = %v", err)
	}
	if params["type"] != "object" {
		t.Errorf("expected object schema, got %v", params["type"])
	}
	props, ok := params["properties"].(map[string]any)
	if !ok || props["query"] == nil {
		t.Fatalf("expected query property, got %v", params["properties"])
	}

	schema := geminiSchema(params)
	if schema.Type != genai.TypeObject {
		t.Errorf("expected OBJECT, got %s", schema.Type)
	}
	if q := schema.Properties["query"]; q == nil || q.Type != genai.TypeString || q.Description != "What to look up" {
		t.Errorf("unexpected query schema %+v", q)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "query" {
		t.Errorf("unexpected required list %v", schema.Required)
	}
}

// scriptedModel returns canned responses in order and records what it saw.
type scriptedModel struct {
	responses []*llms.ContentResponse
	seen      [][]llms.MessageContent
}

func (m *scriptedModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.seen = append(m.seen, messages)
	if len(m.seen) > len(m.responses) {
		return nil, errors.New("unexpected call")
	}
	return m.responses[len(m.seen)-1], nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestLangChainClientToolLoop(t *testing.T) {
	model := &scriptedModel{responses: []*llms.ContentResponse{
		{Choices: []*llms.ContentChoice{{
			ToolCalls: []llms.ToolCall{{
				ID:           "call_1",
				Type:         "function",
				FunctionCall: &llms.FunctionCall{Name: "search", Arguments: `{"query":"doctor"}`},
			}},
		}}},
		{Choices: []*llms.ContentChoice{{Content: "Consider GMC Srinagar."}}},
	}}
	client := &LangChainClient{llm: model, model: "test"}

	var gotArgs string
	tool := Tool{
		Name: "search",
		Call: func(_ context.Context, args string) (string, error) {
			gotArgs = args
			return "Doctor,MBBS", nil
		},
	}

	completion, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []models.Message{
			{Role: models.RoleSystem, Content: "persona"},
			{Role: models.RoleUser, Content: "how do I become a doctor?"},
		},
		Tools: []Tool{tool},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if completion.Content != "Consider GMC Srinagar." || completion.ToolCalls != 1 {
		t.Errorf("unexpected completion %+v", completion)
	}
	if gotArgs != `{"query":"doctor"}` {
		t.Errorf("tool received %q", gotArgs)
	}

	second := model.seen[1]
	if len(second) != 4 {
		t.Fatalf("expected system, user, tool call and tool result, got %d messages", len(second))
	}
	if second[3].Role != llms.ChatMessageTypeTool {
		t.Errorf("expected tool result message, got role %s", second[3].Role)
	}
}

func TestLangChainClientEmptyResponse(t *testing.T) {
	model := &scriptedModel{responses: []*llms.ContentResponse{{Choices: []*llms.ContentChoice{{Content: "  "}}}}}
	client := &LangChainClient{llm: model, model: "test"}

	_, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []models.Message{{Role: models.RoleUser, Content: "hi"}},
	})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}
