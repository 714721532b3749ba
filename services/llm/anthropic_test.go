package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"disha/models"

	"github.com/anthropics/anthropic-sdk-go/option"
)

// requestLog keeps the decoded JSON bodies a fake provider received.
type requestLog struct {
	mu     sync.Mutex
	bodies []map[string]any
}

func (l *requestLog) record(t *testing.T, r *http.Request) int {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Errorf("failed to decode request body: %v", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.bodies = append(l.bodies, body)
	return len(l.bodies)
}

func (l *requestLog) all() []map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]map[string]any(nil), l.bodies...)
}

// fakeProvider answers POSTs on path with the canned bodies in order, repeating
// the last one once they run out.
func fakeProvider(t *testing.T, match func(path string) bool, status int, responses ...string) (*httptest.Server, *requestLog) {
	t.Helper()
	reqs := &requestLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !match(r.URL.Path) {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		n := reqs.record(t, r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, responses[min(n, len(responses))-1])
	}))
	t.Cleanup(srv.Close)
	return srv, reqs
}

// list walks a decoded JSON body: string keys index objects, ints index arrays.
func list(v any, path ...any) any {
	for _, step := range path {
		switch key := step.(type) {
		case string:
			m, ok := v.(map[string]any)
			if !ok {
				return nil
			}
			v = m[key]
		case int:
			a, ok := v.([]any)
			if !ok || key >= len(a) {
				return nil
			}
			v = a[key]
		}
	}
	return v
}

func roles(contents any) []string {
	items, _ := contents.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		role, _ := list(item, "role").(string)
		out = append(out, role)
	}
	return out
}

func counselingRequest(tool Tool) CompletionRequest {
	return CompletionRequest{
		Messages: []models.Message{
			{Role: models.RoleSystem, Content: "You are a career counselor"},
			{Role: models.RoleUser, Content: "Hi"},
			{Role: models.RoleAssistant, Content: "Hello! What interests you?"},
			{Role: models.RoleUser, Content: "I like caring for people"},
		},
		MaxTokens:   500,
		Temperature: Temperature(0.7),
		Tools:       []Tool{tool},
	}
}

func searchTool(t *testing.T, gotArgs *string) Tool {
	t.Helper()
	params, err := SchemaFor[searchInput]()
	if err != nil {
		t.Fatalf("SchemaFor() error = %v", err)
	}
	return Tool{
		Name:        "search_knowledge_base",
		Description: "Search the career knowledge base",
		Parameters:  params,
		Call: func(_ context.Context, args string) (string, error) {
			*gotArgs = args
			return "Nursing,B.Sc Nursing", nil
		},
	}
}

const (
	anthropicToolUse = `{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
		"content":[{"type":"text","text":"Let me check."},
		{"type":"tool_use","id":"toolu_1","name":"search_knowledge_base","input":{"query":"nursing"}}],
		"stop_reason":"tool_use","usage":{"input_tokens":10,"output_tokens":5}}`
	anthropicText = `{"id":"msg_2","type":"message","role":"assistant","model":"claude-test",
		"content":[{"type":"text","text":"Nursing colleges in Srinagar are a good fit."}],
		"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":5}}`
)

func isMessagesPath(path string) bool { return path == "/v1/messages" }

func TestAnthropicClientToolRoundTrip(t *testing.T) {
	srv, reqs := fakeProvider(t, isMessagesPath, http.StatusOK, anthropicToolUse, anthropicText)
	client := NewAnthropicClient("test-key", "claude-test", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))

	var gotArgs string
	completion, err := client.Complete(context.Background(), counselingRequest(searchTool(t, &gotArgs)))
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if completion.Content != "Nursing colleges in Srinagar are a good fit." || completion.ToolCalls != 1 || completion.Model != "claude-test" {
		t.Errorf("unexpected completion %+v", completion)
	}
	if gotArgs != `{"query":"nursing"}` {
		t.Errorf("tool received %q", gotArgs)
	}

	bodies := reqs.all()
	if len(bodies) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(bodies))
	}

	first := bodies[0]
	if got := list(first, "system", 0, "text"); got != "You are a career counselor" {
		t.Errorf("system prompt = %v", got)
	}
	if got := roles(first["messages"]); strings.Join(got, ",") != "user,assistant,user" {
		t.Errorf("first request roles = %v", got)
	}
	if got := list(first, "max_tokens"); got != float64(500) {
		t.Errorf("max_tokens = %v", got)
	}
	if got := list(first, "tools", 0, "name"); got != "search_knowledge_base" {
		t.Errorf("tool name = %v", got)
	}

	second := bodies[1]
	if got := roles(second["messages"]); strings.Join(got, ",") != "user,assistant,user,assistant,user" {
		t.Fatalf("second request roles = %v", got)
	}
	if got := list(second, "messages", 3, "content", 1, "type"); got != "tool_use" {
		t.Errorf("expected the assistant tool_use block to be replayed, got %v", got)
	}
	result := list(second, "messages", 4, "content", 0)
	if list(result, "type") != "tool_result" || list(result, "tool_use_id") != "toolu_1" {
		t.Errorf("unexpected tool result block %v", result)
	}
	if got := list(result, "content", 0, "text"); got != "Nursing,B.Sc Nursing" {
		t.Errorf("tool result text = %v", got)
	}
}

func TestAnthropicClientStopsAfterMaxToolRounds(t *testing.T) {
	srv, reqs := fakeProvider(t, isMessagesPath, http.StatusOK, anthropicToolUse)
	client := NewAnthropicClient("test-key", "claude-test", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))

	var gotArgs string
	_, err := client.Complete(context.Background(), counselingRequest(searchTool(t, &gotArgs)))
	if err == nil || !strings.Contains(err.Error(), "after 5 rounds") {
		t.Errorf("expected bounded-rounds error, got %v", err)
	}
	if got := len(reqs.all()); got != maxToolRounds+1 {
		t.Errorf("expected %d requests, got %d", maxToolRounds+1, got)
	}
}

func TestAnthropicClientRateLimit(t *testing.T) {
	srv, _ := fakeProvider(t, isMessagesPath, http.StatusTooManyRequests,
		`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)
	client := NewAnthropicClient("test-key", "claude-test", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))

	_, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []models.Message{{Role: models.RoleUser, Content: "hi"}},
	})
	if !IsRateLimit(err) {
		t.Errorf("expected a rate-limit error, got %v", err)
	}
}
