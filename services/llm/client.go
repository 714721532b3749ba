package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"disha/config"
	"disha/models"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/samber/lo"
	"google.golang.org/genai"
)

var (
	ErrRateLimited   = errors.New("rate limit exceeded")
	ErrEmptyResponse = errors.New("no response from model")
)

// rateLimitStatus matches a 429 reported as a status code, as the
// OpenAI-compatible client formats it. Digits inside ids do not count.
var rateLimitStatus = regexp.MustCompile(`status(?: code)?:?\s*429\b`)

// Tool rounds allowed before a completion gives up on the model.
const maxToolRounds = 5

const defaultMaxTokens = 1024

// Tool is a function the model may call. Parameters is a JSON schema object
// and Call receives the raw JSON arguments.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Call        func(ctx context.Context, args string) (string, error)
}

type CompletionRequest struct {
	Messages    []models.Message
	MaxTokens   int
	Temperature *float64
	Tools       []Tool
}

type Completion struct {
	Content   string
	Model     string
	ToolCalls int
}

type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

func Temperature(t float64) *float64 {
	return &t
}

// NewClient builds the provider selected in the configuration, wrapped with
// the single rate-limit retry.
func NewClient(ctx context.Context, cfg *config.Config) (Client, error) {
	var (
		client Client
		err    error
	)

	switch cfg.LLMProvider {
	case "openrouter", "openai", "lmstudio":
		client, err = NewLangChainClient(cfg.LLMAPIKey(), cfg.LLMModel, cfg.LLMBaseURL)
	case "anthropic":
		var opts []option.RequestOption
		if cfg.LLMBaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.LLMBaseURL))
		}
		client = NewAnthropicClient(cfg.LLMAPIKey(), cfg.LLMModel, opts...)
	case "gemini":
		client, err = NewGeminiClient(ctx, cfg.LLMAPIKey(), cfg.LLMModel, cfg.LLMBaseURL)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.LLMProvider, err)
	}

	log.Printf("[INFO] Using LLM provider %s with model %s", cfg.LLMProvider, cfg.LLMModel)
	return WithRateLimitRetry(client, cfg.LLMRateLimitWait), nil
}

// IsRateLimit reports whether err means the provider is throttling us.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}

	var geminiErr *genai.APIError
	if errors.As(err, &geminiErr) && geminiErr.Code == 429 {
		return true
	}

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) && anthropicErr.StatusCode == 429 {
		return true
	}

	msg := strings.ToLower(err.Error())
	return rateLimitStatus.MatchString(msg) ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "rate limit")
}

// RetryClient retries a completion once, after a fixed wait, when the first
// attempt was rate limited.
type RetryClient struct {
	next Client
	wait time.Duration
}

func WithRateLimitRetry(next Client, wait time.Duration) *RetryClient {
	return &RetryClient{next: next, wait: wait}
}

func (c *RetryClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	completion, err := c.next.Complete(ctx, req)
	if err == nil || !IsRateLimit(err) {
		return completion, err
	}

	log.Printf("[WARN] Rate limit hit, waiting %s before retrying: %v", c.wait, err)

	timer := time.NewTimer(c.wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	completion, err = c.next.Complete(ctx, req)
	if err != nil {
		if IsRateLimit(err) {
			log.Printf("[ERROR] Still rate limited after retry: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return nil, err
	}
	return completion, nil
}

// splitSystem joins every system message into one instruction and returns
// the remaining conversation.
func splitSystem(messages []models.Message) (string, []models.Message) {
	system := lo.FilterMap(messages, func(m models.Message, _ int) (string, bool) {
		return m.Content, m.Role == models.RoleSystem
	})
	rest := lo.Filter(messages, func(m models.Message, _ int) bool {
		return m.Role != models.RoleSystem
	})
	return strings.Join(system, "\n\n"), rest
}

func maxTokens(req CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}

// runTool executes the named tool. Failures are returned to the model as text
// so it can recover in the next round.
func runTool(ctx context.Context, tools []Tool, name, args string) string {
	tool, ok := lo.Find(tools, func(t Tool) bool { return t.Name == name })
	if !ok {
		log.Printf("[WARN] Model requested unknown tool %s", name)
		return fmt.Sprintf("Error: tool %s not found", name)
	}

	log.Printf("[INFO] Executing tool: %s with arguments: %s", name, args)
	result, err := tool.Call(ctx, args)
	if err != nil {
		log.Printf("[ERROR] Tool execution failed: %v", err)
		return fmt.Sprintf("Error: %v", err)
	}
	return result
}
