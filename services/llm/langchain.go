package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	"disha/models"

	"github.com/samber/lo"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainClient talks to any OpenAI-compatible endpoint: OpenRouter,
// OpenAI itself or a local LM Studio server.
type LangChainClient struct {
	llm   llms.Model
	model string
}

func NewLangChainClient(apiKey, model, baseURL string) (*LangChainClient, error) {
	opts := []openai.Option{
		openai.WithModel(model),
		openai.WithToken(apiKey),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return &LangChainClient{llm: llm, model: model}, nil
}

func (c *LangChainClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	messages := lo.Map(req.Messages, func(m models.Message, _ int) llms.MessageContent {
		return llms.TextParts(langChainRole(m.Role), m.Content)
	})

	opts := []llms.CallOption{llms.WithMaxTokens(maxTokens(req))}
	if req.Temperature != nil {
		opts = append(opts, llms.WithTemperature(*req.Temperature))
	}
	if len(req.Tools) > 0 {
		opts = append(opts, llms.WithTools(lo.Map(req.Tools, func(t Tool, _ int) llms.Tool {
			return llms.Tool{
				Type: "function",
				Function: &llms.FunctionDefinition{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			}
		})))
	}

	toolCalls := 0
	for round := 0; round <= maxToolRounds; round++ {
		resp, err := c.llm.GenerateContent(ctx, messages, opts...)
		if err != nil {
			log.Printf("[ERROR] Failed to call %s: %v", c.model, err)
			return nil, fmt.Errorf("failed to call %s: %w", c.model, err)
		}
		if len(resp.Choices) == 0 {
			return nil, ErrEmptyResponse
		}

		choice := resp.Choices[0]
		calls := lo.Filter(choice.ToolCalls, func(tc llms.ToolCall, _ int) bool {
			return tc.FunctionCall != nil
		})
		if len(calls) == 0 || len(req.Tools) == 0 {
			if strings.TrimSpace(choice.Content) == "" {
				return nil, ErrEmptyResponse
			}
			return &Completion{Content: choice.Content, Model: c.model, ToolCalls: toolCalls}, nil
		}

		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		for _, tc := range calls {
			assistant.Parts = append(assistant.Parts, tc)
		}
		messages = append(messages, assistant)

		for _, tc := range calls {
			toolCalls++
			result := runTool(ctx, req.Tools, tc.FunctionCall.Name, tc.FunctionCall.Arguments)
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: tc.ID,
					Name:       tc.FunctionCall.Name,
					Content:    result,
				}},
			})
		}
	}

	return nil, fmt.Errorf("model kept calling tools after %d rounds", maxToolRounds)
}

func langChainRole(role string) llms.ChatMessageType {
	switch role {
	case models.RoleSystem:
		return llms.ChatMessageTypeSystem
	case models.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
