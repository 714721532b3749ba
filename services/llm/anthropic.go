package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"disha/models"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicClient(apiKey, model string, opts ...option.RequestOption) *AnthropicClient {
	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &AnthropicClient{client: &client, model: model}
}

func (c *AnthropicClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	system, rest := splitSystem(req.Messages)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens(req)),
		Messages:  c.convertMessages(rest),
		Tools:     c.buildToolSpecs(req.Tools),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	toolCalls := 0
	for round := 0; round <= maxToolRounds; round++ {
		response, err := c.client.Messages.New(ctx, params)
		if err != nil {
			log.Printf("[ERROR] Failed to call Anthropic API: %v", err)
			return nil, fmt.Errorf("failed to call Anthropic API: %w", err)
		}

		var text strings.Builder
		var toolUses []anthropic.ToolUseBlock
		for _, block := range response.Content {
			switch block := block.AsAny().(type) {
			case anthropic.TextBlock:
				text.WriteString(block.Text)
			case anthropic.ToolUseBlock:
				toolUses = append(toolUses, block)
			}
		}

		if len(toolUses) == 0 || len(req.Tools) == 0 {
			if strings.TrimSpace(text.String()) == "" {
				return nil, ErrEmptyResponse
			}
			return &Completion{Content: text.String(), Model: string(response.Model), ToolCalls: toolCalls}, nil
		}

		var assistantBlocks []anthropic.ContentBlockParamUnion
		if text.Len() > 0 {
			assistantBlocks = append(assistantBlocks, anthropic.ContentBlockParamUnion{
				OfText: &anthropic.TextBlockParam{Text: text.String()},
			})
		}
		var resultBlocks []anthropic.ContentBlockParamUnion
		for _, toolUse := range toolUses {
			toolCalls++
			assistantBlocks = append(assistantBlocks, anthropic.ContentBlockParamUnion{
				OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    toolUse.ID,
					Name:  toolUse.Name,
					Input: toolUse.Input,
				},
			})

			result := runTool(ctx, req.Tools, toolUse.Name, toolInput(toolUse.Input))
			resultBlocks = append(resultBlocks, anthropic.ContentBlockParamUnion{
				OfToolResult: &anthropic.ToolResultBlockParam{
					ToolUseID: toolUse.ID,
					Content: []anthropic.ToolResultBlockParamContentUnion{
						{OfText: &anthropic.TextBlockParam{Text: result}},
					},
				},
			})
		}

		params.Messages = append(params.Messages,
			anthropic.NewAssistantMessage(assistantBlocks...),
			anthropic.NewUserMessage(resultBlocks...),
		)
	}

	return nil, fmt.Errorf("model kept calling tools after %d rounds", maxToolRounds)
}

func (c *AnthropicClient) convertMessages(messages []models.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return out
}

func (c *AnthropicClient) buildToolSpecs(tools []Tool) []anthropic.ToolUnionParam {
	var specs []anthropic.ToolUnionParam
	for _, tool := range tools {
		specs = append(specs, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name,
				Description: anthropic.String(tool.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: tool.Parameters["properties"],
				},
			},
		})
	}
	return specs
}

// toolInput renders the tool_use input as the JSON text tools expect.
func toolInput(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
