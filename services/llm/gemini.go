package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	"disha/models"

	"github.com/samber/lo"
	"google.golang.org/genai"
)

type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient talks to the Gemini API. An empty baseURL uses the
// public endpoint.
func NewGeminiClient(ctx context.Context, apiKey, model, baseURL string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	system, rest := splitSystem(req.Messages)

	contents := lo.Map(rest, func(m models.Message, _ int) *genai.Content {
		var role genai.Role = genai.RoleUser
		if m.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		return genai.NewContentFromText(m.Content, role)
	})

	cfg := &genai.GenerateContentConfig{MaxOutputTokens: int32(maxTokens(req))}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		cfg.Temperature = &t
	}
	if len(req.Tools) > 0 {
		cfg.Tools = []*genai.Tool{{
			FunctionDeclarations: lo.Map(req.Tools, func(t Tool, _ int) *genai.FunctionDeclaration {
				return &genai.FunctionDeclaration{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  geminiSchema(t.Parameters),
				}
			}),
		}}
	}

	toolCalls := 0
	for round := 0; round <= maxToolRounds; round++ {
		resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
		if err != nil {
			log.Printf("[ERROR] Gemini API call failed: %v", err)
			return nil, fmt.Errorf("gemini API call failed: %w", err)
		}
		if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return nil, ErrEmptyResponse
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 || len(req.Tools) == 0 {
			text := resp.Text()
			if strings.TrimSpace(text) == "" {
				return nil, ErrEmptyResponse
			}
			return &Completion{Content: text, Model: c.model, ToolCalls: toolCalls}, nil
		}

		contents = append(contents, resp.Candidates[0].Content)

		var parts []*genai.Part
		for _, call := range calls {
			toolCalls++
			result := runTool(ctx, req.Tools, call.Name, toolInput(call.Args))
			parts = append(parts, genai.NewPartFromFunctionResponse(call.Name, map[string]any{"output": result}))
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	}

	return nil, fmt.Errorf("model kept calling tools after %d rounds", maxToolRounds)
}

// geminiSchema converts a JSON schema object into the SDK's schema type.
// Only the keywords the tools use are carried over.
func geminiSchema(m map[string]any) *genai.Schema {
	if m == nil {
		return nil
	}

	s := &genai.Schema{}
	if t, ok := m["type"].(string); ok {
		s.Type = genai.Type(strings.ToUpper(t))
	}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				s.Properties[name] = geminiSchema(pm)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items = geminiSchema(items)
	}
	s.Required = stringList(m["required"])
	s.Enum = stringList(m["enum"])
	return s
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		return lo.FilterMap(list, func(item any, _ int) (string, bool) {
			s, ok := item.(string)
			return s, ok
		})
	}
	return nil
}
