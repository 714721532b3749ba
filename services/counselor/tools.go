package counselor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"disha/services/knowledge"
	"disha/services/llm"
)

const SearchToolName = "search_knowledge_base"

type SearchKnowledgeInput struct {
	Query string `json:"query" jsonschema:"required,description=Career, course, college, exam or scholarship to look up in the J&K career database"`
}

// NewSearchTool exposes the knowledge base to the model as a callable tool.
func NewSearchTool(kb knowledge.Retriever) (llm.Tool, error) {
	params, err := llm.SchemaFor[SearchKnowledgeInput]()
	if err != nil {
		return llm.Tool{}, err
	}

	return llm.Tool{
		Name:        SearchToolName,
		Description: "Searches the J&K career knowledge base and returns matching rows (career, details, source, options, government priority flag)",
		Parameters:  params,
		Call: func(ctx context.Context, input string) (string, error) {
			var params SearchKnowledgeInput
			if err := json.Unmarshal([]byte(input), &params); err != nil {
				return "", fmt.Errorf("failed to parse search tool input: %w", err)
			}
			if strings.TrimSpace(params.Query) == "" {
				return "", fmt.Errorf("query is required")
			}
			return kb.SearchText(ctx, params.Query)
		},
	}, nil
}
