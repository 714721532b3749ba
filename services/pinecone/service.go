package pinecone

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"disha/models"
	"disha/services/knowledge"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/samber/lo"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	Namespace       = "career-kb"
	DefaultTopK     = 10
	upsertBatchSize = 10
	// text-embedding-ada-002
	embeddingDimension = int32(1536)
	readyPollInterval  = 10 * time.Second
)

type vectorIndex interface {
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
	DeleteAllVectorsInNamespace(ctx context.Context) error
}

// Service is a knowledge.Retriever backed by a Pinecone index of
// knowledge-base rows.
type Service struct {
	client    *pinecone.Client
	embedder  embeddings.Embedder
	indexName string
	topK      int
	noMatches string

	mu    sync.Mutex
	index vectorIndex
}

func NewService(apiKey, openaiAPIKey, indexName string) (*Service, error) {
	log.Printf("[INFO] Initializing Pinecone service for index %s", indexName)

	pc, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}

	embedder, err := NewEmbedder(openaiAPIKey)
	if err != nil {
		return nil, err
	}

	service := &Service{
		client:    pc,
		embedder:  embedder,
		indexName: indexName,
		topK:      DefaultTopK,
		noMatches: knowledge.NoMatchesText,
	}

	log.Printf("[INFO] Pinecone service initialized successfully")
	return service, nil
}

// NewEmbedder returns the OpenAI embedder used both for indexing and for
// queries, so vectors on both sides share one model.
func NewEmbedder(openaiAPIKey string) (embeddings.Embedder, error) {
	llm, err := openai.New(
		openai.WithToken(openaiAPIKey),
		openai.WithEmbeddingModel("text-embedding-ada-002"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

// SearchText embeds the query and returns the stored lines of the closest
// rows, one per line.
func (s *Service) SearchText(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.noMatches, nil
	}

	idx, err := s.connect(ctx)
	if err != nil {
		return "", err
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		log.Printf("[ERROR] Failed to embed query %q: %v", query, err)
		return "", fmt.Errorf("failed to embed query: %w", err)
	}

	result, err := idx.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(s.topK),
		IncludeValues:   false,
		IncludeMetadata: true,
	})
	if err != nil {
		log.Printf("[ERROR] Failed to query Pinecone for %q: %v", query, err)
		return "", fmt.Errorf("failed to query vectors: %w", err)
	}

	lines := matchLines(result.Matches)
	log.Printf("[INFO] Retrieved %d knowledge base lines for %q", len(lines), query)
	if len(lines) == 0 {
		return s.noMatches, nil
	}
	return strings.Join(lines, "\n"), nil
}

// EnsureIndex creates the serverless index when it does not exist and waits
// until it reports ready.
func (s *Service) EnsureIndex(ctx context.Context) error {
	indexes, err := s.client.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}

	if lo.ContainsBy(indexes, func(idx *pinecone.Index) bool { return idx.Name == s.indexName }) {
		log.Printf("[INFO] Index %s already exists", s.indexName)
		return nil
	}

	log.Printf("[INFO] Creating Pinecone index: %s", s.indexName)
	dimension := embeddingDimension
	deletionProtection := pinecone.DeletionProtectionDisabled
	metric := pinecone.Cosine

	_, err = s.client.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
		Name:               s.indexName,
		Dimension:          &dimension,
		Metric:             &metric,
		Cloud:              pinecone.Aws,
		Region:             "us-east-1",
		DeletionProtection: &deletionProtection,
		Tags:               &pinecone.IndexTags{"project": "kashmir-disha"},
	})
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()
	for {
		idx, err := s.client.DescribeIndex(ctx, s.indexName)
		if err != nil {
			return fmt.Errorf("failed to describe index: %w", err)
		}
		if idx.Status != nil && idx.Status.Ready {
			log.Printf("[INFO] Index %s is ready", s.indexName)
			return nil
		}
		log.Printf("[INFO] Waiting for index %s to be ready...", s.indexName)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Reset removes every vector in the knowledge-base namespace.
func (s *Service) Reset(ctx context.Context) error {
	idx, err := s.connect(ctx)
	if err != nil {
		return err
	}

	if err := idx.DeleteAllVectorsInNamespace(ctx); err != nil {
		if strings.Contains(err.Error(), "Namespace not found") {
			log.Printf("[INFO] Namespace %s does not exist yet, nothing to delete", Namespace)
			return nil
		}
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	log.Printf("[INFO] Deleted all vectors in namespace %s", Namespace)
	return nil
}

// UpsertEntries embeds and upserts entries in batches. Vector ids follow the
// entry position, so re-indexing the same file overwrites in place.
func (s *Service) UpsertEntries(ctx context.Context, entries []models.KnowledgeEntry) (int, error) {
	idx, err := s.connect(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for i, batch := range lo.Chunk(entries, upsertBatchSize) {
		offset := i * upsertBatchSize
		texts := lo.Map(batch, func(e models.KnowledgeEntry, _ int) string { return embeddingText(e) })

		values, err := s.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return total, fmt.Errorf("failed to embed batch %d: %w", i+1, err)
		}

		vectors, err := buildVectors(batch, values, offset)
		if err != nil {
			return total, err
		}

		count, err := idx.UpsertVectors(ctx, vectors)
		if err != nil {
			return total, fmt.Errorf("failed to upsert vector batch %d: %w", i+1, err)
		}
		total += int(count)
		log.Printf("[INFO] Successfully upserted %d vectors (batch %d)", count, i+1)
	}

	return total, nil
}

func (s *Service) connect(ctx context.Context) (vectorIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		return s.index, nil
	}

	idxDesc, err := s.client.DescribeIndex(ctx, s.indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index: %w", err)
	}

	idxConn, err := s.client.Index(pinecone.NewIndexConnParams{
		Host:      idxDesc.Host,
		Namespace: Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create index connection: %w", err)
	}

	s.index = idxConn
	return s.index, nil
}

func embeddingText(e models.KnowledgeEntry) string {
	return fmt.Sprintf("Career: %s\n\nContent: %s\n\nOptions: %s", e.CareerName, e.TextContent, e.CareerOptions)
}

func vectorID(position int) string {
	return fmt.Sprintf("kb_%d", position)
}

func buildVectors(entries []models.KnowledgeEntry, values [][]float32, offset int) ([]*pinecone.Vector, error) {
	if len(values) != len(entries) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(entries), len(values))
	}

	vectors := make([]*pinecone.Vector, 0, len(entries))
	for i, e := range entries {
		metadata, err := structpb.NewStruct(map[string]any{
			"career_name":      e.CareerName,
			"source_type":      e.SourceType,
			"jk_govt_priority": e.GovtPriority,
			"line":             e.Line,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create metadata struct for entry %d: %w", offset+i, err)
		}

		vals := values[i]
		vectors = append(vectors, &pinecone.Vector{
			Id:       vectorID(offset + i),
			Values:   &vals,
			Metadata: metadata,
		})
	}
	return vectors, nil
}

// matchLines pulls the stored line out of each match, in score order and
// without duplicates.
func matchLines(matches []*pinecone.ScoredVector) []string {
	lines := lo.FilterMap(matches, func(m *pinecone.ScoredVector, _ int) (string, bool) {
		if m == nil || m.Vector == nil || m.Vector.Metadata == nil {
			return "", false
		}
		line, ok := m.Vector.Metadata.AsMap()["line"].(string)
		return line, ok && line != ""
	})
	return lo.Uniq(lines)
}
