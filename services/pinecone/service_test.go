package pinecone

import (
	"context"
	"errors"
	"strings"
	"testing"

	"disha/models"
	"disha/services/knowledge"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeEmbedder struct {
	err   error
	calls [][]string
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text)), 1}, nil
}

type fakeIndex struct {
	matches  []*pinecone.ScoredVector
	lastTopK uint32
	upserted []*pinecone.Vector
	deleted  bool
}

func (f *fakeIndex) QueryByVectorValues(_ context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error) {
	f.lastTopK = in.TopK
	return &pinecone.QueryVectorsResponse{Matches: f.matches}, nil
}

func (f *fakeIndex) UpsertVectors(_ context.Context, in []*pinecone.Vector) (uint32, error) {
	f.upserted = append(f.upserted, in...)
	return uint32(len(in)), nil
}

func (f *fakeIndex) DeleteAllVectorsInNamespace(context.Context) error {
	f.deleted = true
	return nil
}

func scored(t *testing.T, line string) *pinecone.ScoredVector {
	t.Helper()
	md, err := structpb.NewStruct(map[string]any{"line": line})
	if err != nil {
		t.Fatal(err)
	}
	return &pinecone.ScoredVector{Vector: &pinecone.Vector{Id: line, Metadata: md}}
}

func newTestService(idx *fakeIndex, emb *fakeEmbedder) *Service {
	return &Service{embedder: emb, topK: DefaultTopK, noMatches: knowledge.NoMatchesText, index: idx}
}

func TestSearchText(t *testing.T) {
	idx := &fakeIndex{}
	idx.matches = []*pinecone.ScoredVector{
		scored(t, "Doctor,MBBS at GMC Srinagar,QA,,TRUE"),
		{Vector: &pinecone.Vector{Id: "no-metadata"}},
		scored(t, "Doctor,MBBS at GMC Srinagar,QA,,TRUE"),
		scored(t, "Nurse,B.Sc Nursing,QA,,TRUE"),
	}
	svc := newTestService(idx, &fakeEmbedder{})

	got, err := svc.SearchText(context.Background(), "medical careers")
	if err != nil {
		t.Fatalf("SearchText() error = %v", err)
	}

	expected := "Doctor,MBBS at GMC Srinagar,QA,,TRUE\nNurse,B.Sc Nursing,QA,,TRUE"
	if got != expected {
		t.Errorf("SearchText() = %q, expected %q", got, expected)
	}
	if idx.lastTopK != DefaultTopK {
		t.Errorf("expected TopK %d, got %d", DefaultTopK, idx.lastTopK)
	}
}

func TestSearchTextNoMatches(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"blank query", "   "},
		{"empty result", "astronaut"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&fakeIndex{}, &fakeEmbedder{})
			got, err := svc.SearchText(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("SearchText() error = %v", err)
			}
			if got != knowledge.NoMatchesText {
				t.Errorf("expected no-match text, got %q", got)
			}
		})
	}
}

func TestSearchTextEmbeddingError(t *testing.T) {
	svc := newTestService(&fakeIndex{}, &fakeEmbedder{err: errors.New("quota exceeded")})

	if _, err := svc.SearchText(context.Background(), "doctor"); err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("expected wrapped embedding error, got %v", err)
	}
}

func TestUpsertEntriesBatches(t *testing.T) {
	entries := make([]models.KnowledgeEntry, 23)
	for i := range entries {
		entries[i] = models.KnowledgeEntry{CareerName: "Career", Line: "line"}
	}
	entries[22].GovtPriority = true

	idx := &fakeIndex{}
	emb := &fakeEmbedder{}
	svc := newTestService(idx, emb)

	n, err := svc.UpsertEntries(context.Background(), entries)
	if err != nil {
		t.Fatalf("UpsertEntries() error = %v", err)
	}
	if n != 23 || len(idx.upserted) != 23 {
		t.Fatalf("expected 23 vectors, got %d (%d upserted)", n, len(idx.upserted))
	}
	if len(emb.calls) != 3 || len(emb.calls[2]) != 3 {
		t.Errorf("expected batches of 10, 10 and 3, got %d calls", len(emb.calls))
	}
	if id := idx.upserted[22].Id; id != "kb_22" {
		t.Errorf("expected id kb_22, got %s", id)
	}
	if v := idx.upserted[22].Metadata.AsMap()["jk_govt_priority"]; v != true {
		t.Errorf("expected priority metadata true, got %v", v)
	}
}

func TestBuildVectorsLengthMismatch(t *testing.T) {
	_, err := buildVectors([]models.KnowledgeEntry{{}, {}}, [][]float32{{1}}, 0)
	if err == nil {
		t.Error("expected error when embeddings and entries differ in length")
	}
}

func TestReset(t *testing.T) {
	idx := &fakeIndex{}
	if err := newTestService(idx, &fakeEmbedder{}).Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if !idx.deleted {
		t.Error("expected namespace to be cleared")
	}
}
