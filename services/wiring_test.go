package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"disha/config"
	"disha/models"
	"disha/services/knowledge"
)

func TestNewProfileRepositoryMemory(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "students.yaml")
	if err := os.WriteFile(seedPath, []byte("students:\n  student_001:\n    fullName: Lakshay Kumar\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		file     string
		expected string
	}{
		{"seeded", seedPath, "Lakshay Kumar"},
		{"missing seed file", filepath.Join(dir, "none.yaml"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{ProfileStore: "memory", StudentsFile: tt.file}
			repo, err := NewProfileRepository(context.Background(), cfg)
			if err != nil {
				t.Fatalf("NewProfileRepository() error = %v", err)
			}
			defer repo.Close()

			profile, err := NewProfileService(repo).GetProfile(context.Background(), "student_001")
			if tt.expected == "" {
				if err == nil {
					t.Error("expected not-found error from empty store")
				}
				return
			}
			if err != nil || profile.Name != tt.expected {
				t.Errorf("expected %s, got %+v (err %v)", tt.expected, profile, err)
			}
		})
	}
}

func TestNewReportStoreWithoutDatabase(t *testing.T) {
	store, err := NewReportStore(&config.Config{})
	if err != nil {
		t.Fatalf("NewReportStore() error = %v", err)
	}
	if store.Enabled() {
		t.Error("report store should be disabled without DB_URL")
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNewRetrieverKeyword(t *testing.T) {
	base := knowledge.NewBase(nil, knowledge.DefaultOptions)

	r, err := NewRetriever(&config.Config{KBRetriever: "keyword"}, base)
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}
	if r != knowledge.Retriever(base) {
		t.Error("expected the keyword base to be returned")
	}
}

func TestKnowledgeOptions(t *testing.T) {
	base := knowledge.NewBase([]models.KnowledgeEntry{
		{CareerName: "Engineer", Line: "Engineer,Builds bridges"},
	}, knowledge.DefaultOptions)

	tests := []struct {
		name     string
		cfg      *config.Config
		preset   knowledge.Options
		expected int
	}{
		{"default preset", &config.Config{}, knowledge.DefaultOptions, 0},
		{"default preset with KB_FUZZY_FALLBACK", &config.Config{KBFuzzyFallback: true}, knowledge.DefaultOptions, 1},
		{"assessment preset", &config.Config{}, knowledge.AssessmentOptions, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := KnowledgeOptions(tt.cfg, tt.preset)
			if opts.PhraseLimit != tt.preset.PhraseLimit {
				t.Errorf("preset limits should be kept, got %+v", opts)
			}
			if got := base.WithOptions(opts).Search("enginer"); len(got) != tt.expected {
				t.Errorf("Search(enginer) = %v, expected %d matches", got, tt.expected)
			}
		})
	}
}
