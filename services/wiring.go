package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"

	"disha/config"
	"disha/db"
	"disha/services/knowledge"
	"disha/services/pinecone"
)

// NewProfileRepository opens the profile store selected by PROFILE_STORE.
func NewProfileRepository(ctx context.Context, cfg *config.Config) (db.ProfileRepository, error) {
	switch cfg.ProfileStore {
	case "postgres":
		log.Printf("[INFO] Using Postgres profile store")
		return db.NewPostgresProfileRepository(cfg.DatabaseURL)
	case "memory":
		seed, err := db.LoadSeedFile(cfg.StudentsFile)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
			log.Printf("[WARN] Seed file %s not found, in-memory profile store starts empty", cfg.StudentsFile)
		}
		log.Printf("[INFO] Using in-memory profile store with %d students", len(seed))
		return db.NewInMemoryProfileRepository(seed), nil
	default:
		log.Printf("[INFO] Using Firestore profile store (project %s, collection %s)", cfg.FirebaseProjectID, cfg.ProfileCollection)
		return db.NewFirestoreProfileRepository(ctx, db.FirestoreConfig{
			ProjectID:       cfg.FirebaseProjectID,
			Collection:      cfg.ProfileCollection,
			KeyPath:         cfg.FirebaseKeyPath,
			CredentialsJSON: cfg.FirebaseConfig,
		})
	}
}

// NewReportStore opens the report archive. Without DB_URL archiving is a
// no-op.
func NewReportStore(cfg *config.Config) (*ReportStoreService, error) {
	if cfg.DatabaseURL == "" {
		log.Printf("[INFO] DB_URL not set, report archive disabled")
		return NewReportStoreService(nil), nil
	}

	repo, err := db.NewPostgresReportRepository(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize report database: %w", err)
	}
	return NewReportStoreService(repo), nil
}

// KnowledgeOptions applies KB_FUZZY_FALLBACK on top of a search preset.
// A preset that already falls back keeps doing so.
func KnowledgeOptions(cfg *config.Config, preset knowledge.Options) knowledge.Options {
	if cfg.KBFuzzyFallback {
		preset.FuzzyFallback = true
	}
	return preset
}

// NewRetriever returns the knowledge-base retriever selected by
// KB_RETRIEVER. The keyword base is used unless Pinecone is requested.
func NewRetriever(cfg *config.Config, base *knowledge.Base) (knowledge.Retriever, error) {
	if cfg.KBRetriever != "pinecone" {
		return base, nil
	}

	svc, err := pinecone.NewService(cfg.PineconeAPIKey, cfg.OpenAIAPIKey, cfg.PineconeIndexName)
	if err != nil {
		return nil, err
	}
	return svc, nil
}
