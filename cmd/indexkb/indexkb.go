package main

import (
	"context"
	"flag"
	"log"

	"disha/config"
	"disha/services/knowledge"
	"disha/services/pinecone"
)

func main() {
	reset := flag.Bool("reset", false, "delete existing vectors before indexing")
	flag.Parse()

	log.Printf("[INFO] Starting knowledge base indexing process")

	ctx := context.Background()
	cfg := config.Load()

	if cfg.PineconeAPIKey == "" {
		log.Fatal("[ERROR] PINECONE_API_KEY environment variable is required")
	}

	if cfg.OpenAIAPIKey == "" {
		log.Fatal("[ERROR] OPENAI_API_KEY environment variable is required")
	}

	kb, err := knowledge.Load(cfg.DatasetPath, knowledge.DefaultOptions)
	if err != nil {
		log.Fatalf("[ERROR] Failed to load knowledge base: %v", err)
	}
	if kb.Len() == 0 {
		log.Fatalf("[ERROR] Knowledge base %s has no entries to index", cfg.DatasetPath)
	}

	svc, err := pinecone.NewService(cfg.PineconeAPIKey, cfg.OpenAIAPIKey, cfg.PineconeIndexName)
	if err != nil {
		log.Fatalf("[ERROR] Failed to initialize Pinecone service: %v", err)
	}

	if err := svc.EnsureIndex(ctx); err != nil {
		log.Fatalf("[ERROR] Failed to ensure Pinecone index: %v", err)
	}

	if *reset {
		if err := svc.Reset(ctx); err != nil {
			log.Fatalf("[ERROR] Failed to delete existing vectors: %v", err)
		}
	}

	log.Printf("[INFO] Indexing %d knowledge base entries into %s", kb.Len(), cfg.PineconeIndexName)
	count, err := svc.UpsertEntries(ctx, kb.Entries())
	if err != nil {
		log.Fatalf("[ERROR] Indexing stopped after %d vectors: %v", count, err)
	}

	log.Printf("[INFO] Knowledge base indexing completed successfully (%d vectors)", count)
}
