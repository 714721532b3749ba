package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"disha/config"
	"disha/handlers"
	"disha/services"
	"disha/services/counselor"
	"disha/services/knowledge"
	"disha/services/llm"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	profileRepo, err := services.NewProfileRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("[ERROR] Failed to initialize profile store: %v", err)
	}
	defer profileRepo.Close()

	reportStore, err := services.NewReportStore(cfg)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	defer reportStore.Close()

	kb, err := knowledge.Load(cfg.DatasetPath, services.KnowledgeOptions(cfg, knowledge.DefaultOptions))
	if err != nil {
		log.Fatalf("[ERROR] Failed to load knowledge base: %v", err)
	}

	retriever, err := services.NewRetriever(cfg, kb)
	if err != nil {
		log.Fatalf("[ERROR] Failed to initialize knowledge retriever: %v", err)
	}

	llmClient, err := llm.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("[ERROR] Failed to initialize LLM client: %v", err)
	}

	profileService := services.NewProfileService(profileRepo)
	counselorService := counselor.NewService(
		llmClient,
		retriever,
		profileService,
		services.NewSessionService(),
		reportStore,
		cfg.ReportCollegeQuery,
	)

	router := handlers.NewRouter(handlers.RouterConfig{
		APIKey:    cfg.BackendAPIKey,
		Profiles:  profileService,
		Chat:      counselorService,
		Reports:   counselorService,
		Archive:   reportStore,
		Knowledge: kb,
	})

	if cfg.APIKeyGenerated {
		fmt.Printf("Generated API key (set BACKEND_API_KEY to keep it): %s\n", cfg.BackendAPIKey)
	}

	addr := ":" + cfg.Port
	fmt.Printf("%s v%s starting on port %s\n", config.ServiceName, config.ServiceVersion, cfg.Port)

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("[ERROR] Server failed to start: %v", err)
	}
}
