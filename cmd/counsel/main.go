package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"disha/config"
	"disha/services"
	"disha/services/assessment"
	"disha/services/counselor"
	"disha/services/knowledge"
	"disha/services/llm"
)

func main() {
	mode := flag.String("mode", "assessment", "session type: assessment, chat or manual")
	studentID := flag.String("student", "", "student id in the profile store (prompted when empty)")
	withPDF := flag.Bool("pdf", false, "also save the report as PDF")
	verbose := flag.Bool("v", false, "show service logs")
	flag.Parse()

	if !*verbose {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := config.Load()
	if *mode == "manual" {
		cfg.ProfileStore = "memory"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	questionnaire, err := assessment.Load(cfg.QuestionnairePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	kb, err := knowledge.Load(cfg.DatasetPath, searchOptions(cfg, strings.ToLower(*mode)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load knowledge base: %v\n", err)
		os.Exit(1)
	}
	if kb.Len() == 0 {
		fmt.Fprintf(os.Stderr, "⚠️  Career database %s is missing or empty. Guidance will not include local data.\n", cfg.DatasetPath)
	}

	retriever, err := services.NewRetriever(cfg, kb)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	llmClient, err := llm.NewClient(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	reportStore, err := services.NewReportStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	defer reportStore.Close()

	// Manual mode collects the profile on the terminal and never reads the store.
	var source counselor.ProfileSource
	if *mode != "manual" {
		repo, err := services.NewProfileRepository(ctx, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Could not connect to the profile store: %v\n", err)
			os.Exit(1)
		}
		defer repo.Close()
		source = services.NewProfileService(repo)
	}

	a := &app{
		out:           os.Stdout,
		runner:        assessment.NewRunner(os.Stdin, os.Stdout),
		profiles:      source,
		questionnaire: questionnaire,
		counselor:     counselor.NewService(llmClient, retriever, source, services.NewSessionService(), reportStore, cfg.ReportCollegeQuery),
		reportDir:     cfg.ReportDir,
		savePDF:       *withPDF,
		now:           time.Now,
	}

	err = a.run(ctx, strings.ToLower(*mode), *studentID)
	switch {
	case err == nil:
		a.farewell()
	case errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
		fmt.Fprintln(a.out, "\n\n⚠️  Session interrupted. You can restart anytime.")
	default:
		fmt.Fprintf(a.out, "\n❌ An error occurred: %v\n", err)
		os.Exit(1)
	}
}

// searchOptions picks the keyword matcher limits for a session type. Free
// chat uses the server limits; the assessment flows use the wider ones.
func searchOptions(cfg *config.Config, mode string) knowledge.Options {
	preset := knowledge.AssessmentOptions
	if mode == "chat" {
		preset = knowledge.DefaultOptions
	}
	return services.KnowledgeOptions(cfg, preset)
}
