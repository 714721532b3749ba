package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"slices"

	"disha/config"
	"disha/services"

	"github.com/samber/lo"
)

func main() {
	studentID := flag.String("student", "student_001", "student id to inspect")
	flag.Parse()

	ctx := context.Background()
	cfg := config.Load()

	repo, err := services.NewProfileRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("[ERROR] Failed to initialize profile store: %v", err)
	}
	defer repo.Close()

	profiles := services.NewProfileService(repo)

	raw, err := profiles.GetRawProfile(ctx, *studentID)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	fmt.Printf("RAW DOCUMENT FIELDS (%s):\n", *studentID)
	keys := lo.Keys(raw)
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Printf("  %-22s %v\n", k+":", raw[k])
	}

	fmt.Println("\nMAPPED PROFILE:")
	for _, f := range services.NormalizeProfile(raw).Fields() {
		fmt.Printf("  %-26s %s\n", f.Label+":", f.Value)
	}
}
