package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"slices"

	"disha/config"
	"disha/db"
	"disha/services"

	"github.com/samber/lo"
)

func main() {
	file := flag.String("file", "", "YAML file with sample students (defaults to STUDENTS_FILE)")
	flag.Parse()

	ctx := context.Background()
	cfg := config.Load()

	path := *file
	if path == "" {
		path = cfg.StudentsFile
	}

	students, err := db.LoadSeedFile(path)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if len(students) == 0 {
		log.Fatalf("[ERROR] No students found in %s", path)
	}

	repo, err := services.NewProfileRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("[ERROR] Failed to initialize profile store: %v", err)
	}
	defer repo.Close()

	profiles := services.NewProfileService(repo)

	fmt.Printf("📤 Uploading %d students to the %s profile store...\n", len(students), cfg.ProfileStore)

	ids := lo.Keys(students)
	slices.Sort(ids)
	failed := 0
	for _, id := range ids {
		if err := profiles.SaveProfile(ctx, id, students[id]); err != nil {
			fmt.Printf("❌ %s: %v\n", id, err)
			failed++
			continue
		}

		// Read the document back through the same mapping the counselor uses.
		profile, err := profiles.GetProfile(ctx, id)
		if err != nil {
			fmt.Printf("❌ %s was written but could not be read back: %v\n", id, err)
			failed++
			continue
		}
		fmt.Printf("✅ Added: %s - %s (%s, %s)\n", id, profile.Name, profile.District, profile.TwelfthStream)
	}

	if failed > 0 {
		log.Fatalf("[ERROR] %d of %d students failed", failed, len(ids))
	}
	fmt.Println("\n🎉 All students added successfully!")
}
