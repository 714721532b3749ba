package main

import (
	"flag"
	"log"
	"os"

	"disha/models"
	"disha/services/knowledge"

	"github.com/samber/lo"
)

func main() {
	recommender := flag.String("recommender", "CareerRecommenderDataset.csv", "interest-to-career recommender dataset")
	qa := flag.String("qa", "Career QA Dataset.csv", "career question and answer dataset")
	jobs := flag.String("jobs", "Job Datsset.csv", "optional job match dataset")
	enrichment := flag.String("enrichment", "Career_Enrichment_Data.csv", "optional enrichment dataset in master columns")
	out := flag.String("out", "Career_Knowledge_Master_JK_Augmented.csv", "master knowledge base to write")
	flag.Parse()

	log.Printf("[INFO] Starting knowledge base build")

	entries, err := knowledge.BuildMaster(knowledge.BuildSources{
		RecommenderPath: *recommender,
		QAPath:          *qa,
		JobMatchPath:    *jobs,
		EnrichmentPath:  *enrichment,
	})
	if err != nil {
		log.Fatalf("[ERROR] Failed to build knowledge base: %v", err)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("[ERROR] Failed to create %s: %v", *out, err)
	}
	defer f.Close()

	if err := knowledge.WriteMaster(f, entries); err != nil {
		log.Fatalf("[ERROR] Failed to write %s: %v", *out, err)
	}

	priority := lo.CountBy(entries, func(e models.KnowledgeEntry) bool { return e.GovtPriority })
	log.Printf("[INFO] Wrote %d entries (%d government priority) to %s", len(entries), priority, *out)
}
