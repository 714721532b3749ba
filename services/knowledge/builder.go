package knowledge

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"disha/models"

	"github.com/samber/lo"
)

// Careers flagged JK_GOVT_PRIORITY=TRUE and given the counselor note.
var GovtPriorityRoles = []string{
	"Doctor", "Engineer", "Lawyer", "Professor", "Teacher",
	"Financial Analyst", "Architect", "Data Scientist", "HR Manager",
	"Operations Manager", "Public Administration", "Civil Engineer",
}

const CounselorNote = "\n\n[COUNSELOR NOTE: For students in Jammu & Kashmir pursuing this career, " +
	"we strongly recommend seeking admission into a **Government Institution** (like a GDC, NIT, IIM, or AIIMS) " +
	"to ensure the highest quality education at the most affordable cost. " +
	"Prioritize preparation for national exams (JEE/NEET/CLAT) or state exams (JKAS/UPSC) to secure these seats. " +
	"High academic quality and low fees offer the best long-term success. " +
	"Focus on Government Colleges (GDC) to save money and prepare for local competitive exams.]"

const (
	SourceStudentProfile = "Student_Profile"
	SourceQAKnowledge    = "QA_Knowledge"
	SourceJobMatch       = "Job_Match_Data"
)

// BuildSources names the input datasets. Recommender and QA are required;
// the job-match and enrichment files are skipped when absent.
type BuildSources struct {
	RecommenderPath string
	QAPath          string
	JobMatchPath    string
	EnrichmentPath  string
}

func IsGovtPriority(careerName string) bool {
	name := strings.ToLower(strings.TrimSpace(careerName))
	return lo.ContainsBy(GovtPriorityRoles, func(role string) bool {
		return strings.ToLower(role) == name
	})
}

// BuildMaster stacks every source into master knowledge entries, in the
// order recommender, QA, job match, enrichment.
func BuildMaster(src BuildSources) ([]models.KnowledgeEntry, error) {
	recommender, err := readTable(src.RecommenderPath)
	if err != nil {
		return nil, fmt.Errorf("recommender dataset: %w", err)
	}

	qa, err := readTable(src.QAPath)
	if err != nil {
		return nil, fmt.Errorf("QA dataset: %w", err)
	}

	var entries []models.KnowledgeEntry
	entries = append(entries, recommenderEntries(recommender)...)
	entries = append(entries, qaEntries(qa)...)

	if src.JobMatchPath != "" {
		jobs, err := readTable(src.JobMatchPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Printf("[WARN] Job match dataset %s not found, skipping", src.JobMatchPath)
		case err != nil:
			return nil, fmt.Errorf("job match dataset: %w", err)
		default:
			entries = append(entries, jobMatchEntries(jobs)...)
		}
	}

	if src.EnrichmentPath != "" {
		enrich, err := readTable(src.EnrichmentPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Printf("[WARN] Enrichment dataset %s not found, skipping", src.EnrichmentPath)
		case err != nil:
			return nil, fmt.Errorf("enrichment dataset: %w", err)
		default:
			entries = append(entries, enrichmentEntries(enrich)...)
			log.Printf("[INFO] Loaded %d enrichment records", len(enrich.rows))
		}
	}

	for i := range entries {
		entries[i].GovtPriority = IsGovtPriority(entries[i].CareerName)
		entries[i].Line = formatLine(entries[i].Record())
	}

	log.Printf("[INFO] Built %d master knowledge entries", len(entries))
	return entries, nil
}

// WriteMaster writes entries as the master CSV, header first.
func WriteMaster(w io.Writer, entries []models.KnowledgeEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.KnowledgeColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write(e.Record()); err != nil {
			return fmt.Errorf("failed to write entry %q: %w", e.CareerName, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func recommenderEntries(t *table) []models.KnowledgeEntry {
	// Every column except the trailing Courses and Career_Options is a Yes/No interest flag.
	interestCols := t.header
	if len(interestCols) >= 2 {
		interestCols = interestCols[:len(interestCols)-2]
	}

	return lo.Map(t.rows, func(row map[string]string, _ int) models.KnowledgeEntry {
		options := row["Career_Options"]
		career := strings.TrimSpace(strings.Split(options, ",")[0])
		interests := lo.Filter(interestCols, func(col string, _ int) bool {
			return row[col] == "Yes"
		})

		return models.KnowledgeEntry{
			CareerName: career,
			TextContent: fmt.Sprintf("PROFILE SUMMARY: Interests: %s. Course Taken: %s. Recommended Career: %s",
				strings.Join(interests, ", "), row["Courses"], career),
			SourceType:    SourceStudentProfile,
			CareerOptions: options,
		}
	})
}

func qaEntries(t *table) []models.KnowledgeEntry {
	return lo.Map(t.rows, func(row map[string]string, _ int) models.KnowledgeEntry {
		role := row["role"]
		answer := row["answer"]
		if IsGovtPriority(role) {
			answer += CounselorNote
		}

		return models.KnowledgeEntry{
			CareerName:    strings.TrimSpace(role),
			TextContent:   fmt.Sprintf("Q&A: %s || ANSWER: %s", row["question"], answer),
			SourceType:    SourceQAKnowledge,
			CareerOptions: role,
		}
	})
}

func jobMatchEntries(t *table) []models.KnowledgeEntry {
	return lo.Map(t.rows, func(row map[string]string, _ int) models.KnowledgeEntry {
		return models.KnowledgeEntry{
			CareerName: "Job_Match_Entry",
			TextContent: fmt.Sprintf("JOB MATCH DATA: User Skills: %s || Job Requirements: %s || Match Score: %s || Recommended: %s",
				row["User_Skills"], row["Job_Requirements"], row["Match_Score"], row["Recommended"]),
			SourceType:    SourceJobMatch,
			CareerOptions: row["Job_Requirements"],
		}
	})
}

func enrichmentEntries(t *table) []models.KnowledgeEntry {
	return lo.Map(t.rows, func(row map[string]string, _ int) models.KnowledgeEntry {
		return models.KnowledgeEntry{
			CareerName:    row["Career_Name"],
			TextContent:   row["text_content"],
			SourceType:    row["Source_Type"],
			CareerOptions: row["Career_Options"],
		}
	})
}

type table struct {
	header []string
	rows   []map[string]string
}

func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return &table{}, nil
	}

	header := lo.Map(records[0], func(col string, _ int) string {
		return strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
	})

	rows := lo.Map(records[1:], func(record []string, _ int) map[string]string {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		return row
	})

	return &table{header: header, rows: rows}, nil
}
