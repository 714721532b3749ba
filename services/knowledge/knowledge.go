package knowledge

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"disha/models"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
)

const (
	NoMatchesText    = "No direct matches found in the dataset."
	NoMatchesTextPro = "No matches found."
	minKeywordLength = 4
)

// Retriever returns knowledge-base context for a free-text query.
type Retriever interface {
	SearchText(ctx context.Context, query string) (string, error)
}

// Options tune the two-pass scan. A phrase pass runs first; the per-keyword
// pass only runs when the phrase pass found fewer than KeywordThreshold lines.
type Options struct {
	PhraseLimit      int
	KeywordThreshold int
	// MaxKeywords caps the keywords scanned in the second pass. Zero scans all.
	MaxKeywords      int
	PerKeywordLimit  int
	MaxResults       int
	FuzzyFallback    bool
	FuzzyMaxDistance int
	NoMatches        string
}

var DefaultOptions = Options{
	PhraseLimit:      10,
	KeywordThreshold: 5,
	PerKeywordLimit:  5,
	MaxResults:       20,
	FuzzyMaxDistance: 3,
	NoMatches:        NoMatchesText,
}

var AssessmentOptions = Options{
	PhraseLimit:      15,
	KeywordThreshold: 10,
	MaxKeywords:      3,
	PerKeywordLimit:  5,
	MaxResults:       25,
	FuzzyFallback:    true,
	FuzzyMaxDistance: 3,
	NoMatches:        NoMatchesTextPro,
}

// Base is an in-memory copy of the master CSV. Lines are matched with
// case-insensitive substring scans in file order; there is no ranking.
type Base struct {
	path    string
	entries []models.KnowledgeEntry
	lower   []string
	names   []string
	opts    Options
}

// Load reads the knowledge base at path. A missing file is not an error:
// it logs a warning and every search reports no matches.
func Load(path string, opts Options) (*Base, error) {
	b := &Base{path: path, opts: opts}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("[WARN] Knowledge base %s not found, searches will return no matches", path)
			return b, nil
		}
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer f.Close()

	entries, err := ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base %s: %w", path, err)
	}

	b.setEntries(entries)
	if len(entries) == 0 {
		log.Printf("[WARN] Knowledge base %s is empty", path)
	} else {
		log.Printf("[INFO] Loaded %d knowledge base entries from %s", len(entries), path)
	}
	return b, nil
}

// NewBase builds a base directly from entries.
func NewBase(entries []models.KnowledgeEntry, opts Options) *Base {
	b := &Base{opts: opts}
	b.setEntries(entries)
	return b
}

func (b *Base) setEntries(entries []models.KnowledgeEntry) {
	b.entries = entries
	b.lower = make([]string, len(entries))
	b.names = make([]string, len(entries))
	for i, e := range entries {
		b.lower[i] = strings.ToLower(e.Line)
		b.names[i] = e.CareerName
	}
}

// WithOptions returns a view of the same data searched with different limits.
func (b *Base) WithOptions(opts Options) *Base {
	c := *b
	c.opts = opts
	return &c
}

func (b *Base) Len() int {
	return len(b.entries)
}

func (b *Base) Entries() []models.KnowledgeEntry {
	return b.entries
}

// Keywords splits the query on whitespace and keeps tokens longer than three
// characters. When nothing survives the whole query is the only keyword.
func Keywords(query string) []string {
	keywords := lo.Filter(strings.Fields(query), func(token string, _ int) bool {
		return utf8.RuneCountInString(token) >= minKeywordLength
	})
	if len(keywords) == 0 {
		return []string{query}
	}
	return keywords
}

// Search returns matching lines, deduplicated in first-seen order and capped
// at MaxResults.
func (b *Base) Search(query string) []string {
	query = strings.TrimSpace(query)
	if query == "" || len(b.entries) == 0 {
		return nil
	}

	keywords := Keywords(query)
	matches := b.scan(query, b.opts.PhraseLimit)

	if len(matches) < b.opts.KeywordThreshold {
		scanKeywords := keywords
		if b.opts.MaxKeywords > 0 && len(scanKeywords) > b.opts.MaxKeywords {
			scanKeywords = scanKeywords[:b.opts.MaxKeywords]
		}
		for _, kw := range scanKeywords {
			matches = append(matches, b.scan(kw, b.opts.PerKeywordLimit)...)
		}
	}

	if len(matches) == 0 && b.opts.FuzzyFallback {
		matches = b.fuzzyScan(keywords)
	}

	matches = lo.Uniq(matches)
	if b.opts.MaxResults > 0 && len(matches) > b.opts.MaxResults {
		matches = matches[:b.opts.MaxResults]
	}

	return matches
}

// SearchText joins the matches into one block for a prompt.
func (b *Base) SearchText(_ context.Context, query string) (string, error) {
	matches := b.Search(query)
	if len(matches) == 0 {
		return b.noMatches(), nil
	}
	return strings.Join(matches, "\n"), nil
}

func (b *Base) noMatches() string {
	if b.opts.NoMatches == "" {
		return NoMatchesText
	}
	return b.opts.NoMatches
}

func (b *Base) scan(term string, limit int) []string {
	needle := strings.ToLower(term)
	var out []string
	for i, line := range b.lower {
		if limit > 0 && len(out) >= limit {
			break
		}
		if strings.Contains(line, needle) {
			out = append(out, b.entries[i].Line)
		}
	}
	return out
}

// fuzzyScan matches keywords against career names, tolerating typos such as
// "enginer" or "docter".
func (b *Base) fuzzyScan(keywords []string) []string {
	var out []string
	for _, kw := range keywords {
		ranks := fuzzy.RankFindFold(kw, b.names)
		sort.Sort(ranks)
		for _, rank := range ranks {
			if rank.Distance > b.opts.FuzzyMaxDistance {
				continue
			}
			out = append(out, b.entries[rank.OriginalIndex].Line)
			if b.opts.PerKeywordLimit > 0 && len(out) >= b.opts.PerKeywordLimit {
				break
			}
		}
	}
	return out
}

// ReadEntries parses master CSV rows. The header row is skipped and each
// entry keeps a single-line rendering of its record for prompt context.
func ReadEntries(r io.Reader) ([]models.KnowledgeEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = i
	}
	field := func(record []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var entries []models.KnowledgeEntry
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		entries = append(entries, models.KnowledgeEntry{
			CareerName:    field(record, "Career_Name"),
			TextContent:   field(record, "text_content"),
			SourceType:    field(record, "Source_Type"),
			CareerOptions: field(record, "Career_Options"),
			GovtPriority:  strings.EqualFold(field(record, "JK_GOVT_PRIORITY"), "TRUE"),
			Line:          formatLine(record),
		})
	}

	return entries, nil
}

func formatLine(record []string) string {
	flat := lo.Map(record, func(f string, _ int) string {
		return strings.Join(strings.Fields(f), " ")
	})

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(flat)
	w.Flush()
	return strings.TrimRight(buf.String(), "\n")
}
