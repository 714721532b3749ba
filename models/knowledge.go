package models

// Master knowledge-base columns, in file order.
var KnowledgeColumns = []string{"Career_Name", "text_content", "Source_Type", "Career_Options", "JK_GOVT_PRIORITY"}

type KnowledgeEntry struct {
	CareerName    string `json:"career_name"`
	TextContent   string `json:"text_content"`
	SourceType    string `json:"source_type"`
	CareerOptions string `json:"career_options"`
	GovtPriority  bool   `json:"jk_govt_priority"`
	// Line is the raw CSV line the entry was parsed from.
	Line string `json:"line"`
}

// Record renders the entry as a master CSV row.
func (e KnowledgeEntry) Record() []string {
	priority := "FALSE"
	if e.GovtPriority {
		priority = "TRUE"
	}
	return []string{e.CareerName, e.TextContent, e.SourceType, e.CareerOptions, priority}
}

type KnowledgeSearchResponse struct {
	Success bool     `json:"success"`
	Query   string   `json:"query"`
	Matches []string `json:"matches"`
}
