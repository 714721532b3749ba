package assessment

import (
	_ "embed"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	SectionProfile = "profile"
	SectionCareer  = "career"
)

//go:embed questionnaire.yaml
var defaultQuestionnaire []byte

type Question struct {
	Key     string   `yaml:"key" validate:"required"`
	Prompt  string   `yaml:"prompt" validate:"required"`
	Options []string `yaml:"options" validate:"dive,required"`
}

type Section struct {
	Key       string     `yaml:"key" validate:"required"`
	Title     string     `yaml:"title"`
	Questions []Question `yaml:"questions" validate:"required,min=1,dive"`
}

type Questionnaire struct {
	Sections []Section `yaml:"sections" validate:"required,min=1,dive"`
}

// Load reads a questionnaire override from path, or the built-in one when
// path is empty.
func Load(path string) (*Questionnaire, error) {
	if path == "" {
		return Parse(defaultQuestionnaire)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read questionnaire: %w", err)
	}

	q, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("questionnaire %s: %w", path, err)
	}
	log.Printf("[INFO] Loaded questionnaire from %s with %d sections", path, len(q.Sections))
	return q, nil
}

func Default() *Questionnaire {
	q, err := Parse(defaultQuestionnaire)
	if err != nil {
		panic(fmt.Sprintf("built-in questionnaire is invalid: %v", err))
	}
	return q
}

func Parse(data []byte) (*Questionnaire, error) {
	var q Questionnaire
	if err := yaml.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("failed to parse questionnaire: %w", err)
	}
	if err := validator.New().Struct(q); err != nil {
		return nil, fmt.Errorf("invalid questionnaire: %w", err)
	}
	return &q, nil
}

func (q *Questionnaire) Section(key string) (Section, bool) {
	for _, s := range q.Sections {
		if s.Key == key {
			return s, true
		}
	}
	return Section{}, false
}
