package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	ServiceName    = "Kashmir Disha Career Counseling API"
	ServiceVersion = "1.0.0"
	apiKeyPrefix   = "navriti_"
)

type Config struct {
	Port string `validate:"required,numeric"`

	// BackendAPIKey is compared verbatim against the X-API-Key header.
	BackendAPIKey      string `validate:"required"`
	APIKeyGenerated    bool
	DatasetPath        string `validate:"required"`
	ReportDir          string `validate:"required"`
	QuestionnairePath  string
	ReportCollegeQuery string `validate:"required"`

	LLMProvider      string `validate:"oneof=openrouter openai lmstudio anthropic gemini"`
	LLMModel         string `validate:"required"`
	LLMBaseURL       string `validate:"omitempty,url"`
	LLMRateLimitWait time.Duration
	OpenRouterAPIKey string
	OpenAIAPIKey     string
	AnthropicAPIKey  string
	GeminiAPIKey     string

	ProfileStore      string `validate:"oneof=firestore postgres memory"`
	ProfileCollection string `validate:"required"`
	FirebaseProjectID string
	FirebaseKeyPath   string
	FirebaseConfig    string
	DatabaseURL       string
	StudentsFile      string

	KBRetriever       string `validate:"oneof=keyword pinecone"`
	KBFuzzyFallback   bool
	PineconeAPIKey    string
	PineconeIndexName string
}

// Load reads an optional .env file and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] Failed to load .env file: %v", err)
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		BackendAPIKey:      os.Getenv("BACKEND_API_KEY"),
		DatasetPath:        getEnv("DATASET_PATH", "Career_Knowledge_Master_JK_Augmented.csv"),
		ReportDir:          getEnv("REPORT_DIR", "."),
		QuestionnairePath:  os.Getenv("QUESTIONNAIRE_PATH"),
		ReportCollegeQuery: getEnv("REPORT_COLLEGE_QUERY", "B.Sc IT BCA Computer"),

		LLMProvider:      strings.ToLower(getEnv("LLM_PROVIDER", "openrouter")),
		LLMModel:         os.Getenv("LLM_MODEL"),
		LLMBaseURL:       os.Getenv("LLM_BASE_URL"),
		LLMRateLimitWait: getDuration("LLM_RATE_LIMIT_WAIT", 20*time.Second),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),

		ProfileStore:      strings.ToLower(getEnv("PROFILE_STORE", "firestore")),
		ProfileCollection: getEnv("PROFILE_COLLECTION", "users"),
		FirebaseProjectID: os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseKeyPath:   getEnv("FIREBASE_KEY_PATH", "firebase-key.json"),
		FirebaseConfig:    os.Getenv("FIREBASE_CONFIG"),
		DatabaseURL:       os.Getenv("DB_URL"),
		StudentsFile:      getEnv("STUDENTS_FILE", "students.yaml"),

		KBRetriever:       strings.ToLower(getEnv("KB_RETRIEVER", "keyword")),
		KBFuzzyFallback:   getBool("KB_FUZZY_FALLBACK", false),
		PineconeAPIKey:    os.Getenv("PINECONE_API_KEY"),
		PineconeIndexName: getEnv("PINECONE_INDEX_NAME", "disha-career-kb"),
	}

	cfg.applyProviderDefaults()

	if cfg.BackendAPIKey == "" {
		cfg.BackendAPIKey = GenerateAPIKey()
		cfg.APIKeyGenerated = true
	}

	return cfg
}

func (c *Config) applyProviderDefaults() {
	switch c.LLMProvider {
	case "openrouter":
		c.LLMBaseURL = orDefault(c.LLMBaseURL, "https://openrouter.ai/api/v1")
		c.LLMModel = orDefault(c.LLMModel, "openai/gpt-3.5-turbo")
	case "lmstudio":
		c.LLMBaseURL = orDefault(c.LLMBaseURL, "http://localhost:1234/v1")
		c.LLMModel = orDefault(c.LLMModel, "local-model")
	case "openai":
		c.LLMModel = orDefault(c.LLMModel, "gpt-4o-mini")
	case "anthropic":
		c.LLMModel = orDefault(c.LLMModel, "claude-sonnet-4-20250514")
	case "gemini":
		c.LLMModel = orDefault(c.LLMModel, "gemini-2.0-flash")
	}
}

// Validate checks struct tags plus the credentials each backend needs.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.LLMAPIKey() == "" && c.LLMProvider != "lmstudio" {
		return fmt.Errorf("an API key is required for LLM provider %q", c.LLMProvider)
	}

	switch c.ProfileStore {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DB_URL is required when PROFILE_STORE=postgres")
		}
	case "firestore":
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required when PROFILE_STORE=firestore")
		}
	}

	if c.KBRetriever == "pinecone" && (c.PineconeAPIKey == "" || c.OpenAIAPIKey == "") {
		return fmt.Errorf("PINECONE_API_KEY and OPENAI_API_KEY are required when KB_RETRIEVER=pinecone")
	}

	return nil
}

// LLMAPIKey returns the key matching the selected provider.
func (c *Config) LLMAPIKey() string {
	switch c.LLMProvider {
	case "openrouter":
		return c.OpenRouterAPIKey
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	case "gemini":
		return c.GeminiAPIKey
	case "lmstudio":
		return orDefault(c.OpenAIAPIKey, "lm-studio")
	}
	return ""
}

// GenerateAPIKey returns a random URL-safe key with the navriti_ prefix.
func GenerateAPIKey() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("[ERROR] Failed to generate API key: %v", err)
	}
	return apiKeyPrefix + base64.RawURLEncoding.EncodeToString(buf)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[WARN] Invalid duration %q for %s, using %s", v, key, fallback)
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[WARN] Invalid boolean %q for %s, using %v", v, key, fallback)
		return fallback
	}
	return b
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
