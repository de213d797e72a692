package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env            string        `mapstructure:"ENV"`
	Port           string        `mapstructure:"PORT"`
	DBDriver       string        `mapstructure:"DB_DRIVER"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	SQLitePath     string        `mapstructure:"SQLITE_PATH"`
	AdminKey       string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed    string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`

	AIProvider           string        `mapstructure:"AI_PROVIDER"`
	AITimeout            time.Duration `mapstructure:"AI_TIMEOUT"`
	GeminiAPIKey         string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel          string        `mapstructure:"GEMINI_MODEL"`
	GeminiEmbeddingModel string        `mapstructure:"GEMINI_EMBEDDING_MODEL"`
	OpenAIAPIKey         string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL        string        `mapstructure:"OPENAI_BASE_URL"`
	OpenAIModel          string        `mapstructure:"OPENAI_MODEL"`
	OpenAIEmbeddingModel string        `mapstructure:"OPENAI_EMBEDDING_MODEL"`

	EmbeddingDimension  int     `mapstructure:"EMBEDDING_DIMENSION"`
	SimilarityThreshold float64 `mapstructure:"SIMILARITY_THRESHOLD"`
	EscalationScore     int     `mapstructure:"ESCALATION_SCORE"`
	MaxComplaintLength  int     `mapstructure:"MAX_COMPLAINT_LENGTH"`
	ClassifierMaxChars  int     `mapstructure:"CLASSIFIER_MAX_CHARS"`
	RulesFile           string  `mapstructure:"RULES_FILE"`

	RedisURL         string        `mapstructure:"REDIS_URL"`
	SubmitRatePerMin int           `mapstructure:"SUBMIT_RATE_PER_MIN"`
	UpvoteRatePerMin int           `mapstructure:"UPVOTE_RATE_PER_MIN"`
	StatsCacheTTL    time.Duration `mapstructure:"STATS_CACHE_TTL"`
	MaxUploadSizeMB  int64         `mapstructure:"MAX_UPLOAD_MB"`
}

var defaults = map[string]any{
	"ENV":                    "dev",
	"PORT":                   "8080",
	"DB_DRIVER":              "postgres",
	"DATABASE_URL":           "",
	"SQLITE_PATH":            "complaints.db",
	"ADMIN_KEY":              "",
	"CORS_ALLOWED_ORIGINS":   "*",
	"REQUEST_TIMEOUT":        "30s",
	"LOG_LEVEL":              "info",
	"AI_PROVIDER":            "mock",
	"AI_TIMEOUT":             "20s",
	"GEMINI_API_KEY":         "",
	"GEMINI_MODEL":           "gemini-2.0-flash",
	"GEMINI_EMBEDDING_MODEL": "text-embedding-004",
	"OPENAI_API_KEY":         "",
	"OPENAI_BASE_URL":        "",
	"OPENAI_MODEL":           "gpt-4o-mini",
	"OPENAI_EMBEDDING_MODEL": "text-embedding-3-small",
	"EMBEDDING_DIMENSION":    768,
	"SIMILARITY_THRESHOLD":   0.75,
	"ESCALATION_SCORE":       7,
	"MAX_COMPLAINT_LENGTH":   2000,
	"CLASSIFIER_MAX_CHARS":   2000,
	"RULES_FILE":             "",
	"REDIS_URL":              "",
	"SUBMIT_RATE_PER_MIN":    10,
	"UPVOTE_RATE_PER_MIN":    60,
	"STATS_CACHE_TTL":        "30s",
	"MAX_UPLOAD_MB":          20,
}

func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile reads an env-style file (missing is fine) and lets process
// environment variables override it.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
