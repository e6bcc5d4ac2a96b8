// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/debreselam/schoolbot/internal/llm"
	"github.com/debreselam/schoolbot/internal/quiz"
	"github.com/debreselam/schoolbot/internal/session"
	"github.com/debreselam/schoolbot/internal/store"
)

// Config is the resolved runtime configuration.
type Config struct {
	TelegramToken string

	// DB is the sqlite DSN of the activity log; in-memory by default.
	DB string
	// SeedPath points at a JSON seed file; empty uses the embedded one.
	SeedPath string

	QuizSize      int
	MinCredential int
	BcryptCost    int
	// IdleTimeout expires idle sessions and quizzes. Zero disables expiry.
	IdleTimeout time.Duration

	HTTPAddr    string
	CORSOrigins []string

	LogLevel  string
	LogFormat string

	// GenerateQuestions is how many LLM questions to add per subject at
	// startup. Zero disables generation.
	GenerateQuestions int
	LLM               llm.Config
}

// Load reads the given .env files (".env" when none are named), then the
// environment. Missing .env files are ignored; variables already set in
// the environment win.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables alone.
func FromEnv() (Config, error) {
	var p parser
	cfg := Config{
		TelegramToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		DB:                envOr("SCHOOLBOT_DB", store.MemoryDSN),
		SeedPath:          os.Getenv("SCHOOLBOT_SEED"),
		QuizSize:          p.int("SCHOOLBOT_QUIZ_SIZE", quiz.DefaultSampleSize),
		MinCredential:     p.int("SCHOOLBOT_MIN_CREDENTIAL", session.DefaultMinCredentialLength),
		BcryptCost:        p.int("SCHOOLBOT_BCRYPT_COST", bcrypt.DefaultCost),
		IdleTimeout:       p.duration("SCHOOLBOT_IDLE_TIMEOUT", 0),
		HTTPAddr:          envOr("SCHOOLBOT_HTTP_ADDR", ":8080"),
		CORSOrigins:       csvOr("SCHOOLBOT_CORS_ORIGINS", "http://localhost:3000"),
		LogLevel:          envOr("SCHOOLBOT_LOG_LEVEL", "info"),
		LogFormat:         envOr("SCHOOLBOT_LOG_FORMAT", "text"),
		GenerateQuestions: p.int("SCHOOLBOT_GENERATE_QUESTIONS", 0),
		LLM:               llmFromEnv(),
	}
	if p.err != nil {
		return Config{}, p.err
	}
	return cfg, nil
}

// Validate rejects settings the rest of the program cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.QuizSize < 1 {
		errs = append(errs, fmt.Errorf("quiz size must be positive, got %d", c.QuizSize))
	}
	if c.MinCredential < 1 {
		errs = append(errs, fmt.Errorf("minimum credential length must be positive, got %d", c.MinCredential))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be within %d..%d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost))
	}
	if c.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("idle timeout must not be negative, got %s", c.IdleTimeout))
	}
	if c.GenerateQuestions < 0 {
		errs = append(errs, fmt.Errorf("generated question count must not be negative, got %d", c.GenerateQuestions))
	}
	if c.GenerateQuestions > 0 {
		if err := c.LLM.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("question generation: %w", err))
		}
	}
	return errors.Join(errs...)
}

// llmFromEnv reads SCHOOLBOT_* LLM settings. Without an explicit
// provider, the first provider with a key is chosen, checking the
// vendors' own variable names as well.
func llmFromEnv() llm.Config {
	cfg := llm.DefaultConfig()

	creds := []struct {
		provider string
		target   *llm.Credentials
		vendor   string
	}{
		{llm.ProviderGemini, &cfg.Gemini, "GEMINI_API_KEY"},
		{llm.ProviderOpenAI, &cfg.OpenAI, "OPENAI_API_KEY"},
		{llm.ProviderAnthropic, &cfg.Anthropic, "ANTHROPIC_API_KEY"},
		{llm.ProviderOpenRouter, &cfg.OpenRouter, "OPENROUTER_API_KEY"},
	}
	discovered := ""
	for _, c := range creds {
		prefix := "SCHOOLBOT_" + strings.ToUpper(c.provider) + "_"
		c.target.APIKey = envOr(prefix+"API_KEY", os.Getenv(c.vendor))
		c.target.Model = envOr(prefix+"MODEL", c.target.Model)
		c.target.BaseURL = envOr(prefix+"BASE_URL", c.target.BaseURL)
		if discovered == "" && c.target.APIKey != "" {
			discovered = c.provider
		}
	}

	switch p := os.Getenv("SCHOOLBOT_LLM_PROVIDER"); {
	case p != "":
		cfg.Provider = p
	case discovered != "":
		cfg.Provider = discovered
	}
	return cfg
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func csvOr(k, def string) []string {
	parts := strings.Split(envOr(k, def), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parser keeps the first malformed value it sees.
type parser struct {
	err error
}

func (p *parser) int(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %q is not an integer", k, v)
	}
	return n
}

func (p *parser) duration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %q is not a duration", k, v)
	}
	return d
}
