package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// LLM settings
	OpenAIAPIKey  string `env:"OPENAI_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Experiment definition (bots, prompts, emoji set, tones, model)
	ExperimentFilePath string `env:"EXPERIMENT_FILE_PATH" envDefault:"experiments/default.yaml"`

	// Storage
	RecorderBackend string `env:"RECORDER_BACKEND" envDefault:"jsonl"` // jsonl | sqlite
	LogFilePath     string `env:"LOG_FILE_PATH" envDefault:"data/chatlog.jsonl"`
	SQLitePath      string `env:"SQLITE_PATH" envDefault:"data/chatlog.db"`

	// Conversations idle past this are torn down by the retention sweep,
	// mirroring the page timeout of the hosting framework.
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"5m"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
