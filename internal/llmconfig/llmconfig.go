// Package llmconfig resolves the runtime LLM settings (provider, API key,
// model selection) from a human-readable TOML side-file with an
// environment fallback for the key.
package llmconfig

import (
	"fmt"
	"log"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Provider           string `toml:"provider" json:"provider"`
	APIKey             string `toml:"api_key" json:"api_key"`
	TranscriptionModel string `toml:"transcription_model" json:"transcription_model"`
	ChatModel          string `toml:"chat_model" json:"chat_model"`
}

// Update carries a partial settings change; nil fields are left untouched.
type Update struct {
	Provider           *string
	APIKey             *string
	TranscriptionModel *string
	ChatModel          *string
}

func defaults() Config {
	return Config{
		Provider:           "openai",
		APIKey:             "",
		TranscriptionModel: "whisper-1",
		ChatModel:          "gpt-4o-mini",
	}
}

type Service struct {
	path   string
	envKey string
}

// NewService creates a resolver backed by the side-file at path.
// envKey names the environment variable used as the API key fallback.
func NewService(path, envKey string) *Service {
	if envKey == "" {
		envKey = "OPENAI_API_KEY"
	}
	return &Service{path: path, envKey: envKey}
}

// Get resolves the current settings. Resolution order: compiled defaults,
// then the stored side-file when present and parseable, then the
// environment key only when the key is still empty. No caching: the
// side-file is re-read on every call, so concurrent writers are
// last-write-wins on an administrative path.
func (s *Service) Get() Config {
	cfg := defaults()

	if b, err := os.ReadFile(s.path); err == nil {
		var stored Config
		if perr := toml.Unmarshal(b, &stored); perr != nil {
			log.Printf("[llmconfig] ignoring unparsable config file path=%s err=%v", s.path, perr)
		} else {
			if stored.Provider != "" {
				cfg.Provider = stored.Provider
			}
			if stored.APIKey != "" {
				cfg.APIKey = stored.APIKey
			}
			if stored.TranscriptionModel != "" {
				cfg.TranscriptionModel = stored.TranscriptionModel
			}
			if stored.ChatModel != "" {
				cfg.ChatModel = stored.ChatModel
			}
		}
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(s.envKey)
	}

	return cfg
}

// Set applies only the fields present in u, persists the merged result and
// returns it. A write failure is fatal to the update: nothing is silently
// dropped.
func (s *Service) Set(u Update) (Config, error) {
	cfg := s.Get()

	if u.Provider != nil {
		cfg.Provider = *u.Provider
	}
	if u.APIKey != nil {
		cfg.APIKey = *u.APIKey
	}
	if u.TranscriptionModel != nil {
		cfg.TranscriptionModel = *u.TranscriptionModel
	}
	if u.ChatModel != nil {
		cfg.ChatModel = *u.ChatModel
	}

	b, err := toml.Marshal(cfg)
	if err != nil {
		return Config{}, fmt.Errorf("marshal llm config: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		return Config{}, fmt.Errorf("write llm config: %w", err)
	}

	log.Printf("[llmconfig] settings saved path=%s provider=%s", s.path, cfg.Provider)
	return cfg, nil
}

// MaskKey renders an API key for display. Short keys collapse to a fixed
// placeholder; longer keys keep the first 7 and last 4 characters.
func MaskKey(key string) string {
	if key == "" || len(key) < 8 {
		return "••••••••"
	}
	return key[:7] + "..." + key[len(key)-4:]
}
