package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/neilberkman/researchtrail/internal/core/llm"
)

const (
	DefaultEnrichTimeout   = 30 * time.Second
	DefaultMaxContentChars = 2000
)

type Config struct {
	Dir                 string // ~/.config/researchtrail
	DBPath              string
	ExportDir           string
	TitlePromptTemplate string
	MaxContentChars     int
	EnrichTimeout       time.Duration
	Location            *time.Location
	LLM                 llm.Config
}

type tomlConfig struct {
	DBPath          string `toml:"db_path"`
	ExportDir       string `toml:"export_dir"`
	MaxContentChars int    `toml:"max_content_chars"`
	EnrichTimeout   string `toml:"enrich_timeout"`
	Timezone        string `toml:"timezone"`
	LLM             struct {
		Provider    string  `toml:"provider"`
		Model       string  `toml:"model"`
		BaseURL     string  `toml:"base_url"`
		APIKey      string  `toml:"api_key"`
		MaxTokens   int     `toml:"max_tokens"`
		Temperature float32 `toml:"temperature"`
	} `toml:"llm"`
}

// providerKeyEnv maps providers to their conventional key variables
var providerKeyEnv = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"deepseek":  "DEEPSEEK_API_KEY",
	"groq":      "GROQ_API_KEY",
}

// Dir returns ~/.config/researchtrail
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "researchtrail"), nil
}

// Load reads config from ~/.config/researchtrail/
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		// No home directory: defaults and environment only
		return LoadFrom("")
	}
	return LoadFrom(dir)
}

// LoadFrom reads config.toml, title_prompt.txt and .env from dir, then
// applies environment overrides. Missing files are not an error.
func LoadFrom(dir string) (*Config, error) {
	cfg := &Config{
		Dir:                 dir,
		ExportDir:           ".",
		TitlePromptTemplate: llm.DefaultTitlePrompt,
		MaxContentChars:     DefaultMaxContentChars,
		EnrichTimeout:       DefaultEnrichTimeout,
		Location:            time.Local,
		LLM: llm.Config{
			Provider:  llm.DefaultProvider,
			MaxTokens: llm.DefaultMaxTokens,
		},
	}
	if dir != "" {
		cfg.DBPath = filepath.Join(dir, "trail.db")
		cfg.ExportDir = filepath.Join(dir, "exports")
	}

	// .env never overrides variables already set; CWD wins over config dir
	_ = godotenv.Load()
	if dir != "" {
		_ = godotenv.Load(filepath.Join(dir, ".env"))
	}

	if dir != "" {
		tomlPath := filepath.Join(dir, "config.toml")
		if _, err := os.Stat(tomlPath); err == nil {
			var tc tomlConfig
			if _, err := toml.DecodeFile(tomlPath, &tc); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", tomlPath, err)
			}
			if err := cfg.apply(tc); err != nil {
				return cfg, fmt.Errorf("%s: %w", tomlPath, err)
			}
		}

		// If custom template exists, use it
		if data, err := os.ReadFile(filepath.Join(dir, "title_prompt.txt")); err == nil {
			if tmpl := strings.TrimSpace(string(data)); tmpl != "" {
				cfg.TitlePromptTemplate = string(data)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) apply(tc tomlConfig) error {
	if tc.DBPath != "" {
		c.DBPath = expandHome(tc.DBPath)
	}
	if tc.ExportDir != "" {
		c.ExportDir = expandHome(tc.ExportDir)
	}
	if tc.MaxContentChars > 0 {
		c.MaxContentChars = tc.MaxContentChars
	}
	if tc.EnrichTimeout != "" {
		d, err := time.ParseDuration(tc.EnrichTimeout)
		if err != nil {
			return fmt.Errorf("enrich_timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("enrich_timeout must be positive, got %s", tc.EnrichTimeout)
		}
		c.EnrichTimeout = d
	}
	if tc.Timezone != "" {
		loc, err := time.LoadLocation(tc.Timezone)
		if err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
		c.Location = loc
	}

	if tc.LLM.Provider != "" {
		c.LLM.Provider = tc.LLM.Provider
	}
	c.LLM.Model = tc.LLM.Model
	c.LLM.BaseURL = tc.LLM.BaseURL
	c.LLM.APIKey = tc.LLM.APIKey
	if tc.LLM.MaxTokens > 0 {
		c.LLM.MaxTokens = tc.LLM.MaxTokens
	}
	c.LLM.Temperature = tc.LLM.Temperature
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("RESEARCHTRAIL_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("RESEARCHTRAIL_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("RESEARCHTRAIL_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("RESEARCHTRAIL_EXPORT_DIR"); v != "" {
		c.ExportDir = expandHome(v)
	}

	switch {
	case os.Getenv("RESEARCHTRAIL_API_KEY") != "":
		c.LLM.APIKey = os.Getenv("RESEARCHTRAIL_API_KEY")
	case c.LLM.APIKey == "" || llm.IsPlaceholderKey(c.LLM.APIKey):
		name := strings.ToLower(strings.TrimSpace(c.LLM.Provider))
		if env, ok := providerKeyEnv[name]; ok {
			if v := os.Getenv(env); v != "" {
				c.LLM.APIKey = v
			}
		}
	}
}

// LLMConfig returns the provider configuration
func (c *Config) LLMConfig() llm.Config {
	return c.LLM
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
