package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when -config is not given.
const DefaultPath = "tagnotes.yaml"

// ErrInvalidConfig marks configuration that cannot drive a run.
var ErrInvalidConfig = errors.New("invalid config")

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Config is read once at startup and never re-read during a run.
type Config struct {
	RepoPath         string          `yaml:"repo_path"`
	OutputDir        string          `yaml:"output_dir"`
	Prefixes         []string        `yaml:"prefixes"`
	LookbackDays     int             `yaml:"lookback_days"`
	MaxFilesPerTag   int             `yaml:"max_files_per_tag"`
	MaxBulletsPerDay int             `yaml:"max_bullets_per_day"`
	Timezone         string          `yaml:"timezone"`
	Synthesis        SynthesisConfig `yaml:"synthesis"`
	Ledger           LedgerConfig    `yaml:"ledger"`
	LogLevel         string          `yaml:"log_level"`
}

// SynthesisConfig controls the optional language-model summaries.
type SynthesisConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	UseKeyring  bool          `yaml:"use_keyring"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`

	// APIKey is never read from the file; it is resolved from the
	// environment or the keyring at startup.
	APIKey string `yaml:"-"`
}

// LedgerConfig enables the SQLite run history when Path is set. The value
// "default" selects a ledger under the user's config directory.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		RepoPath:         ".",
		OutputDir:        "content/releases",
		Prefixes:         []string{"assistant-", "api-", "dashboard-"},
		LookbackDays:     30,
		MaxFilesPerTag:   8,
		MaxBulletsPerDay: 6,
		Timezone:         "UTC",
		Synthesis: SynthesisConfig{
			Provider:    ProviderOpenAI,
			Temperature: 0.2,
			MaxTokens:   300,
			Timeout:     20 * time.Second,
			Concurrency: 1,
		},
		LogLevel: "info",
	}
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

// fillDefaults restores defaults for values a file blanked out. lookback_days
// and temperature accept zero and keep what was decoded.
func (c *Config) fillDefaults() {
	def := Default()
	if c.RepoPath == "" {
		c.RepoPath = def.RepoPath
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	if c.MaxFilesPerTag == 0 {
		c.MaxFilesPerTag = def.MaxFilesPerTag
	}
	if c.MaxBulletsPerDay == 0 {
		c.MaxBulletsPerDay = def.MaxBulletsPerDay
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	s := &c.Synthesis
	if s.Provider == "" {
		s.Provider = def.Synthesis.Provider
	}
	if s.MaxTokens == 0 {
		s.MaxTokens = def.Synthesis.MaxTokens
	}
	if s.Timeout == 0 {
		s.Timeout = def.Synthesis.Timeout
	}
	if s.Concurrency == 0 {
		s.Concurrency = def.Synthesis.Concurrency
	}
}

// ApplyEnv overlays environment overrides and resolves the API key from the
// provider's environment variable. lookup is os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("TAGNOTES_PROVIDER"); ok && strings.TrimSpace(v) != "" {
		c.Synthesis.Provider = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup("TAGNOTES_MODEL"); ok && strings.TrimSpace(v) != "" {
		c.Synthesis.Model = strings.TrimSpace(v)
	}

	for _, name := range c.apiKeyEnvNames() {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			c.Synthesis.APIKey = strings.TrimSpace(v)
			return
		}
	}
}

func (c *Config) apiKeyEnvNames() []string {
	names := []string{}
	if c.Synthesis.APIKeyEnv != "" {
		names = append(names, c.Synthesis.APIKeyEnv)
	}
	names = append(names, "TAGNOTES_API_KEY")
	switch c.Synthesis.Provider {
	case ProviderOpenAI:
		names = append(names, "OPENAI_API_KEY")
	case ProviderAnthropic:
		names = append(names, "ANTHROPIC_API_KEY")
	case ProviderGemini:
		names = append(names, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	}
	return names
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// Validate checks the values a run depends on.
func (c Config) Validate() error {
	var problems []string
	if len(c.Prefixes) == 0 {
		problems = append(problems, "at least one prefix is required")
	}
	for _, p := range c.Prefixes {
		if strings.TrimSpace(p) == "" {
			problems = append(problems, "prefixes cannot be blank")
			break
		}
	}
	if c.LookbackDays < 0 {
		problems = append(problems, "lookback_days cannot be negative")
	}
	if c.MaxFilesPerTag < 1 {
		problems = append(problems, "max_files_per_tag must be at least 1")
	}
	if c.MaxBulletsPerDay < 1 {
		problems = append(problems, "max_bullets_per_day must be at least 1")
	}
	if c.Synthesis.Concurrency < 1 {
		problems = append(problems, "synthesis.concurrency must be at least 1")
	}
	if c.Synthesis.Timeout < 0 {
		problems = append(problems, "synthesis.timeout cannot be negative")
	}
	switch c.Synthesis.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		problems = append(problems, fmt.Sprintf("unsupported synthesis.provider %q", c.Synthesis.Provider))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("unknown timezone %q", c.Timezone))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
