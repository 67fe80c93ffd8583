// Package config handles application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.aimuz.me/interviewcoder/internal/types"
)

const (
	appName        = "interviewcoder"
	configFileName = "config.json"
)

// Supported providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Defaults applied to empty fields.
const (
	DefaultLanguage      = "python"
	DefaultInterviewType = "coding"
	DefaultOpenAIModel   = "gpt-4o"
	DefaultGeminiModel   = "gemini-2.5-flash"
)

// Config represents the application configuration.
type Config struct {
	Provider      string `json:"provider"`
	OpenAIAPIKey  string `json:"openaiApiKey"`
	GeminiAPIKey  string `json:"geminiApiKey"`
	Language      string `json:"language"`
	Model         string `json:"model"`
	AudioDeviceID string `json:"audioDeviceId"`
	InterviewType string `json:"interviewType"`

	// RemoteAddr enables the companion HTTP view when non-empty, e.g. "127.0.0.1:7300".
	RemoteAddr string `json:"remoteAddr,omitempty"`
}

// envOverrides mirrors Config for environment variables.
type envOverrides struct {
	Provider      string `envconfig:"AI_PROVIDER"`
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	Language      string `envconfig:"CODE_LANGUAGE"`
	Model         string `envconfig:"AI_MODEL"`
	AudioDeviceID string `envconfig:"AUDIO_DEVICE_ID"`
	InterviewType string `envconfig:"INTERVIEW_TYPE"`
	RemoteAddr    string `envconfig:"REMOTE_ADDR"`
}

// Load loads configuration from the default config file, then applies
// environment overrides. Returns default config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}
	return LoadFrom(path)
}

// LoadFrom loads configuration from path, then applies environment overrides.
func LoadFrom(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if env.complete() {
		cfg = env.apply(cfg)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// complete reports whether the environment carries a full override set:
// a provider plus the key that provider needs.
func (e envOverrides) complete() bool {
	switch strings.ToLower(e.Provider) {
	case ProviderOpenAI:
		return e.OpenAIAPIKey != ""
	case ProviderGemini:
		return e.GeminiAPIKey != ""
	default:
		return false
	}
}

func (e envOverrides) apply(base *Config) *Config {
	cfg := *base
	cfg.Provider = strings.ToLower(e.Provider)
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.OpenAIAPIKey, e.OpenAIAPIKey)
	set(&cfg.GeminiAPIKey, e.GeminiAPIKey)
	set(&cfg.Language, e.Language)
	set(&cfg.Model, e.Model)
	set(&cfg.AudioDeviceID, e.AudioDeviceID)
	set(&cfg.InterviewType, e.InterviewType)
	set(&cfg.RemoteAddr, e.RemoteAddr)
	return &cfg
}

// Validate checks that the key matching the selected provider is present.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if strings.TrimSpace(c.OpenAIAPIKey) == "" {
			return fmt.Errorf("%w: openai api key required", types.ErrConfigInvalid)
		}
	case ProviderGemini:
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			return fmt.Errorf("%w: gemini api key required", types.ErrConfigInvalid)
		}
	case "":
		return fmt.Errorf("%w: provider required", types.ErrConfigInvalid)
	default:
		return fmt.Errorf("%w: unknown provider %q", types.ErrConfigInvalid, c.Provider)
	}
	return nil
}

// APIKey returns the key for the selected provider.
func (c *Config) APIKey() string {
	if c.Provider == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

// Masked returns a copy with API keys reduced to a short hint.
func (c *Config) Masked() Config {
	m := *c
	m.OpenAIAPIKey = mask(c.OpenAIAPIKey)
	m.GeminiAPIKey = mask(c.GeminiAPIKey)
	return m
}

func mask(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:3] + "..." + key[len(key)-4:]
}

// Save validates c and persists it to the default path.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return fmt.Errorf("get config path: %w", err)
	}
	return c.SaveTo(path)
}

// SaveTo validates c and replaces the document at path as a whole.
// The write goes to a temp file first so readers never observe a partial file.
func (c *Config) SaveTo(path string) error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if err := c.Validate(); err != nil {
		return err
	}
	c.applyDefaults()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, configFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return fmt.Errorf("chmod config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.InterviewType == "" {
		c.InterviewType = DefaultInterviewType
	}
	if c.Model == "" {
		c.Model = DefaultModel(c.Provider)
	}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	if provider == ProviderGemini {
		return DefaultGeminiModel
	}
	return DefaultOpenAIModel
}

// Path returns the default config file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Dir returns the per-user application directory.
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName), nil
}

func defaultConfig() *Config {
	return &Config{
		Provider:      ProviderOpenAI,
		Language:      DefaultLanguage,
		InterviewType: DefaultInterviewType,
	}
}
