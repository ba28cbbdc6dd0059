// Package config provides centralized configuration loading for the
// ingestion core. It reads configuration from environment variables with
// sensible defaults.
//
// Environment variable naming convention:
//   - GHGCORE_* prefix for every application-specific setting.
//
// Usage:
//
//	cfg := config.Load()
package config

import (
	"os"
	"strings"
	"time"
)

// =============================================================================
// Environment Constants
// =============================================================================

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	defaultEnv         = EnvDevelopment
	defaultOpenAIModel = "gpt-4o-mini"
	defaultLLMTimeout  = 5 * time.Second
)

// =============================================================================
// Environment Variable Keys
// =============================================================================

const (
	envAppEnv = "GHGCORE_APP_ENV"

	envOpenAIKey     = "GHGCORE_OPENAI_API_KEY"
	envOpenAIModel   = "GHGCORE_OPENAI_MODEL"
	envOpenAIBaseURL = "GHGCORE_OPENAI_BASE_URL"

	envLocalAIURL   = "GHGCORE_LOCAL_AI_URL"
	envLocalAIModel = "GHGCORE_LOCAL_AI_MODEL"

	envEnableLLMClassifier = "GHGCORE_ENABLE_LLM_CLASSIFIER"
	envLLMTimeout          = "GHGCORE_LLM_TIMEOUT"
)

// =============================================================================
// Configuration Structs
// =============================================================================

// Config holds the ingestion core's runtime configuration.
type Config struct {
	Env string `json:"env"`

	OpenAI  OpenAIConfig  `json:"openai"`
	LocalAI LocalAIConfig `json:"local_ai"`

	// EnableLLMClassifier gates the Column Classifier's optional LLM
	// fallback step (§4.2 step 3). Off by default: the classifier is fully
	// functional from name-pattern and content-inference rules alone.
	EnableLLMClassifier bool          `json:"enable_llm_classifier"`
	LLMTimeout          time.Duration `json:"llm_timeout"`
}

// OpenAIConfig holds OpenAI API settings for the cloud LLM fallback path.
type OpenAIConfig struct {
	APIKey       string `json:"-"`
	Model        string `json:"model"`
	BaseURL      string `json:"base_url,omitempty"`
	IsConfigured bool   `json:"is_configured"`
}

// LocalAIConfig holds settings for a local inference server that speaks the
// Ollama HTTP API (/api/generate), used as the offline LLM fallback path.
type LocalAIConfig struct {
	URL          string `json:"url,omitempty"`
	Model        string `json:"model,omitempty"`
	IsConfigured bool   `json:"is_configured"`
}

// =============================================================================
// Configuration Loading
// =============================================================================

// Load reads configuration from environment variables.
func Load() Config {
	env := strings.TrimSpace(os.Getenv(envAppEnv))
	if env == "" {
		env = defaultEnv
	}

	openAIKey := strings.TrimSpace(os.Getenv(envOpenAIKey))
	openAIModel := strings.TrimSpace(os.Getenv(envOpenAIModel))
	if openAIModel == "" {
		openAIModel = defaultOpenAIModel
	}

	localURL := strings.TrimSpace(os.Getenv(envLocalAIURL))

	return Config{
		Env: normalizeEnv(env),
		OpenAI: OpenAIConfig{
			APIKey:       openAIKey,
			Model:        openAIModel,
			BaseURL:      strings.TrimSpace(os.Getenv(envOpenAIBaseURL)),
			IsConfigured: openAIKey != "",
		},
		LocalAI: LocalAIConfig{
			URL:          localURL,
			Model:        strings.TrimSpace(os.Getenv(envLocalAIModel)),
			IsConfigured: localURL != "",
		},
		EnableLLMClassifier: getBoolEnv(envEnableLLMClassifier, false),
		LLMTimeout:          getDurationEnv(envLLMTimeout, defaultLLMTimeout),
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

// IsProduction returns true if running in production environment.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// HasAnyLLMProvider reports whether either the cloud or local LLM path has
// credentials configured.
func (c Config) HasAnyLLMProvider() bool {
	return c.OpenAI.IsConfigured || c.LocalAI.IsConfigured
}

// =============================================================================
// Environment Variable Helpers
// =============================================================================

func getBoolEnv(key string, defaultVal bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch raw {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultVal
	}
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if val, err := time.ParseDuration(raw); err == nil {
			return val
		}
	}
	return defaultVal
}

func normalizeEnv(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod":
		return EnvProduction
	case "test", "testing":
		return EnvTest
	default:
		return EnvDevelopment
	}
}
