package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GHGCORE_APP_ENV", "")
	t.Setenv("GHGCORE_OPENAI_API_KEY", "")
	t.Setenv("GHGCORE_LOCAL_AI_URL", "")

	cfg := Load()

	if cfg.Env != EnvDevelopment {
		t.Errorf("expected default env development, got %q", cfg.Env)
	}
	if cfg.OpenAI.IsConfigured {
		t.Error("expected OpenAI not configured without an API key")
	}
	if cfg.HasAnyLLMProvider() {
		t.Error("expected no LLM provider configured")
	}
	if cfg.OpenAI.Model != defaultOpenAIModel {
		t.Errorf("expected default model %q, got %q", defaultOpenAIModel, cfg.OpenAI.Model)
	}
}

func TestLoadOpenAIConfigured(t *testing.T) {
	t.Setenv("GHGCORE_OPENAI_API_KEY", "sk-test")
	t.Setenv("GHGCORE_APP_ENV", "production")

	cfg := Load()

	if !cfg.OpenAI.IsConfigured {
		t.Error("expected OpenAI configured")
	}
	if !cfg.HasAnyLLMProvider() {
		t.Error("expected HasAnyLLMProvider true")
	}
	if !cfg.IsProduction() {
		t.Error("expected production env")
	}
}
