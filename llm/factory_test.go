package llm

import (
	"testing"
)

func TestParseProviderType(t *testing.T) {
	cases := map[string]ProviderType{
		"gemini":    ProviderGemini,
		"google":    ProviderGemini,
		"OpenAI":    ProviderOpenAI,
		"gpt":       ProviderOpenAI,
		"claude":    ProviderAnthropic,
		"anthropic": ProviderAnthropic,
		"deepseek":  ProviderDeepSeek,
	}

	for input, want := range cases {
		got, err := ParseProviderType(input)
		if err != nil {
			t.Fatalf("ParseProviderType(%q) failed: %v", input, err)
		}
		if got != want {
			t.Errorf("ParseProviderType(%q) = %v, want %v", input, got, want)
		}
	}

	if _, err := ParseProviderType("mistral"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestProviderDefaults(t *testing.T) {
	if ProviderGemini.DefaultModel() != ModelGeminiFlash25 {
		t.Errorf("unexpected gemini default: %s", ProviderGemini.DefaultModel())
	}
	if ProviderGemini.EnvVar() != "GEMINI_API_KEY" {
		t.Errorf("unexpected gemini env var: %s", ProviderGemini.EnvVar())
	}
	if ProviderDeepSeek.String() != "deepseek" {
		t.Errorf("unexpected provider string: %s", ProviderDeepSeek)
	}
}

func TestBuilderAppliesDefaults(t *testing.T) {
	provider, err := ProviderOpenAI.APIKey("sk-test")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if provider.Name() != "openai" {
		t.Errorf("expected openai, got %s", provider.Name())
	}
	if provider.Model() != ModelOpenAIGPT4o {
		t.Errorf("expected default model, got %s", provider.Model())
	}
}

func TestBuilderCustomModel(t *testing.T) {
	provider, err := ProviderDeepSeek.Model(ModelDeepSeekReasoner).APIKey("sk-test")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if provider.Model() != ModelDeepSeekReasoner {
		t.Errorf("expected %s, got %s", ModelDeepSeekReasoner, provider.Model())
	}
}

func TestFromEnvMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := ProviderOpenAI.FromEnv(); err == nil {
		t.Error("expected error when API key env var is unset")
	}
}
