package ai

import (
	"context"
	"testing"

	"gemchat/pkg/config"
)

type nopProvider struct{ name string }

func (p nopProvider) CreateChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	return ChatResponse{Content: p.name}, nil
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("expected registry, got nil")
	}
	if r.factories == nil {
		t.Fatal("expected factories map, got nil")
	}
	if r.info == nil {
		t.Fatal("expected info map, got nil")
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	info := ProviderInfo{
		Type:        "test-provider",
		Name:        "Test Provider",
		Description: "A test provider",
		RequiresKey: true,
	}

	r.Register(info, func(cfg ProviderConfig) (Provider, error) {
		return nopProvider{}, nil
	})

	if !r.IsRegistered("test-provider") {
		t.Fatal("expected provider to be registered")
	}

	gotInfo, ok := r.GetProviderInfo("test-provider")
	if !ok {
		t.Fatal("expected to find provider info")
	}
	if gotInfo.Name != "Test Provider" {
		t.Fatalf("expected name 'Test Provider', got %q", gotInfo.Name)
	}
}

func TestRegistry_GetProvider_UnknownType(t *testing.T) {
	r := NewRegistry()

	_, err := r.GetProvider(ProviderConfig{Type: "unknown"})
	if err == nil {
		t.Fatal("expected error for unknown provider type")
	}
}

func TestRegistry_ListProvidersSorted(t *testing.T) {
	r := NewRegistry()

	r.Register(ProviderInfo{Type: "b", Name: "B"}, func(cfg ProviderConfig) (Provider, error) { return nil, nil })
	r.Register(ProviderInfo{Type: "a", Name: "A"}, func(cfg ProviderConfig) (Provider, error) { return nil, nil })

	providers := r.ListProviders()
	if len(providers) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(providers))
	}
	if providers[0].Type != "a" || providers[1].Type != "b" {
		t.Fatalf("expected sorted providers, got %v", providers)
	}
}

func TestValidateProviderType(t *testing.T) {
	tests := []struct {
		input    string
		wantType ProviderType
		wantOK   bool
	}{
		{"google", ProviderGoogle, true},
		{"openrouter", ProviderOpenRouter, true},
		{"openai", ProviderOpenAI, true},
		{"anthropic", ProviderAnthropic, true},
		{"copilot", "", false},
		{"", "", false},
		{"GOOGLE", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gotType, gotOK := ValidateProviderType(tt.input)
			if gotType != tt.wantType {
				t.Errorf("ValidateProviderType(%q) type = %q, want %q", tt.input, gotType, tt.wantType)
			}
			if gotOK != tt.wantOK {
				t.Errorf("ValidateProviderType(%q) ok = %v, want %v", tt.input, gotOK, tt.wantOK)
			}
		})
	}
}

func TestGetProviderFromConfig_FallsBackToGoogle(t *testing.T) {
	orig := DefaultRegistry
	defer func() { DefaultRegistry = orig }()

	DefaultRegistry = NewRegistry()
	DefaultRegistry.Register(ProviderInfo{Type: ProviderGoogle}, func(cfg ProviderConfig) (Provider, error) {
		return nopProvider{name: string(cfg.Type)}, nil
	})

	cfg := config.Default()
	cfg.LLMProvider = "unknown"

	p, err := GetProviderFromConfig(cfg)
	if err != nil {
		t.Fatalf("GetProviderFromConfig() error: %v", err)
	}
	resp, _ := p.CreateChatCompletion(context.Background(), ChatRequest{})
	if resp.Content != "google" {
		t.Fatalf("expected google fallback, got %q", resp.Content)
	}
}
