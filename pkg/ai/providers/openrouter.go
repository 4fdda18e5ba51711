package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gemchat/pkg/ai"
	"gemchat/pkg/config"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const openRouterTitle = "gemchat"

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderOpenRouter,
		Name:        "OpenRouter",
		Description: "Gemini and other vision models through the OpenRouter API",
		RequiresKey: true,
	}, NewOpenRouterProvider)
}

// OpenRouterProvider implements the Provider interface using the OpenRouter API.
type OpenRouterProvider struct {
	client   openai.Client
	defaults chatParamsDefaults
}

// NewOpenRouterProvider creates a new OpenRouter provider from config.
func NewOpenRouterProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	return newOpenRouterProviderWithHTTPClient(cfg.Config.Providers.OpenRouter, nil)
}

func newOpenRouterProviderWithHTTPClient(cfg config.ProviderConfig, httpClient *http.Client) (*OpenRouterProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		slog.Debug("openrouter_provider_missing_key")
		return nil, fmt.Errorf("openrouter api_key is required")
	}
	if strings.TrimSpace(cfg.APIURL) == "" {
		return nil, fmt.Errorf("openrouter api_url is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("openrouter model is required")
	}
	if cfg.APITimeoutSeconds <= 0 {
		return nil, fmt.Errorf("openrouter api_timeout_seconds must be positive")
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(cfg.APITimeoutSeconds) * time.Second}
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.APIURL),
		option.WithHeader("X-Title", openRouterTitle),
		option.WithHTTPClient(httpClient),
	)

	slog.Debug("openrouter_provider_ready",
		"api_url", cfg.APIURL,
		"model", cfg.Model,
		"timeout_seconds", cfg.APITimeoutSeconds,
	)
	return &OpenRouterProvider{
		client: client,
		defaults: chatParamsDefaults{
			model:               cfg.Model,
			temperature:         cfg.Temperature,
			maxTokens:           cfg.MaxTokens,
			keepZeroTemperature: true,
		},
	}, nil
}

// CreateChatCompletion sends a non-streaming chat completion request.
func (p *OpenRouterProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	params, err := buildChatParams(req, p.defaults)
	if err != nil {
		return ai.ChatResponse{}, err
	}

	slog.Debug("openrouter_chat_request",
		"model", string(params.Model),
		"message_count", len(req.Messages),
		"has_temperature", req.Temperature != nil,
		"has_max_tokens", req.MaxTokens != nil,
	)
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return ai.ChatResponse{}, err
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return ai.ChatResponse{
		Content: content,
		Model:   resp.Model,
	}, nil
}

// Ensure interface compliance
var _ ai.Provider = (*OpenRouterProvider)(nil)
