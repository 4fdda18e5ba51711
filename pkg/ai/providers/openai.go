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

const (
	openAIDefaultAPIURL  = "https://api.openai.com/v1"
	openAIDefaultModel   = "gpt-4o"
	openAIDefaultTimeout = 60
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderOpenAI,
		Name:        "OpenAI",
		Description: "Direct OpenAI API access with image_url content parts",
		RequiresKey: true,
	}, NewOpenAIProvider)
}

// OpenAIProvider implements the Provider interface using the OpenAI API directly.
type OpenAIProvider struct {
	client   openai.Client
	defaults chatParamsDefaults
}

// NewOpenAIProvider creates a new OpenAI provider from config.
func NewOpenAIProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	return newOpenAIProviderWithHTTPClient(cfg.Config.Providers.OpenAI, nil)
}

func newOpenAIProviderWithHTTPClient(cfg config.ProviderConfig, httpClient *http.Client) (*OpenAIProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		slog.Debug("openai_provider_missing_key")
		return nil, fmt.Errorf("openai api_key is required")
	}

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = openAIDefaultAPIURL
	}

	model := cfg.Model
	if model == "" {
		model = openAIDefaultModel
	}

	timeout := cfg.APITimeoutSeconds
	if timeout <= 0 {
		timeout = openAIDefaultTimeout
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(timeout) * time.Second}
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(apiURL),
		option.WithHTTPClient(httpClient),
	)

	slog.Debug("openai_provider_ready",
		"api_url", apiURL,
		"model", model,
		"timeout_seconds", timeout,
	)
	return &OpenAIProvider{
		client: client,
		defaults: chatParamsDefaults{
			model:       model,
			temperature: cfg.Temperature,
			maxTokens:   cfg.MaxTokens,
		},
	}, nil
}

// CreateChatCompletion sends a non-streaming chat completion request.
func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	params, err := buildChatParams(req, p.defaults)
	if err != nil {
		return ai.ChatResponse{}, err
	}

	slog.Debug("openai_chat_request",
		"model", string(params.Model),
		"message_count", len(req.Messages),
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
var _ ai.Provider = (*OpenAIProvider)(nil)
