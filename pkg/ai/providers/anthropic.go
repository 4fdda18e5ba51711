package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gemchat/pkg/ai"
	"gemchat/pkg/config"
)

const (
	anthropicDefaultAPIURL    = "https://api.anthropic.com/v1"
	anthropicDefaultModel     = "claude-3-5-sonnet-20241022"
	anthropicDefaultTimeout   = 60
	anthropicDefaultMaxTokens = 4096
	anthropicAPIVersion       = "2023-06-01"
)

func init() {
	ai.RegisterProvider(ai.ProviderInfo{
		Type:        ai.ProviderAnthropic,
		Name:        "Anthropic",
		Description: "Direct Anthropic Claude API access with base64 image blocks",
		RequiresKey: true,
	}, NewAnthropicProvider)
}

// AnthropicProvider implements the Provider interface using the Anthropic API.
type AnthropicProvider struct {
	apiKey             string
	apiURL             string
	httpClient         *http.Client
	defaultModel       string
	defaultTemperature float64
	defaultMaxTokens   int
}

// NewAnthropicProvider creates a new Anthropic provider from config.
func NewAnthropicProvider(cfg ai.ProviderConfig) (ai.Provider, error) {
	return newAnthropicProviderWithHTTPClient(cfg.Config.Providers.Anthropic, nil)
}

func newAnthropicProviderWithHTTPClient(cfg config.ProviderConfig, httpClient *http.Client) (*AnthropicProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		slog.Debug("anthropic_provider_missing_key")
		return nil, fmt.Errorf("anthropic api_key is required")
	}

	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = anthropicDefaultAPIURL
	}

	model := cfg.Model
	if model == "" {
		model = anthropicDefaultModel
	}

	timeout := cfg.APITimeoutSeconds
	if timeout <= 0 {
		timeout = anthropicDefaultTimeout
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(timeout) * time.Second}
	}

	return &AnthropicProvider{
		apiKey:             cfg.APIKey,
		apiURL:             apiURL,
		httpClient:         httpClient,
		defaultModel:       model,
		defaultTemperature: cfg.Temperature,
		defaultMaxTokens:   cfg.MaxTokens,
	}, nil
}

// anthropicRequest is the request body for Anthropic's messages API.
type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	System      string             `json:"system,omitempty"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicContentBlock struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *anthropicImageSource `json:"source,omitempty"`
}

type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// anthropicResponse is the response from Anthropic's messages API.
type anthropicResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// CreateChatCompletion sends a non-streaming chat completion request.
func (p *AnthropicProvider) CreateChatCompletion(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	anthropicReq, err := p.buildRequest(req)
	if err != nil {
		return ai.ChatResponse{}, err
	}

	body, err := json.Marshal(anthropicReq)
	if err != nil {
		return ai.ChatResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return ai.ChatResponse{}, fmt.Errorf("failed to create request: %w", err)
	}

	p.setHeaders(httpReq)

	slog.Debug("anthropic_chat_request",
		"model", anthropicReq.Model,
		"message_count", len(anthropicReq.Messages),
	)
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return ai.ChatResponse{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ai.ChatResponse{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return ai.ChatResponse{}, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var anthropicResp anthropicResponse
	if err := json.Unmarshal(respBody, &anthropicResp); err != nil {
		return ai.ChatResponse{}, fmt.Errorf("failed to parse response: %w", err)
	}

	var content strings.Builder
	for _, block := range anthropicResp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	return ai.ChatResponse{
		Content: content.String(),
		Model:   anthropicResp.Model,
	}, nil
}

func (p *AnthropicProvider) buildRequest(req ai.ChatRequest) (*anthropicRequest, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.defaultModel
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages are required")
	}

	systemParts := make([]string, 0, 1)
	messages := make([]anthropicMessage, 0, len(req.Messages))

	for _, msg := range req.Messages {
		role := strings.ToLower(strings.TrimSpace(msg.Role))
		if role == "system" || role == "developer" {
			if content := strings.TrimSpace(msg.Content); content != "" {
				systemParts = append(systemParts, content)
			}
			continue
		}

		anthropicRole := role
		if anthropicRole != "user" && anthropicRole != "assistant" {
			anthropicRole = "user"
		}

		messages = append(messages, anthropicMessage{
			Role:    anthropicRole,
			Content: anthropicBlocks(msg),
		})
	}

	if len(messages) == 0 {
		return nil, fmt.Errorf("at least one user or assistant message is required")
	}

	temperature := p.defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	maxTokens := p.defaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	return &anthropicRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		System:      strings.Join(systemParts, "\n\n"),
	}, nil
}

// anthropicBlocks puts images before text, as the messages API docs suggest.
func anthropicBlocks(msg ai.Message) []anthropicContentBlock {
	blocks := make([]anthropicContentBlock, 0, len(msg.Images)+1)
	for _, img := range msg.Images {
		blocks = append(blocks, anthropicContentBlock{
			Type: "image",
			Source: &anthropicImageSource{
				Type:      "base64",
				MediaType: img.MIMEType,
				Data:      base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}
	if msg.Content != "" || len(blocks) == 0 {
		blocks = append(blocks, anthropicContentBlock{Type: "text", Text: msg.Content})
	}
	return blocks
}

func (p *AnthropicProvider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
}

// Ensure interface compliance
var _ ai.Provider = (*AnthropicProvider)(nil)
