package providers

import (
	"encoding/base64"
	"fmt"
	"strings"

	"gemchat/pkg/ai"

	openai "github.com/openai/openai-go/v3"
)

// chatParamsDefaults are the per-provider fallbacks applied by buildChatParams.
type chatParamsDefaults struct {
	model       string
	temperature float64
	maxTokens   int
	// keepZeroTemperature sends temperature 0 instead of omitting it.
	keepZeroTemperature bool
}

func buildChatParams(req ai.ChatRequest, defaults chatParamsDefaults) (openai.ChatCompletionNewParams, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = defaults.model
	}
	if strings.TrimSpace(model) == "" {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("messages are required")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		param, err := toChatMessageParam(msg)
		if err != nil {
			return openai.ChatCompletionNewParams{}, err
		}
		messages = append(messages, param)
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}

	temperature := defaults.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	if temperature > 0 || defaults.keepZeroTemperature {
		params.Temperature = openai.Float(temperature)
	}

	maxTokens := defaults.maxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	return params, nil
}

func toChatMessageParam(msg ai.Message) (openai.ChatCompletionMessageParamUnion, error) {
	role := strings.ToLower(strings.TrimSpace(msg.Role))
	switch role {
	case "system":
		return openai.SystemMessage(msg.Content), nil
	case "user":
		if len(msg.Images) == 0 {
			return openai.UserMessage(msg.Content), nil
		}
		return openai.UserMessage(userContentParts(msg)), nil
	case "assistant":
		return openai.AssistantMessage(msg.Content), nil
	case "developer":
		return openai.DeveloperMessage(msg.Content), nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported role: %s", msg.Role)
	}
}

func userContentParts(msg ai.Message) []openai.ChatCompletionContentPartUnionParam {
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(msg.Images)+1)
	if msg.Content != "" {
		parts = append(parts, openai.TextContentPart(msg.Content))
	}
	for _, img := range msg.Images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: imageDataURL(img),
		}))
	}
	return parts
}

func imageDataURL(img ai.Image) string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
