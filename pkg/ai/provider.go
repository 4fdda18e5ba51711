package ai

import "context"

// Image is inline image data attached to a message.
type Image struct {
	MIMEType string
	Data     []byte
}

// Message represents a single chat message for LLM requests.
type Message struct {
	Role    string // "system" | "user" | "assistant"
	Content string
	Images  []Image
}

// ChatRequest defines the input to an LLM chat completion.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature *float64
	MaxTokens   *int
}

// ChatResponse is a normalized response from an LLM.
type ChatResponse struct {
	Content string
	Model   string
}

// Provider defines the LLM interface used by the app.
type Provider interface {
	CreateChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error)
}
