package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gemchat/pkg/chat"
	"gemchat/pkg/logging"
)

// ErrEmptyResponse is returned when the model produced no visible text.
var ErrEmptyResponse = errors.New("empty response from model")

// Gateway adapts a Provider to the chat.Gateway contract.
type Gateway struct {
	provider     Provider
	systemPrompt string
}

// NewGateway creates a gateway sending every turn through provider.
func NewGateway(provider Provider, systemPrompt string) *Gateway {
	return &Gateway{
		provider:     provider,
		systemPrompt: strings.TrimSpace(systemPrompt),
	}
}

// Send converts the prior conversation plus the new input into a chat
// request and returns the model's text.
func (g *Gateway) Send(ctx context.Context, history []chat.Message, text string, att *chat.Attachment) (string, error) {
	messages := BuildMessages(g.systemPrompt, history, text, att)

	logger := slog.Default()
	if logger.Enabled(ctx, logging.LevelTrace) {
		logger.Log(ctx, logging.LevelTrace, "gateway_prompt",
			"message_count", len(messages),
			"messages_full", buildMessageDump(messages),
		)
	}

	resp, err := g.provider.CreateChatCompletion(ctx, ChatRequest{Messages: messages})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", ErrEmptyResponse
	}

	slog.Debug("gateway_response",
		"model", resp.Model,
		"response_length", len(resp.Content),
	)
	return resp.Content, nil
}

// BuildMessages maps chat history and the new input onto provider messages.
// Image parts are forwarded only when they carry inline data URLs.
func BuildMessages(systemPrompt string, history []chat.Message, text string, att *chat.Attachment) []Message {
	msgs := make([]Message, 0, len(history)+2)
	if systemPrompt != "" {
		msgs = append(msgs, Message{Role: "system", Content: systemPrompt})
	}

	for _, m := range history {
		msg := Message{
			Role:    roleFor(m.Sender),
			Content: m.Text(),
		}
		for _, url := range m.Images() {
			mimeType, data, ok := chat.ParseDataURL(url)
			if !ok {
				continue
			}
			msg.Images = append(msg.Images, Image{MIMEType: mimeType, Data: data})
		}
		if msg.Content == "" && len(msg.Images) == 0 {
			continue
		}
		msgs = append(msgs, msg)
	}

	next := Message{Role: "user", Content: text}
	if att != nil {
		next.Images = []Image{{MIMEType: att.MIMEType, Data: att.Data}}
	}
	return append(msgs, next)
}

func roleFor(sender chat.Sender) string {
	if sender == chat.SenderModel {
		return "assistant"
	}
	return "user"
}

func buildMessageDump(messages []Message) string {
	var sb strings.Builder
	for i, msg := range messages {
		if i > 0 {
			sb.WriteString("\n---\n")
		}
		fmt.Fprintf(&sb, "[%s]", msg.Role)
		for _, img := range msg.Images {
			fmt.Fprintf(&sb, " <%s %d bytes>", img.MIMEType, len(img.Data))
		}
		sb.WriteString("\n")
		sb.WriteString(msg.Content)
	}
	return sb.String()
}

var _ chat.Gateway = (*Gateway)(nil)
