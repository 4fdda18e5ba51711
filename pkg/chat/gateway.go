package chat

import "context"

// Gateway sends one user turn to the remote model.
//
// history is the conversation as it stood before the new user message was
// appended; the new input travels only in text and att.
type Gateway interface {
	Send(ctx context.Context, history []Message, text string, att *Attachment) (string, error)
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, history []Message, text string, att *Attachment) (string, error)

// Send calls f.
func (f GatewayFunc) Send(ctx context.Context, history []Message, text string, att *Attachment) (string, error) {
	return f(ctx, history, text, att)
}

// Store persists conversations keyed by chat ID.
type Store interface {
	Load(ctx context.Context, id string) ([]Message, error)
	Save(ctx context.Context, id, title string, messages []Message) error
	List(ctx context.Context) ([]ChatHistoryItem, error)
}
