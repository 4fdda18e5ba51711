package chat

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
)

const (
	errorPrefix       = "Error: "
	errorReplyPrefix  = "Sorry, something went wrong: "
	unknownErrorText  = "An unknown error occurred."
	maxTitleWidth     = 40
	imageOnlyTitle    = "Image"
	untitledChatTitle = "New chat"
)

// ErrBusy is returned by operations that need the controller idle.
var ErrBusy = errors.New("a request is already in progress")

// Turn is a user turn that has been appended but not yet answered.
type Turn struct {
	// History is the conversation before Message was appended.
	History    []Message
	Text       string
	Attachment *Attachment
	Message    Message

	chatID     string
	generation uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithStore enables saving conversations and loading them in SelectChat.
func WithStore(store Store) Option {
	return func(c *Controller) {
		c.store = store
	}
}

// WithIDGenerator overrides the message ID generator.
func WithIDGenerator(ids *IDGenerator) Option {
	return func(c *Controller) {
		c.ids = ids
	}
}

// Controller owns the conversation, the loading flag and the error slot.
// All mutations go through its methods; readers get copies via Snapshot.
type Controller struct {
	gateway   Gateway
	store     Store
	ids       *IDGenerator
	newChatID func() string

	mu          sync.Mutex
	messages    []Message
	loading     bool
	errMsg      string
	chatID      string
	sidebarOpen bool
	generation  uint64
	listeners   []func(State)

	// outMu orders persistence and notifications by mutation order.
	outMu sync.Mutex
}

// NewController creates a controller with an empty conversation.
func NewController(gateway Gateway, opts ...Option) *Controller {
	c := &Controller{
		gateway:   gateway,
		ids:       NewIDGenerator(),
		newChatID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnChange registers fn to be called with a fresh snapshot after every change.
// fn must not call methods that modify the controller.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	return State{
		Messages:      cloneMessages(c.messages),
		Loading:       c.loading,
		Error:         c.errMsg,
		CurrentChatID: c.chatID,
		SidebarOpen:   c.sidebarOpen,
	}
}

// Loading reports whether a gateway call is outstanding.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Begin performs the synchronous half of a submit: it appends the user
// message and marks the controller as loading. It returns false without
// touching state when a request is outstanding or the input is empty.
func (c *Controller) Begin(text string, att *Attachment) (*Turn, bool) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		slog.Debug("chat_submit_dropped", "reason", "loading")
		return nil, false
	}
	if text == "" && att == nil {
		c.mu.Unlock()
		slog.Debug("chat_submit_dropped", "reason", "empty")
		return nil, false
	}

	parts := make([]Part, 0, 2)
	if text != "" {
		parts = append(parts, TextPart(text))
	}
	if att != nil {
		parts = append(parts, ImagePart(att.DisplayURL()))
	}
	msg := Message{
		ID:     c.ids.New(),
		Sender: SenderUser,
		Parts:  parts,
	}

	if c.store != nil && c.chatID == "" {
		c.chatID = c.newChatID()
	}

	turn := &Turn{
		History:    cloneMessages(c.messages),
		Text:       text,
		Attachment: att,
		Message:    msg,
		chatID:     c.chatID,
		generation: c.generation,
	}

	c.errMsg = ""
	c.loading = true
	c.messages = append(c.messages, msg)

	slog.Info("chat_submit_start",
		"chat_id", turn.chatID,
		"history_messages", len(turn.History),
		"has_attachment", att != nil,
	)
	c.commitLocked(c.chatID, c.messages)
	return turn, true
}

// Complete sends turn through the gateway and appends the reply, or the
// error surrogate if the gateway fails. The loading flag is always cleared.
func (c *Controller) Complete(ctx context.Context, turn *Turn) {
	reply, err := c.gateway.Send(ctx, turn.History, turn.Text, turn.Attachment)

	var desc string
	var msg Message
	if err != nil {
		desc = err.Error()
		if desc == "" {
			desc = unknownErrorText
		}
		slog.Error("chat_submit_error", "chat_id", turn.chatID, "error", desc)
		msg = c.modelMessage(errorReplyPrefix + desc)
	} else {
		slog.Info("chat_submit_done", "chat_id", turn.chatID, "reply_length", len(reply))
		msg = c.modelMessage(reply)
	}

	c.mu.Lock()
	c.loading = false

	// Re-selecting the chat the turn belongs to keeps it current.
	current := turn.generation == c.generation || (turn.chatID != "" && turn.chatID == c.chatID)
	if !current {
		// The conversation was replaced while the call was in flight.
		slog.Debug("chat_submit_stale", "chat_id", turn.chatID)
		stale := append(append(cloneMessages(turn.History), turn.Message), msg)
		c.commitLocked(turn.chatID, stale)
		return
	}

	if err != nil {
		c.errMsg = errorPrefix + desc
	}
	c.messages = append(c.messages, msg)
	c.commitLocked(c.chatID, c.messages)
}

// Submit runs Begin and Complete back to back. It reports whether the submit
// was accepted.
func (c *Controller) Submit(ctx context.Context, text string, att *Attachment) bool {
	turn, ok := c.Begin(text, att)
	if !ok {
		return false
	}
	c.Complete(ctx, turn)
	return true
}

// NewChat replaces the conversation with an empty one.
func (c *Controller) NewChat() {
	c.mu.Lock()
	c.generation++
	c.messages = nil
	c.chatID = ""
	c.errMsg = ""
	c.sidebarOpen = false
	slog.Info("chat_new")
	c.commitLocked("", nil)
}

// SelectChat closes the sidebar and, when a store is configured, loads the
// conversation saved under id.
func (c *Controller) SelectChat(ctx context.Context, id string) error {
	if c.store == nil {
		c.mu.Lock()
		c.sidebarOpen = false
		slog.Debug("chat_select_without_store", "chat_id", id)
		c.commitLocked("", nil)
		return nil
	}

	msgs, err := c.store.Load(ctx, id)

	c.mu.Lock()
	c.sidebarOpen = false
	if err != nil {
		c.errMsg = errorPrefix + err.Error()
		slog.Error("chat_select_error", "chat_id", id, "error", err)
		c.commitLocked("", nil)
		return err
	}

	c.generation++
	c.messages = cloneMessages(msgs)
	c.chatID = id
	c.errMsg = ""
	slog.Info("chat_selected", "chat_id", id, "messages", len(msgs))
	c.commitLocked("", nil)
	return nil
}

// ToggleSidebar flips the sidebar-open flag.
func (c *Controller) ToggleSidebar() {
	c.mu.Lock()
	c.sidebarOpen = !c.sidebarOpen
	c.commitLocked("", nil)
}

// History lists saved conversations, most recent first.
func (c *Controller) History(ctx context.Context) ([]ChatHistoryItem, error) {
	if c.store == nil {
		return nil, nil
	}
	return c.store.List(ctx)
}

func (c *Controller) modelMessage(text string) Message {
	return Message{
		ID:     c.ids.New(),
		Sender: SenderModel,
		Parts:  []Part{TextPart(text)},
	}
}

// commitLocked must be called with c.mu held; it releases it. When chatID is
// non-empty the given messages are saved under it before listeners run.
func (c *Controller) commitLocked(chatID string, msgs []Message) {
	state := c.snapshotLocked()
	listeners := slices.Clone(c.listeners)
	var toSave []Message
	if chatID != "" && c.store != nil {
		toSave = cloneMessages(msgs)
	}

	c.outMu.Lock()
	c.mu.Unlock()
	defer c.outMu.Unlock()

	if toSave != nil {
		if err := c.store.Save(context.Background(), chatID, Title(toSave), toSave); err != nil {
			slog.Warn("chat_save_error", "chat_id", chatID, "error", err)
		}
	}
	for _, fn := range listeners {
		fn(state)
	}
}

// Title derives a history title from the first user message.
func Title(msgs []Message) string {
	for _, m := range msgs {
		if m.Sender != SenderUser {
			continue
		}
		text := strings.Join(strings.Fields(m.Text()), " ")
		if text == "" {
			if len(m.Images()) > 0 {
				return imageOnlyTitle
			}
			continue
		}
		return runewidth.Truncate(text, maxTitleWidth, "…")
	}
	return untitledChatTitle
}
