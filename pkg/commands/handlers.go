package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gemchat/pkg/chat"
)

// ImageHandler handles the /image command
type ImageHandler struct{}

func (h *ImageHandler) Name() string        { return "/image" }
func (h *ImageHandler) Description() string { return "Attach an image to the next message" }

func (h *ImageHandler) Execute(ctx *Context) *Result {
	if ctx.Args == "" {
		return &Result{
			Title: "Image",
			Error: errors.New("usage: /image <path>"),
		}
	}

	path := expandPath(ctx.Args, ctx.CurrentDir)
	att, err := chat.LoadAttachment(path)
	if err != nil {
		return &Result{
			Title: "Image",
			Error: err,
		}
	}

	return &Result{
		Title:      "Image",
		Content:    fmt.Sprintf("Attached %s (%s)", att.Name, att.MIMEType),
		Action:     ResultActionAttach,
		Attachment: att,
	}
}

// DetachHandler handles the /detach command
type DetachHandler struct{}

func (h *DetachHandler) Name() string        { return "/detach" }
func (h *DetachHandler) Description() string { return "Drop the staged image" }

func (h *DetachHandler) Execute(ctx *Context) *Result {
	return &Result{
		Title:  "Image",
		Action: ResultActionClearAttachment,
	}
}

// NewChatHandler handles the /new command
type NewChatHandler struct{}

func (h *NewChatHandler) Name() string        { return "/new" }
func (h *NewChatHandler) Description() string { return "Start a new chat" }

func (h *NewChatHandler) Execute(ctx *Context) *Result {
	return &Result{
		Title:  "New chat",
		Action: ResultActionNewChat,
	}
}

// HistoryHandler handles the /history command
type HistoryHandler struct{}

func (h *HistoryHandler) Name() string        { return "/history" }
func (h *HistoryHandler) Description() string { return "Toggle the chat history sidebar" }

func (h *HistoryHandler) Execute(ctx *Context) *Result {
	return &Result{
		Title:  "History",
		Action: ResultActionToggleHistory,
	}
}

// HelpHandler handles the /help command
type HelpHandler struct {
	dispatcher *Dispatcher
}

func (h *HelpHandler) Name() string        { return "/help" }
func (h *HelpHandler) Description() string { return "Show help" }

func (h *HelpHandler) Execute(ctx *Context) *Result {
	var sb strings.Builder
	sb.WriteString("Commands:")
	if h.dispatcher != nil {
		for _, handler := range h.dispatcher.Handlers() {
			fmt.Fprintf(&sb, " %s (%s);", handler.Name(), handler.Description())
		}
	}
	sb.WriteString(" Keys: enter send, shift+enter newline, ctrl+b history, ctrl+n new chat, ctrl+y copy reply, ctrl+c quit. Start a message with // to send a leading /.")
	return &Result{
		Title:   "Help",
		Content: sb.String(),
	}
}

// expandPath resolves "~" and relative paths against cwd.
func expandPath(path, cwd string) string {
	path = strings.Trim(path, `"'`)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if !filepath.IsAbs(path) && cwd != "" {
		path = filepath.Join(cwd, path)
	}
	return path
}
