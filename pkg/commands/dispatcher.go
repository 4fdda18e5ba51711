package commands

import (
	"sort"

	"gemchat/pkg/chat"
)

// ResultAction tells the UI what to do after a command ran.
type ResultAction string

const (
	ResultActionNone            ResultAction = ""
	ResultActionNewChat         ResultAction = "new_chat"
	ResultActionToggleHistory   ResultAction = "toggle_history"
	ResultActionAttach          ResultAction = "attach"
	ResultActionClearAttachment ResultAction = "clear_attachment"
)

// Result represents the result of a command execution
type Result struct {
	Title      string
	Content    string
	Action     ResultAction
	Attachment *chat.Attachment
	Error      error
}

// Handler is the interface for command handlers
type Handler interface {
	Execute(ctx *Context) *Result
	Name() string
	Description() string
}

// Dispatcher routes commands to their handlers
type Dispatcher struct {
	handlers map[string]Handler
}

// NewDispatcher creates a new command dispatcher
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[string]Handler),
	}

	// Register default handlers
	d.Register(&ImageHandler{})
	d.Register(&DetachHandler{})
	d.Register(&NewChatHandler{})
	d.Register(&HistoryHandler{})
	d.Register(&HelpHandler{dispatcher: d})

	return d
}

// Register adds a handler to the dispatcher
func (d *Dispatcher) Register(h Handler) {
	d.handlers[h.Name()] = h
}

// Dispatch executes a command by name
func (d *Dispatcher) Dispatch(cmdName string, ctx *Context) *Result {
	handler, ok := d.handlers[cmdName]
	if !ok {
		return &Result{
			Title:   "Error",
			Content: "Unknown command: " + cmdName,
		}
	}

	return handler.Execute(ctx)
}

// GetHandler returns a handler by name
func (d *Dispatcher) GetHandler(cmdName string) (Handler, bool) {
	h, ok := d.handlers[cmdName]
	return h, ok
}

// Handlers returns the registered handlers sorted by name.
func (d *Dispatcher) Handlers() []Handler {
	list := make([]Handler, 0, len(d.handlers))
	for _, h := range d.handlers {
		list = append(list, h)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}
