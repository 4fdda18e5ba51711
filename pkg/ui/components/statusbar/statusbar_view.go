package statusbar

import (
	"strings"

	"gemchat/pkg/ui/styles"

	"github.com/charmbracelet/x/ansi"
)

const (
	appLabel     = "[gemchat]"
	busyLabel    = "Thinking..."
	helpHint     = "ctrl+b history"
	defaultTopic = "New chat"
)

// StatusBarView renders the single status line under the input box.
type StatusBarView struct {
	message    string
	model      string
	topic      string
	attachment string
	busy       bool
	width      int
}

// NewStatusBarView creates a new status bar view
func NewStatusBarView() *StatusBarView {
	return &StatusBarView{width: 80}
}

// SetMessage sets a temporary notice. It wins over everything else on the left.
func (s *StatusBarView) SetMessage(msg string) {
	s.message = strings.TrimSpace(msg)
}

// SetModel updates the active provider/model label.
func (s *StatusBarView) SetModel(model string) {
	s.model = strings.TrimSpace(model)
}

// SetTopic sets the title of the current conversation.
func (s *StatusBarView) SetTopic(topic string) {
	s.topic = strings.TrimSpace(topic)
}

// SetAttachment shows the name of the image staged for the next send.
func (s *StatusBarView) SetAttachment(name string) {
	s.attachment = strings.TrimSpace(name)
}

// SetBusy marks a request as outstanding.
func (s *StatusBarView) SetBusy(busy bool) {
	s.busy = busy
}

// SetWidth updates the width for rendering
func (s *StatusBarView) SetWidth(width int) {
	s.width = width
}

func (s *StatusBarView) leftText() string {
	switch {
	case s.message != "":
		return s.message
	case s.busy:
		return busyLabel
	case s.attachment != "":
		return "Attached: " + s.attachment
	case s.topic != "":
		return s.topic
	default:
		return defaultTopic
	}
}

// Render returns the styled status bar string, exactly width cells wide.
func (s *StatusBarView) Render() string {
	modelLabel := s.model
	if modelLabel == "" {
		modelLabel = "unknown"
	}
	right := "[llm]: " + modelLabel + " | " + helpHint

	style := styles.StatusBarStyle
	if s.busy {
		style = styles.StatusBarBusyStyle
	}

	// Padding(0, 1) adds one cell on each side.
	inner := s.width - 2
	if inner < 10 {
		inner = 10
	}

	left := appLabel + " " + s.leftText()
	rightWidth := ansi.StringWidth(right)
	if rightWidth+1 > inner {
		// No room for both halves; keep the left side.
		content := ansi.Truncate(left, inner, "...")
		return style.Width(inner + 2).Render(content)
	}

	maxLeft := inner - rightWidth - 1
	if ansi.StringWidth(left) > maxLeft {
		left = ansi.Truncate(left, maxLeft, "...")
	}
	gap := inner - ansi.StringWidth(left) - rightWidth
	content := left + strings.Repeat(" ", gap) + right

	return style.Width(inner + 2).Render(content)
}
