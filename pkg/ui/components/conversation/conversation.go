package conversation

import (
	"strings"

	"gemchat/pkg/chat"
	"gemchat/pkg/ui/components/welcome"
	"gemchat/pkg/ui/styles"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
)

const (
	userLabel    = "You"
	modelLabel   = "Gemini"
	loadingText  = "..."
	codeFence    = "```"
	tabExpansion = "    "
)

// Pane renders the conversation inside a scrollable viewport.
type Pane struct {
	viewport viewport.Model
	messages []chat.Message
	loading  bool
	width    int
	height   int
	follow   bool
}

// New creates an empty conversation pane.
func New() *Pane {
	return &Pane{
		viewport: viewport.New(),
		follow:   true,
	}
}

// SetSize updates the pane dimensions and re-renders.
func (p *Pane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.viewport.SetWidth(width)
	p.viewport.SetHeight(height)
	p.refresh()
}

// SetState replaces what is shown. The view sticks to the bottom unless the
// user scrolled up.
func (p *Pane) SetState(messages []chat.Message, loading bool) {
	if len(messages) < len(p.messages) {
		p.follow = true
	}
	p.messages = messages
	p.loading = loading
	p.refresh()
}

// Update handles scroll keys.
func (p *Pane) Update(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "pgup":
		p.viewport.PageUp()
	case "pgdown":
		p.viewport.PageDown()
	case "ctrl+up":
		p.viewport.ScrollUp(1)
	case "ctrl+down":
		p.viewport.ScrollDown(1)
	case "ctrl+home":
		p.viewport.GotoTop()
	case "ctrl+end":
		p.viewport.GotoBottom()
	default:
		return nil
	}
	p.follow = p.viewport.AtBottom()
	return nil
}

// View renders the pane.
func (p *Pane) View() string {
	return p.viewport.View()
}

// Content returns the rendered conversation without viewport clipping.
func (p *Pane) Content() string {
	return p.viewport.GetContent()
}

func (p *Pane) refresh() {
	if p.width <= 0 {
		return
	}
	if len(p.messages) == 0 && !p.loading {
		p.viewport.SetContent(welcome.Greeting(p.width, p.height))
		p.viewport.GotoTop()
		return
	}
	p.viewport.SetContent(Render(p.messages, p.loading, p.width))
	if p.follow {
		p.viewport.GotoBottom()
	}
}

// Render lays out messages as labeled blocks wrapped to width.
func Render(messages []chat.Message, loading bool, width int) string {
	blocks := make([]string, 0, len(messages)+1)
	for _, msg := range messages {
		blocks = append(blocks, renderMessage(msg, width))
	}
	if loading {
		blocks = append(blocks, styles.ModelLabelStyle.Render(modelLabel)+"\n"+styles.TextMutedStyle.Render(loadingText))
	}
	return strings.Join(blocks, "\n\n")
}

func renderMessage(msg chat.Message, width int) string {
	label := styles.ModelLabelStyle.Render(modelLabel)
	if msg.Sender == chat.SenderUser {
		label = styles.UserLabelStyle.Render(userLabel)
	}

	lines := []string{label}
	for _, part := range msg.Parts {
		switch part.Kind {
		case chat.PartImage:
			lines = append(lines, styles.AttachmentStyle.Render(ImagePlaceholder(part.URL)))
		case chat.PartText:
			lines = append(lines, renderMarkdown(part.Text, width)...)
		}
	}
	return strings.Join(lines, "\n")
}

// ImagePlaceholder describes an image part in text form.
func ImagePlaceholder(url string) string {
	if mime, _, ok := chat.ParseDataURL(url); ok {
		return "[image: " + mime + "]"
	}
	return "[image: " + url + "]"
}

// renderMarkdown handles the subset models commonly emit in chat: fenced code
// blocks and **bold** spans. Everything else is wrapped as plain text.
func renderMarkdown(content string, width int) []string {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	normalized = sanitizeContent(normalized)

	var rendered []string
	inCode := false
	for _, line := range strings.Split(normalized, "\n") {
		line = strings.ReplaceAll(line, "\t", tabExpansion)
		if strings.HasPrefix(strings.TrimSpace(line), codeFence) {
			inCode = !inCode
			continue
		}
		if inCode {
			rendered = append(rendered, renderCodeLine(line, width)...)
			continue
		}
		if strings.TrimSpace(line) == "" {
			rendered = append(rendered, "")
			continue
		}
		wrapped := ansi.Wrap(renderBold(line), width, "")
		rendered = append(rendered, strings.Split(wrapped, "\n")...)
	}
	if len(rendered) == 0 {
		return []string{""}
	}
	return rendered
}

func renderBold(line string) string {
	var sb strings.Builder
	bold := false
	for {
		idx := strings.Index(line, "**")
		segment := line
		if idx >= 0 {
			segment = line[:idx]
		}
		if segment != "" {
			if bold {
				sb.WriteString(styles.TextBoldStyle.Render(segment))
			} else {
				sb.WriteString(styles.TextStyle.Render(segment))
			}
		}
		if idx < 0 {
			return sb.String()
		}
		bold = !bold
		line = line[idx+2:]
	}
}

func renderCodeLine(line string, width int) []string {
	if width <= 0 {
		return []string{line}
	}
	hard := strings.Split(ansi.Hardwrap(line, width, true), "\n")
	lines := make([]string, 0, len(hard))
	for _, part := range hard {
		if pad := width - ansi.StringWidth(part); pad > 0 {
			part += strings.Repeat(" ", pad)
		}
		lines = append(lines, styles.CodeStyle.Render(part))
	}
	return lines
}

func sanitizeContent(content string) string {
	if content == "" {
		return content
	}
	var sb strings.Builder
	sb.Grow(len(content))
	for _, r := range content {
		switch r {
		case '\n', '\t':
			sb.WriteRune(r)
			continue
		}
		if r < 0x20 || r == 0x7f {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
