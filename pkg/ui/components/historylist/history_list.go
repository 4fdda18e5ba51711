package historylist

import (
	"fmt"
	"strings"
	"time"

	"gemchat/pkg/chat"
	"gemchat/pkg/ui/components/utils"
	"gemchat/pkg/ui/styles"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// SelectMsg is sent when a saved chat is chosen.
type SelectMsg struct {
	ID string
}

// CloseMsg is sent when the list is dismissed with esc.
type CloseMsg struct{}

// Panel is the chat history sidebar: a filterable list of saved conversations.
type Panel struct {
	items    []chat.ChatHistoryItem
	filtered []chat.ChatHistoryItem
	filter   string
	selected int
	scroll   int
	current  string // id of the open conversation
	loading  bool
	err      string
	width    int
	height   int
	now      func() time.Time
}

// New creates an empty history panel.
func New() *Panel {
	return &Panel{now: time.Now}
}

// SetItems replaces the listed conversations and resets the selection.
func (p *Panel) SetItems(items []chat.ChatHistoryItem) {
	p.items = append([]chat.ChatHistoryItem(nil), items...)
	p.loading = false
	p.err = ""
	p.selected = 0
	p.scroll = 0
	p.updateFiltered()
	p.selectCurrent()
	p.ensureVisible()
}

// SetLoading shows a placeholder until SetItems or SetError is called.
func (p *Panel) SetLoading() {
	p.loading = true
	p.err = ""
}

// SetError shows a listing failure in place of the items.
func (p *Panel) SetError(err error) {
	p.loading = false
	p.err = err.Error()
}

// SetCurrent marks the open conversation.
func (p *Panel) SetCurrent(id string) {
	p.current = id
}

// Reset clears the filter.
func (p *Panel) Reset() {
	p.filter = ""
	p.updateFiltered()
	p.selected = 0
	p.scroll = 0
}

// SetSize updates the panel dimensions
func (p *Panel) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.ensureVisible()
}

// Width returns the rendered width.
func (p *Panel) Width() int {
	return p.width
}

// Selected returns the highlighted item, if any.
func (p *Panel) Selected() (chat.ChatHistoryItem, bool) {
	if p.selected < 0 || p.selected >= len(p.filtered) {
		return chat.ChatHistoryItem{}, false
	}
	return p.filtered[p.selected], true
}

func (p *Panel) updateFiltered() {
	if p.filter == "" {
		p.filtered = p.items
		return
	}

	// Case-insensitive substring matching
	filterLower := strings.ToLower(p.filter)
	p.filtered = make([]chat.ChatHistoryItem, 0)
	for _, item := range p.items {
		if strings.Contains(strings.ToLower(item.Title), filterLower) {
			p.filtered = append(p.filtered, item)
		}
	}
}

func (p *Panel) selectCurrent() {
	for i, item := range p.filtered {
		if item.ID == p.current {
			p.selected = i
			return
		}
	}
}

// Update handles keyboard input for the list
func (p *Panel) Update(msg tea.KeyPressMsg) tea.Cmd {
	listHeight := p.listHeight()

	switch msg.String() {
	case "up":
		if p.selected > 0 {
			p.selected--
		}
	case "down":
		if p.selected < len(p.filtered)-1 {
			p.selected++
		}
	case "pgup":
		p.selected -= listHeight
	case "pgdown":
		p.selected += listHeight
	case "home":
		p.selected = 0
	case "end":
		p.selected = len(p.filtered) - 1
	case "enter":
		if item, ok := p.Selected(); ok {
			id := item.ID
			return func() tea.Msg {
				return SelectMsg{ID: id}
			}
		}
		return nil
	case "esc":
		return func() tea.Msg {
			return CloseMsg{}
		}
	case "backspace":
		if len(p.filter) > 0 {
			runes := []rune(p.filter)
			p.filter = string(runes[:len(runes)-1])
			p.updateFiltered()
			p.selected = 0
		}
	case "ctrl+u":
		if p.filter != "" {
			p.filter = ""
			p.updateFiltered()
			p.selected = 0
		}
	default:
		key := msg.Key()
		if key.Text != "" {
			p.filter += key.Text
			p.updateFiltered()
			p.selected = 0
		}
	}
	p.ensureVisible()
	return nil
}

// View renders the panel at its configured size.
func (p *Panel) View() string {
	contentWidth := p.contentWidth()
	listHeight := p.listHeight()

	lines := make([]string, 0, listHeight+4)
	lines = append(lines, styles.TitleStyle.Render(utils.TruncateToWidth("History", contentWidth)))
	if p.filter != "" {
		lines = append(lines, styles.FilterStyle.Render(utils.TruncateToWidth("Filter: "+p.filter, contentWidth)))
	} else {
		lines = append(lines, styles.TextMutedStyle.Render(utils.TruncateToWidth("Type to filter...", contentWidth)))
	}

	switch {
	case p.loading:
		lines = append(lines, styles.TextMutedStyle.Render("Loading..."))
	case p.err != "":
		lines = append(lines, styles.ErrorBannerStyle.Render(utils.TruncateToWidth(p.err, contentWidth-2)))
	case len(p.filtered) == 0 && p.filter != "":
		lines = append(lines, styles.TextMutedStyle.Render("No matching chats"))
	case len(p.filtered) == 0:
		lines = append(lines, styles.TextMutedStyle.Render("No saved chats"))
	default:
		for i := 0; i < listHeight; i++ {
			index := p.scroll + i
			if index >= len(p.filtered) {
				break
			}
			lines = append(lines, p.renderItem(index, contentWidth))
		}
	}

	for len(lines) < listHeight+2 {
		lines = append(lines, "")
	}
	lines = append(lines, styles.FooterStyle.Render(utils.TruncateToWidth("Enter Open | Esc Close | Ctrl+N New", contentWidth)))

	return styles.BoxStyle.
		Width(p.width).
		Height(p.height).
		Render(strings.Join(lines, "\n"))
}

func (p *Panel) renderItem(index, width int) string {
	item := p.filtered[index]
	marker := "  "
	if item.ID == p.current {
		marker = "• "
	}
	age := formatAge(p.now(), item.UpdatedAt)
	titleWidth := width - lipgloss.Width(marker) - len(age) - 1
	line := marker + utils.TruncateToWidth(item.Title, titleWidth)
	line = utils.PadPlain(line, width-len(age)) + age
	if index == p.selected {
		return styles.SelectedStyle.Render(line)
	}
	return styles.TextStyle.Render(line)
}

// formatAge renders a compact relative time such as "5m" or "3d".
func formatAge(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// ensureVisible adjusts scroll to keep selected item visible
func (p *Panel) ensureVisible() {
	listHeight := p.listHeight()

	if len(p.filtered) == 0 {
		p.selected = 0
		p.scroll = 0
		return
	}

	p.selected = utils.Clamp(p.selected, 0, len(p.filtered)-1)

	maxScroll := len(p.filtered) - listHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	if p.scroll > maxScroll {
		p.scroll = maxScroll
	}
	if p.selected < p.scroll {
		p.scroll = p.selected
	}
	if p.selected >= p.scroll+listHeight {
		p.scroll = p.selected - listHeight + 1
	}
	if p.scroll < 0 {
		p.scroll = 0
	}
}

func (p *Panel) contentWidth() int {
	// border + horizontal padding
	if w := p.width - 4; w > 1 {
		return w
	}
	return 1
}

func (p *Panel) listHeight() int {
	// border (2) + title + filter + footer
	const fixedLines = 5
	if h := p.height - fixedLines; h > 1 {
		return h
	}
	return 1
}
