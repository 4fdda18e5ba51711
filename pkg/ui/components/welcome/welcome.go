package welcome

import (
	"fmt"
	"strings"

	"gemchat/pkg/ui/components/utils"
	"gemchat/pkg/ui/styles"
	"gemchat/pkg/version"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
)

// GreetingText is shown while the conversation is empty.
const GreetingText = "How can I help you today?"

const boxWidth = 44 // inner width

var shortcuts = []struct{ key, desc string }{
	{"Enter", "Send message"},
	{"/image", "Attach an image: /image <path>"},
	{"Ctrl+B", "Toggle chat history"},
	{"Ctrl+N", "Start a new chat"},
	{"Ctrl+Y", "Copy last reply"},
	{"Ctrl+C", "Quit"},
}

// Greeting returns the empty-conversation box centered in width x height.
func Greeting(width, height int) string {
	inner := boxWidth
	if width-2 < inner {
		inner = width - 2
	}
	if inner < len(GreetingText) {
		// Too narrow for the box; the greeting alone still fits most panes.
		return styles.GreetingStyle.Render(utils.TruncateToWidth(GreetingText, width))
	}

	makeLine := func(content string, visualWidth int) string {
		pad := inner - visualWidth
		if pad < 0 {
			pad = 0
		}
		return styles.WelcomeBorderStyle.Render("│") + content + strings.Repeat(" ", pad) + styles.WelcomeBorderStyle.Render("│")
	}
	centered := func(text string, style lipgloss.Style) string {
		text = utils.TruncateToWidth(text, inner)
		w := runewidth.StringWidth(text)
		left := (inner - w) / 2
		return makeLine(strings.Repeat(" ", left)+style.Render(text), left+w)
	}

	lines := []string{
		styles.WelcomeBorderStyle.Render("╭" + strings.Repeat("─", inner) + "╮"),
		makeLine("", 0),
		centered(GreetingText, styles.GreetingStyle),
		makeLine("", 0),
	}
	for _, s := range shortcuts {
		keyFormatted := fmt.Sprintf("  %-8s", s.key)
		desc := utils.TruncateToWidth(s.desc, inner-runewidth.StringWidth(keyFormatted))
		line := styles.WelcomeKeyStyle.Render(keyFormatted) + styles.TextStyle.Render(desc)
		lines = append(lines, makeLine(line, runewidth.StringWidth(keyFormatted)+runewidth.StringWidth(desc)))
	}
	lines = append(lines,
		makeLine("", 0),
		centered("gemchat "+version.Summary(), styles.WelcomeVersionStyle),
		styles.WelcomeBorderStyle.Render("╰"+strings.Repeat("─", inner)+"╯"),
	)

	box := strings.Join(lines, "\n")
	if height < len(lines) {
		height = len(lines)
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
