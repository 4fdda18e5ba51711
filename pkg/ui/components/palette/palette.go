package palette

import (
	"strings"

	"gemchat/pkg/ui/components/utils"
	"gemchat/pkg/ui/styles"

	"charm.land/lipgloss/v2"
)

// maxHints caps how many suggestions are shown at once.
const maxHints = 5

// Command represents a slash command
type Command struct {
	Name        string
	Description string
}

// CommandPalette suggests slash commands while one is being typed.
type CommandPalette struct {
	commands []Command
	width    int
}

// NewCommandPalette creates a palette over commands.
func NewCommandPalette(commands []Command) *CommandPalette {
	return &CommandPalette{
		commands: append([]Command(nil), commands...),
		width:    80,
	}
}

// SetWidth sets the palette width
func (p *CommandPalette) SetWidth(width int) {
	p.width = width
}

// Match returns the commands whose name starts with the command word being
// typed in input. Once an argument has been started nothing matches.
func (p *CommandPalette) Match(input string) []Command {
	word := strings.TrimLeft(input, " ")
	if !strings.HasPrefix(word, "/") || strings.ContainsAny(word, " \n") {
		return nil
	}

	prefix := strings.ToLower(word)
	var matches []Command
	for _, cmd := range p.commands {
		if strings.HasPrefix(cmd.Name, prefix) {
			matches = append(matches, cmd)
		}
	}
	return matches
}

// Complete returns input with the first matching command filled in.
func (p *CommandPalette) Complete(input string) (string, bool) {
	matches := p.Match(input)
	if len(matches) == 0 {
		return input, false
	}
	return matches[0].Name + " ", true
}

// Height returns the number of lines View renders for input.
func (p *CommandPalette) Height(input string) int {
	return min(len(p.Match(input)), maxHints)
}

// View renders the suggestions for input, one per line, or "" when none match.
func (p *CommandPalette) View(input string) string {
	matches := p.Match(input)
	if len(matches) == 0 {
		return ""
	}
	if len(matches) > maxHints {
		matches = matches[:maxHints]
	}

	maxNameWidth := 4
	for _, cmd := range matches {
		maxNameWidth = max(maxNameWidth, lipgloss.Width(cmd.Name))
	}

	lines := make([]string, 0, len(matches))
	for i, cmd := range matches {
		nameLabel := utils.PadPlain(cmd.Name, maxNameWidth)
		var line string
		if i == 0 {
			line = styles.SelectedStyle.Render(" "+nameLabel+" ") + " " + styles.TextStyle.Render(cmd.Description)
		} else {
			line = styles.TextStyle.Render(" "+nameLabel+" ") + " " + styles.TextMutedStyle.Render(cmd.Description)
		}
		lines = append(lines, utils.PadStyled(utils.TruncateToWidth(line, p.width), p.width))
	}
	return strings.Join(lines, "\n")
}
