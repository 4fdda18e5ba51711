// Package styles provides a centralized theme and style system for the gemchat UI.
package styles

import (
	"charm.land/lipgloss/v2"
)

// Color palette - ANSI 256 colors used throughout the application
var (
	// Primary accent color (Gemini blue)
	ColorAccent = lipgloss.Color("75")

	// Text colors
	ColorText       = lipgloss.Color("252") // Primary text
	ColorTextMuted  = lipgloss.Color("245") // Secondary/muted text
	ColorTextBright = lipgloss.Color("15")  // Bright/highlighted text

	// Semantic colors
	ColorError   = lipgloss.Color("196")
	ColorWarning = lipgloss.Color("214")
	ColorUser    = lipgloss.Color("222")

	// Code colors
	ColorCode        = lipgloss.Color("213")
	ColorCodeBg      = lipgloss.Color("235")
	ColorPlaceholder = lipgloss.Color("240")

	// Border colors
	ColorBorder      = lipgloss.Color("75")
	ColorBorderMuted = lipgloss.Color("62")
)

// Panel/Box styles
var (
	// BoxStyle is the default rounded box for panels
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	// InputBoxStyle frames the message input
	InputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorderMuted)
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	TextStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	TextMutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)

	TextBoldStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	FilterStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)
)

// SelectedStyle highlights the active row in lists.
var SelectedStyle = lipgloss.NewStyle().
	Foreground(ColorTextBright).
	Background(ColorAccent).
	Bold(true)

// Conversation styles
var (
	UserLabelStyle = lipgloss.NewStyle().
			Foreground(ColorUser).
			Bold(true)

	ModelLabelStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	// AttachmentStyle renders image placeholders
	AttachmentStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Italic(true)

	CodeStyle = lipgloss.NewStyle().
			Foreground(ColorCode).
			Background(ColorCodeBg)

	GreetingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("219")).
			Bold(true)

	// ErrorBannerStyle is the line shown while the error slot is set
	ErrorBannerStyle = lipgloss.NewStyle().
				Foreground(ColorTextBright).
				Background(ColorError).
				Padding(0, 1)
)

// Status bar styles
var (
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#1A73E8")).
			Padding(0, 1).
			Bold(true)

	StatusBarBusyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#7D56F4")).
				Padding(0, 1).
				Bold(true)
)

// Welcome message styles
var (
	WelcomeBorderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("99"))

	WelcomeKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")).
			Bold(true)

	WelcomeVersionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))
)
