package ui

import "charm.land/bubbles/v2/key"

// keyMap holds the global key bindings of the chat screen.
type keyMap struct {
	Quit          key.Binding
	Submit        key.Binding
	Newline       key.Binding
	Complete      key.Binding
	ToggleHistory key.Binding
	NewChat       key.Binding
	CopyReply     key.Binding
	Scroll        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:          key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Submit:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Newline:       key.NewBinding(key.WithKeys("shift+enter", "ctrl+j"), key.WithHelp("shift+enter", "newline")),
		Complete:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "complete command")),
		ToggleHistory: key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "history")),
		NewChat:       key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new chat")),
		CopyReply:     key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy reply")),
		Scroll: key.NewBinding(
			key.WithKeys("pgup", "pgdown", "ctrl+up", "ctrl+down", "ctrl+home", "ctrl+end"),
			key.WithHelp("pgup/pgdown", "scroll"),
		),
	}
}
