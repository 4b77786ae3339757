package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the shell's global bindings.
type KeyMap struct {
	Palette key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap mirrors the website's global shortcuts.
var DefaultKeyMap = KeyMap{
	Palette: key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "commands")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "shortcuts")),
	Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Palette, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
