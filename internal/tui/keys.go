package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	PrevDay key.Binding
	NextDay key.Binding
	Up      key.Binding
	Down    key.Binding
	Add     key.Binding
	Delete  key.Binding
	Reload  key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevDay, k.NextDay, k.Add, k.Delete, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevDay, k.NextDay, k.Up, k.Down},
		{k.Add, k.Delete, k.Reload, k.Quit},
	}
}

var keys = keyMap{
	PrevDay: key.NewBinding(key.WithKeys("left", "h", "shift+tab"), key.WithHelp("←", "prev day")),
	NextDay: key.NewBinding(key.WithKeys("right", "l", "tab"), key.WithHelp("→", "next day")),
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "newer comment")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "older comment")),
	Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add comment")),
	Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete comment")),
	Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}
