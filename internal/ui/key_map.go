package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	next       key.Binding
	prev       key.Binding
	open       key.Binding
	mode       key.Binding
	format     key.Binding
	result     key.Binding
	hero       key.Binding
	opponent   key.Binding
	search     key.Binding
	clear      key.Binding
	visibility key.Binding
	remove     key.Binding
	share      key.Binding
	yes        key.Binding
	back       key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		next:       key.NewBinding(key.WithKeys("]", "right"), key.WithHelp("]/→", "next page")),
		prev:       key.NewBinding(key.WithKeys("[", "left"), key.WithHelp("[/←", "prev page")),
		open:       key.NewBinding(key.WithKeys("enter", "o"), key.WithHelp("enter", "open")),
		mode:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mode")),
		format:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "format")),
		result:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "result")),
		hero:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "class")),
		opponent:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "opponent")),
		search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "player name")),
		clear:      key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset search")),
		visibility: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "visibility")),
		remove:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		share:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "share link")),
		yes:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.prev, k.next, k.open, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.prev, k.next, k.open, k.share},
		{k.mode, k.format, k.result, k.hero, k.opponent},
		{k.search, k.clear, k.visibility, k.remove},
		{k.quit},
	}
}
