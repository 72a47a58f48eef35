package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	SwitchPane key.Binding
	Select     key.Binding
	Filter     key.Binding
	LeaveInput key.Binding
	ColLeft    key.Binding
	ColRight   key.Binding
	RowUp      key.Binding
	RowDown    key.Binding
	Sort       key.Binding
	NextPage   key.Binding
	PrevPage   key.Binding
	FirstPage  key.Binding
	LastPage   key.Binding
	Bigger     key.Binding
	Smaller    key.Binding
	Stats      key.Binding
	Reload     key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		SwitchPane: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		Select:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open dataset")),
		Filter:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		LeaveInput: key.NewBinding(key.WithKeys("esc", "enter"), key.WithHelp("esc", "done")),
		ColLeft:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "column")),
		ColRight:   key.NewBinding(key.WithKeys("right", "l")),
		RowUp:      key.NewBinding(key.WithKeys("up", "k")),
		RowDown:    key.NewBinding(key.WithKeys("down", "j")),
		Sort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		NextPage:   key.NewBinding(key.WithKeys("n", "pgdown"), key.WithHelp("n/p", "page")),
		PrevPage:   key.NewBinding(key.WithKeys("p", "pgup")),
		FirstPage:  key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g/G", "first/last")),
		LastPage:   key.NewBinding(key.WithKeys("G", "end")),
		Bigger:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "page size")),
		Smaller:    key.NewBinding(key.WithKeys("-", "_")),
		Stats:      key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "stats")),
		Reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.SwitchPane, k.Select, k.Filter, k.Sort, k.NextPage, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.SwitchPane, k.Select, k.Reload, k.Quit},
		{k.Filter, k.ColLeft, k.Sort, k.Stats},
		{k.NextPage, k.FirstPage, k.Bigger},
	}
}
