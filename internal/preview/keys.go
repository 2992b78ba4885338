package preview

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle      key.Binding
	Back        key.Binding
	Forward     key.Binding
	VolumeUp    key.Binding
	VolumeDown  key.Binding
	TrackToggle key.Binding
	Export      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Back, k.Forward, k.TrackToggle, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Back, k.Forward},
		{k.VolumeUp, k.VolumeDown, k.TrackToggle},
		{k.Export, k.Help, k.Quit},
	}
}

var keys = keyMap{
	Toggle: key.NewBinding(
		key.WithKeys(" ", "space", "k"),
		key.WithHelp("space", "play/pause"),
	),
	Back: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←", "back 5s"),
	),
	Forward: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→", "forward 5s"),
	),
	VolumeUp: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "volume up"),
	),
	VolumeDown: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "volume down"),
	),
	TrackToggle: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
		key.WithHelp("1-9", "toggle track"),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more keys"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
