// Package keymap holds the key bindings shared by the TUI views.
package keymap

import "github.com/charmbracelet/bubbles/key"

// KeyMap is the full set of bindings. Views match against these with
// key.Matches rather than comparing key strings.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	// Menu and lists.
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Jump   key.Binding

	// Ask view.
	Submit      key.Binding
	NextField   key.Binding
	ToggleMode  key.Binding
	NewQuestion key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Back: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),

		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Jump: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "open"),
		),

		Submit:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "ask")),
		NextField:   key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		ToggleMode:  key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "context/analyse")),
		NewQuestion: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new question")),
	}
}

// MenuHelp lists the bindings shown under the menu.
func (k *KeyMap) MenuHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Jump, k.Select, k.Quit}
}

// ShortHelp lists the bindings shown while entering a question.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.NextField, k.ToggleMode, k.Back}
}

// ResultsHelp lists the bindings shown while browsing results.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.NewQuestion, k.Up, k.Down, k.Back}
}

// FullHelp groups every binding for the help screen.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Jump},
		{k.Submit, k.NextField, k.ToggleMode},
		{k.NewQuestion, k.Back, k.Help, k.Quit},
	}
}

// HelpLine renders bindings as "key desc" pairs separated by two spaces.
func HelpLine(bindings []key.Binding) string {
	var line string
	for i, b := range bindings {
		if i > 0 {
			line += "  "
		}
		h := b.Help()
		line += "[" + h.Key + "] " + h.Desc
	}
	return line
}
