// Package menu is the landing screen of the TUI.
package menu

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/partnerdocs/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/partnerdocs/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/partnerdocs/internal/adapters/driving/tui/styles"
)

// Item is one menu entry. Items with Quit set end the program.
type Item struct {
	Label       string
	Description string
	View        messages.ViewType
	Quit        bool
}

// DefaultItems are the entries shown by NewView.
func DefaultItems() []Item {
	return []Item{
		{Label: "Ask a question", Description: "Retrieve context or analyse a partner's documents", View: messages.ViewAsk},
		{Label: "Partner summary", Description: "Document counts per type and index totals", View: messages.ViewSummary},
		{Label: "Help", Description: "Key bindings", View: messages.ViewHelp},
		{Label: "Quit", Quit: true},
	}
}

// View is the menu screen.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates the menu. A nil styles uses the defaults.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		keymap: keymap.DefaultKeyMap(),
		items:  DefaultItems(),
		width:  80,
		height: 24,
	}
}

// Init implements tea.Model.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles navigation. Digits 1-9 select and open an item directly.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keymap.Up):
			v.selected = max(v.selected-1, 0)
		case key.Matches(msg, v.keymap.Down):
			v.selected = min(v.selected+1, len(v.items)-1)
		case key.Matches(msg, v.keymap.Select):
			return v, v.open(v.selected)
		case key.Matches(msg, v.keymap.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keymap.Jump):
			if i := shortcut(msg.String()); i < len(v.items) {
				v.selected = i
				return v, v.open(i)
			}
		}
	}
	return v, nil
}

func (v *View) open(i int) tea.Cmd {
	item := v.items[i]
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg {
		return messages.ViewChanged{View: item.View}
	}
}

// shortcut maps a Jump key "1".."9" to an item index.
func shortcut(s string) int {
	return int(s[0] - '1')
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("partnerdocs"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Contract and Payout Analysis"))
	b.WriteString("\n\n")

	for i, item := range v.items {
		label := fmt.Sprintf("%d. %s", i+1, item.Label)
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + label))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + label))
		}
		if item.Description != "" && v.width >= 60 {
			b.WriteString(v.styles.Muted.Render("  " + item.Description))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render(keymap.HelpLine(v.keymap.MenuHelp())))
	return b.String()
}

// SetDimensions sets the view size and marks it ready.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the highlighted index.
func (v *View) Selected() int {
	return v.selected
}
