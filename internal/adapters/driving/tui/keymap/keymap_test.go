package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDefaultKeyMap_Matches(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		msg     tea.KeyMsg
		binding key.Binding
		want    bool
	}{
		{"q quits", runes("q"), km.Quit, true},
		{"ctrl+c quits", tea.KeyMsg{Type: tea.KeyCtrlC}, km.Quit, true},
		{"k is up", runes("k"), km.Up, true},
		{"arrow down", tea.KeyMsg{Type: tea.KeyDown}, km.Down, true},
		{"down is not up", tea.KeyMsg{Type: tea.KeyDown}, km.Up, false},
		{"shift+tab switches field", tea.KeyMsg{Type: tea.KeyShiftTab}, km.NextField, true},
		{"ctrl+t toggles mode", tea.KeyMsg{Type: tea.KeyCtrlT}, km.ToggleMode, true},
		{"digit jumps", runes("3"), km.Jump, true},
		{"zero does not jump", runes("0"), km.Jump, false},
		{"enter submits", tea.KeyMsg{Type: tea.KeyEnter}, km.Submit, true},
		{"x is not quit", runes("x"), km.Quit, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, key.Matches(tt.msg, tt.binding))
		})
	}
}

func TestHelpGroups(t *testing.T) {
	km := DefaultKeyMap()

	short := km.ShortHelp()
	require.Len(t, short, 4)
	assert.Equal(t, "ask", short[0].Help().Desc)

	results := km.ResultsHelp()
	require.Len(t, results, 4)
	assert.Equal(t, "new question", results[0].Help().Desc)

	assert.Len(t, km.MenuHelp(), 5)

	full := km.FullHelp()
	require.Len(t, full, 3)
	for _, group := range full {
		for _, b := range group {
			assert.NotEmpty(t, b.Help().Key)
			assert.NotEmpty(t, b.Help().Desc)
		}
	}
}

func TestHelpLine(t *testing.T) {
	km := DefaultKeyMap()

	assert.Equal(t, "[q] quit", HelpLine([]key.Binding{km.Quit}))
	assert.Equal(t, "[esc] back  [?] help", HelpLine([]key.Binding{km.Back, km.Help}))
	assert.Empty(t, HelpLine(nil))
}
