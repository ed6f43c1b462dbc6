// Package status renders the one-line footer of the ask view.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/partnerdocs/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/partnerdocs/internal/adapters/driving/tui/styles"
)

// State is what the footer reports on its left side.
type State string

const (
	StateReady   State = "ready"
	StateWorking State = "working"
	StateError   State = "error"
	StateResults State = "results"
)

// Bar shows the last retrieval outcome on the left and key hints on the right.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	width   int

	// Last assembled context.
	key      string
	chunks   int
	balanced bool
}

// NewBar creates a status bar. Nil arguments use the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, state: StateReady, width: 80}
}

// Init implements tea.Model.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update is a no-op; the owning view drives the bar through its setters.
func (s *Bar) Update(tea.Msg) (*Bar, tea.Cmd) {
	return s, nil
}

// View renders the bar padded to its width.
func (s *Bar) View() string {
	left, right := s.renderLeft(), s.renderRight()
	gap := max(s.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StateWorking:
		if s.key != "" {
			return s.styles.Muted.Render(fmt.Sprintf("Retrieving %s...", s.key))
		}
		return s.styles.Muted.Render("Working...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render("Error: " + s.message)
		}
		return s.styles.Error.Render("Error")
	case StateResults:
		mode := "pooled"
		if s.balanced {
			mode = "balanced"
		}
		return s.styles.Normal.Render(fmt.Sprintf("%s: %d chunks (%s)", s.key, s.chunks, mode))
	default:
		return s.styles.Muted.Render("Ready")
	}
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.state == StateResults {
		bindings = s.keymap.ResultsHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, len(bindings))
	for i, b := range bindings {
		h := b.Help()
		hints[i] = h.Key + ": " + h.Desc
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetWorking marks a retrieval for key as in flight.
func (s *Bar) SetWorking(key string) {
	s.state = StateWorking
	s.key = key
	s.message = ""
}

// SetResult records an assembled context and switches to StateResults.
func (s *Bar) SetResult(key string, chunks int, balanced bool) {
	s.state = StateResults
	s.key = key
	s.chunks = chunks
	s.balanced = balanced
	s.message = ""
}

// SetError switches to StateError with msg.
func (s *Bar) SetError(msg string) {
	s.state = StateError
	s.message = msg
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// Message returns the error message, if any.
func (s *Bar) Message() string {
	return s.message
}

// ResultCount returns the chunk count of the last result.
func (s *Bar) ResultCount() int {
	return s.chunks
}

// SetWidth sets the rendered width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the rendered width.
func (s *Bar) Width() int {
	return s.width
}

// Clear returns to StateReady and forgets the last result.
func (s *Bar) Clear() {
	*s = Bar{styles: s.styles, keymap: s.keymap, state: StateReady, width: s.width}
}
