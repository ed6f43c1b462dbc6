// Package ask provides the question view for the TUI: pick a partner, ask a
// question, and inspect either the assembled context or the LLM's answer.
package ask

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/partnerdocs/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/partnerdocs/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/partnerdocs/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/partnerdocs/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/partnerdocs/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/partnerdocs/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driving"
)

// Mode selects what submitting a question does.
type Mode int

const (
	// ModeContext shows the assembled context only.
	ModeContext Mode = iota
	// ModeAnalyse sends the context to the LLM.
	ModeAnalyse
)

// String returns the mode label.
func (m Mode) String() string {
	if m == ModeAnalyse {
		return "analyse"
	}
	return "context"
}

type focus int

const (
	focusKey focus = iota
	focusQuestion
	focusResults
)

// View is the ask view.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	key       *input.Field
	question  *input.Field
	list      *list.ChunkList
	answer    viewport.Model
	statusbar *status.Bar

	retrieval driving.RetrievalService
	ctx       context.Context

	mode     Mode
	focus    focus
	analysis *domain.Analysis
	width    int
	height   int
	ready    bool
	err      error
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, retrieval driving.RetrievalService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:    s,
		keymap:    km,
		key:       input.NewField(s, "Partner", "partner name or session key"),
		question:  input.NewField(s, "Question", "e.g. why was the March payout lower?"),
		list:      list.NewChunkList(s),
		answer:    viewport.New(80, 10),
		statusbar: status.NewBar(s, km),
		retrieval: retrieval,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
	v.key.Focus()
	return v
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.key.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ContextAssembled:
		v.handleContext(msg)
		return v, nil

	case messages.AnalysisCompleted:
		v.handleAnalysis(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	switch v.focus {
	case focusKey:
		v.key, cmd = v.key.Update(msg)
	case focusQuestion:
		v.question, cmd = v.question.Update(msg)
	case focusResults:
	}
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if key.Matches(msg, v.keymap.Back) {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if key.Matches(msg, v.keymap.ToggleMode) {
		v.ToggleMode()
		return v, nil
	}

	if v.focus == focusResults {
		return v.handleResultsKey(msg)
	}

	if key.Matches(msg, v.keymap.NextField) {
		return v, v.switchField()
	}

	if key.Matches(msg, v.keymap.Submit) {
		return v, v.submit()
	}

	var cmd tea.Cmd
	if v.focus == focusKey {
		v.key, cmd = v.key.Update(msg)
	} else {
		v.question, cmd = v.question.Update(msg)
	}
	return v, cmd
}

func (v *View) handleResultsKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	if key.Matches(msg, v.keymap.NewQuestion) {
		v.focus = focusQuestion
		v.question.SetValue("")
		return v, v.question.Focus()
	}

	if v.mode == ModeAnalyse && v.analysis != nil {
		var cmd tea.Cmd
		v.answer, cmd = v.answer.Update(msg)
		return v, cmd
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

func (v *View) switchField() tea.Cmd {
	if v.focus == focusKey {
		v.focus = focusQuestion
		v.key.Blur()
		return v.question.Focus()
	}
	v.focus = focusKey
	v.question.Blur()
	return v.key.Focus()
}

// submit validates the inputs and returns the command that calls the service.
func (v *View) submit() tea.Cmd {
	partnerKey := strings.TrimSpace(v.key.Value())
	if partnerKey == "" {
		v.statusbar.SetError("enter a partner name or session key")
		return nil
	}
	question := strings.TrimSpace(v.question.Value())
	if v.mode == ModeContext && question == "" {
		v.statusbar.SetError("enter a question")
		return nil
	}

	v.err = nil
	v.statusbar.SetWorking(partnerKey)

	req := domain.ContextRequest{Key: partnerKey, Query: question}
	if v.mode == ModeAnalyse {
		return v.analyse(req)
	}
	return v.assemble(req)
}

func (v *View) assemble(req domain.ContextRequest) tea.Cmd {
	ctx := v.ctx
	svc := v.retrieval
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoRetrievalService}
		}
		assembled, err := svc.Context(ctx, req)
		return messages.ContextAssembled{Context: assembled, Err: err}
	}
}

func (v *View) analyse(req domain.ContextRequest) tea.Cmd {
	ctx := v.ctx
	svc := v.retrieval
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoRetrievalService}
		}
		analysis, err := svc.Analyse(ctx, req)
		return messages.AnalysisCompleted{Analysis: analysis, Err: err}
	}
}

func (v *View) handleContext(msg messages.ContextAssembled) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}
	v.err = nil
	v.analysis = nil
	v.list.SetChunks(msg.Context.Chunks)
	v.showResults(msg.Context)
}

func (v *View) handleAnalysis(msg messages.AnalysisCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}
	v.err = nil
	v.analysis = msg.Analysis
	v.list.SetChunks(msg.Analysis.Context.Chunks)
	v.answer.SetContent(v.renderAnswer())
	v.answer.GotoTop()
	v.showResults(&msg.Analysis.Context)
}

func (v *View) showResults(assembled *domain.AssembledContext) {
	v.statusbar.SetResult(assembled.Key, len(assembled.Chunks), assembled.Balanced)
	v.focus = focusResults
	v.key.Blur()
	v.question.Blur()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetError(err.Error())
}

func (v *View) renderAnswer() string {
	a := v.analysis
	width := max(v.width-4, 20)

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Width(width).Render(a.Answer))

	seen := make(map[string]bool)
	var sources []string
	for _, c := range a.Context.Chunks {
		if !seen[c.SourceDocID] {
			seen[c.SourceDocID] = true
			sources = append(sources, c.SourceDocID)
		}
	}
	if len(sources) > 0 {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Subtitle.Render("Sources"))
		for _, s := range sources {
			b.WriteString("\n  - " + s)
		}
	}
	if a.Model != "" {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Muted.Render("Model: " + a.Model))
	}
	return b.String()
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)
	header := v.styles.Title.Render("Ask") + "  " +
		v.styles.Muted.Render(fmt.Sprintf("mode: %s", v.mode))
	sections = append(sections, header, "", v.key.View(), v.question.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.mode == ModeAnalyse && v.analysis != nil {
		sections = append(sections, v.styles.Subtitle.Render("Answer"), v.answer.View())
	} else {
		sections = append(sections, v.list.View())
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.key.SetWidth(width)
	v.question.SetWidth(width)
	v.list.SetDimensions(width, height-14)
	v.answer.Width = width
	v.answer.Height = max(height-16, 3)
	if v.analysis != nil {
		v.answer.SetContent(v.renderAnswer())
	}
	v.statusbar.SetWidth(width)
}

// ToggleMode switches between context and analysis mode.
func (v *View) ToggleMode() {
	if v.mode == ModeContext {
		v.mode = ModeAnalyse
	} else {
		v.mode = ModeContext
	}
}

// Mode returns the current mode.
func (v *View) Mode() Mode {
	return v.mode
}

// SetKey pre-fills the partner key.
func (v *View) SetKey(key string) {
	v.key.SetValue(key)
}

// Key returns the current partner key.
func (v *View) Key() string {
	return v.key.Value()
}

// Chunks returns the chunks of the last result.
func (v *View) Chunks() []domain.Chunk {
	return v.list.Chunks()
}

// Analysis returns the last analysis, if any.
func (v *View) Analysis() *domain.Analysis {
	return v.analysis
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// ResultsFocused reports whether results have focus.
func (v *View) ResultsFocused() bool {
	return v.focus == focusResults
}

// Reset clears the inputs and results and focuses the key input.
func (v *View) Reset() {
	v.focus = focusKey
	v.key.SetValue("")
	v.question.SetValue("")
	v.question.Blur()
	v.key.Focus()
	v.list.SetChunks(nil)
	v.analysis = nil
	v.err = nil
	v.statusbar.Clear()
}
