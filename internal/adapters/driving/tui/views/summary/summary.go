// Package summary provides the partner summary view for the TUI.
package summary

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/partnerdocs/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/partnerdocs/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/partnerdocs/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driving"
)

// ErrNoRetrievalService is returned when the retrieval service is not configured.
var ErrNoRetrievalService = errors.New("retrieval service not configured")

// View shows index statistics and the documents held for one partner.
type View struct {
	styles    *styles.Styles
	key       *input.Field
	retrieval driving.RetrievalService
	ctx       context.Context

	summary *domain.PartnerSummary
	stats   *domain.IndexStats
	width   int
	height  int
	ready   bool
	loading bool
	err     error
}

// NewView creates a new summary view.
func NewView(s *styles.Styles, retrieval driving.RetrievalService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	v := &View{
		styles:    s,
		key:       input.NewField(s, "Partner", "partner name or session key"),
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

// Init loads index statistics.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.key.Init(), v.loadStats())
}

func (v *View) loadStats() tea.Cmd {
	ctx := v.ctx
	svc := v.retrieval
	return func() tea.Msg {
		if svc == nil {
			return messages.StatsLoaded{Err: ErrNoRetrievalService}
		}
		stats, err := svc.Stats(ctx)
		return messages.StatsLoaded{Stats: stats, Err: err}
	}
}

func (v *View) loadSummary(key string) tea.Cmd {
	ctx := v.ctx
	svc := v.retrieval
	return func() tea.Msg {
		if svc == nil {
			return messages.SummaryLoaded{Err: ErrNoRetrievalService}
		}
		summary, err := svc.Summary(ctx, key)
		return messages.SummaryLoaded{Summary: summary, Err: err}
	}
}

// Update handles messages for the summary view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		case tea.KeyEnter:
			key := strings.TrimSpace(v.key.Value())
			if key == "" {
				return v, nil
			}
			v.loading = true
			return v, v.loadSummary(key)
		default:
		}
		var cmd tea.Cmd
		v.key, cmd = v.key.Update(msg)
		return v, cmd

	case messages.SummaryLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.summary = msg.Summary
		}
		return v, nil

	case messages.StatsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.stats = msg.Stats
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	var cmd tea.Cmd
	v.key, cmd = v.key.Update(msg)
	return v, cmd
}

// View renders the summary view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{v.styles.Title.Render("Partner Summary"), "", v.key.View(), ""}

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	switch {
	case v.loading:
		sections = append(sections, v.styles.Muted.Render("Loading..."))
	case v.summary != nil:
		sections = append(sections, v.renderSummary())
	}

	if v.stats != nil {
		sections = append(sections, "", v.renderStats())
	}

	sections = append(sections, "", v.styles.Help.Render("[Enter] Load  [Esc] Back"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderSummary() string {
	s := v.summary
	lines := []string{v.styles.Subtitle.Render(fmt.Sprintf("%s: %d chunks", s.Key, s.TotalChunks))}
	if s.TotalChunks == 0 {
		return strings.Join(append(lines, v.styles.Muted.Render("No documents indexed.")), "\n")
	}

	for _, t := range domain.AllDocTypes() {
		ts, ok := s.DocumentTypes[t]
		if !ok {
			continue
		}
		lines = append(lines,
			"  "+v.styles.DocType(t).Render(fmt.Sprintf("%-14s", t.Label()))+
				v.styles.Normal.Render(fmt.Sprintf(" %4d chunks  %7d chars", ts.Count, ts.TotalContentLength)),
			v.styles.Muted.Render("    "+strings.Join(ts.Files, ", ")))
	}
	return strings.Join(lines, "\n")
}

func (v *View) renderStats() string {
	st := v.stats
	lines := []string{
		v.styles.Subtitle.Render("Index"),
		v.styles.Normal.Render(fmt.Sprintf("  %d chunks in %d documents", st.TotalChunks, st.UniqueDocuments)),
	}

	partners := make([]string, 0, len(st.ByPartner))
	for p := range st.ByPartner {
		partners = append(partners, p)
	}
	sort.Strings(partners)
	for _, p := range partners {
		lines = append(lines, v.styles.Muted.Render(fmt.Sprintf("  %s: %d", p, st.ByPartner[p])))
	}
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.key.SetWidth(width)
}

// Summary returns the loaded summary, if any.
func (v *View) Summary() *domain.PartnerSummary {
	return v.summary
}

// Stats returns the loaded statistics, if any.
func (v *View) Stats() *domain.IndexStats {
	return v.stats
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Reset clears the loaded summary and input.
func (v *View) Reset() {
	v.key.SetValue("")
	v.key.Focus()
	v.summary = nil
	v.loading = false
	v.err = nil
}
