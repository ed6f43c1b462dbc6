// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/partnerdocs/internal/core/domain"
)

// ContextAssembled carries an assembled context back to the model.
type ContextAssembled struct {
	Context *domain.AssembledContext
	Err     error
}

// AnalysisCompleted carries an LLM answer back to the model.
type AnalysisCompleted struct {
	Analysis *domain.Analysis
	Err      error
}

// SummaryLoaded carries a partner summary back to the model.
type SummaryLoaded struct {
	Summary *domain.PartnerSummary
	Err     error
}

// StatsLoaded carries index statistics back to the model.
type StatsLoaded struct {
	Stats *domain.IndexStats
	Err   error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewAsk is the question and context view.
	ViewAsk
	// ViewSummary shows what is indexed for a partner.
	ViewSummary
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewAsk:
		return "ask"
	case ViewSummary:
		return "summary"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
