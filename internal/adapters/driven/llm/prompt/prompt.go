// Package prompt renders the analysis prompts shared by the LLM adapters.
package prompt

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
)

// DefaultTemperature keeps analyses repeatable.
const DefaultTemperature = 0.1

// DefaultMaxTokens caps an analysis when the request does not.
const DefaultMaxTokens = 2000

// DefaultSystem is the system message used when no PromptStore is configured.
const DefaultSystem = `You are an expert legal and financial analyst for a food delivery platform. ` +
	`You reconcile partnership agreements with payout reports. You are meticulous and precise, ` +
	`and every statement you make is grounded in the supplied documents. If the documents do not ` +
	`contain the answer, say so.`

// DefaultAnalysis frames the context and question. It takes two %s
// placeholders: the context, then the question.
const DefaultAnalysis = `Analyse the following context documents to answer the question.

ANALYSIS FRAMEWORK:
1. CONTRACT TERMS: commission rates, fees, penalties and payment structures
2. FINANCIAL RECONCILIATION: compare actual payouts against contractual expectations
3. DISCREPANCIES: differences between contracted terms and actual payments
4. ROOT CAUSE: why each discrepancy occurred (service fees, penalties, bonuses)

CONTEXT DOCUMENTS:
%s

QUESTION:
%s

Cite specific contract clauses and payout line items, be precise with numbers
and percentages, and explain the financial impact of each discrepancy.

ANALYSIS:`

// Render returns the system and user messages for req. Missing or broken
// templates in store fall back to the defaults.
func Render(store driven.PromptStore, req driven.AnalysisRequest) (system, user string) {
	system = load(store, driven.PromptSystem, DefaultSystem)

	tmpl := load(store, driven.PromptAnalysis, DefaultAnalysis)
	if strings.Count(tmpl, "%s") != 2 {
		tmpl = DefaultAnalysis
	}
	return system, fmt.Sprintf(tmpl, req.Context, req.Question)
}

// MaxTokens returns the request's cap or DefaultMaxTokens.
func MaxTokens(req driven.AnalysisRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return DefaultMaxTokens
}

// Temperature returns the request's temperature or DefaultTemperature.
func Temperature(req driven.AnalysisRequest) float64 {
	if req.Temperature > 0 {
		return req.Temperature
	}
	return DefaultTemperature
}

func load(store driven.PromptStore, name, fallback string) string {
	if store == nil {
		return fallback
	}
	p, err := store.Load(name)
	if err != nil || strings.TrimSpace(p) == "" {
		return fallback
	}
	return p
}
