package prompt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
)

type stubStore map[string]string

func (s stubStore) Load(name string) (string, error) {
	p, ok := s[name]
	if !ok {
		return "", errors.New("not found")
	}
	return p, nil
}

func (s stubStore) Reload() {}

func TestRender_Defaults(t *testing.T) {
	req := driven.AnalysisRequest{Context: "DOCUMENT 1", Question: "Why is the payout low?"}

	system, user := Render(nil, req)
	assert.Equal(t, DefaultSystem, system)
	assert.Contains(t, user, "CONTEXT DOCUMENTS:\nDOCUMENT 1\n")
	assert.Contains(t, user, "QUESTION:\nWhy is the payout low?\n")
}

func TestRender_CustomTemplates(t *testing.T) {
	store := stubStore{
		driven.PromptSystem:   "Be brief.",
		driven.PromptAnalysis: "Q: %[2]s C: %[1]s",
	}
	// Indexed verbs are not plain %s placeholders, so the default applies.
	_, user := Render(store, driven.AnalysisRequest{Context: "ctx", Question: "q"})
	assert.Contains(t, user, "CONTEXT DOCUMENTS:\nctx")

	store[driven.PromptAnalysis] = "C: %s Q: %s"
	system, user := Render(store, driven.AnalysisRequest{Context: "ctx", Question: "q"})
	assert.Equal(t, "Be brief.", system)
	assert.Equal(t, "C: ctx Q: q", user)
}

func TestRender_BlankTemplateFallsBack(t *testing.T) {
	store := stubStore{driven.PromptSystem: "  "}
	system, _ := Render(store, driven.AnalysisRequest{})
	assert.Equal(t, DefaultSystem, system)
}

func TestRequestDefaults(t *testing.T) {
	assert.Equal(t, DefaultMaxTokens, MaxTokens(driven.AnalysisRequest{}))
	assert.Equal(t, 500, MaxTokens(driven.AnalysisRequest{MaxTokens: 500}))
	assert.Equal(t, DefaultTemperature, Temperature(driven.AnalysisRequest{}))
	assert.Equal(t, 0.7, Temperature(driven.AnalysisRequest{Temperature: 0.7}))
}
