package tui

import (
	"context"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
)

type mockRetrieval struct {
	context *domain.AssembledContext
	err     error
}

func (m *mockRetrieval) Context(_ context.Context, req domain.ContextRequest) (*domain.AssembledContext, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.context != nil {
		return m.context, nil
	}
	return &domain.AssembledContext{Key: req.Key}, nil
}

func (m *mockRetrieval) Analyse(_ context.Context, req domain.ContextRequest) (*domain.Analysis, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Analysis{Key: req.Key, Question: req.Query, Answer: "answer"}, nil
}

func (m *mockRetrieval) QueryAll(_ context.Context, question string, _ int) (*domain.Analysis, error) {
	return &domain.Analysis{Question: question}, m.err
}

func (m *mockRetrieval) Summary(_ context.Context, key string) (*domain.PartnerSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.PartnerSummary{Key: key}, nil
}

func (m *mockRetrieval) Stats(_ context.Context) (*domain.IndexStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return domain.NewIndexStats(), nil
}
