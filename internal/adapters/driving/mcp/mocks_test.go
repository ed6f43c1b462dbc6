package mcp

import (
	"context"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driving"
)

var (
	_ driving.RetrievalService = (*mockRetrievalService)(nil)
	_ driving.IngestService    = (*mockIngestService)(nil)
)

type mockRetrievalService struct {
	context  *domain.AssembledContext
	analysis *domain.Analysis
	summary  *domain.PartnerSummary
	stats    *domain.IndexStats
	err      error

	lastReq      domain.ContextRequest
	lastQuestion string
	lastMaxDocs  int
}

func (m *mockRetrievalService) Context(_ context.Context, req domain.ContextRequest) (*domain.AssembledContext, error) {
	m.lastReq = req
	return m.context, m.err
}

func (m *mockRetrievalService) Analyse(_ context.Context, req domain.ContextRequest) (*domain.Analysis, error) {
	m.lastReq = req
	return m.analysis, m.err
}

func (m *mockRetrievalService) QueryAll(_ context.Context, question string, maxDocs int) (*domain.Analysis, error) {
	m.lastQuestion = question
	m.lastMaxDocs = maxDocs
	return m.analysis, m.err
}

func (m *mockRetrievalService) Summary(_ context.Context, key string) (*domain.PartnerSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := *m.summary
	s.Key = key
	return &s, nil
}

func (m *mockRetrievalService) Stats(_ context.Context) (*domain.IndexStats, error) {
	return m.stats, m.err
}

type mockIngestService struct {
	lastReq domain.IngestRequest
}

func (m *mockIngestService) IngestText(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.lastReq = req
	return &domain.IngestResult{Source: req.FileName, TotalChunks: 2, Indexed: 2}, nil
}

func (m *mockIngestService) IngestFile(_ context.Context, _ string, _ domain.IngestRequest) (*domain.IngestResult, error) {
	return nil, nil
}

func (m *mockIngestService) IngestDirectory(
	_ context.Context, _ string, _ []string, _ domain.IngestRequest,
) (*domain.DirectoryIngestResult, error) {
	return nil, nil
}

func (m *mockIngestService) DeleteSource(_ context.Context, _ string) (int, error) {
	return 0, nil
}
