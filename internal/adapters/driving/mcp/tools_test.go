package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
)

func sampleContext() domain.AssembledContext {
	return domain.AssembledContext{
		Key:      "acme",
		Balanced: true,
		Text:     "DOCUMENT 1 (CONTRACT): ...",
		Chunks: []domain.Chunk{
			{SourceDocID: "acme_contract.txt", DocType: domain.DocTypeContract, Content: "Fee 5%", Ordinal: 0},
			{SourceDocID: "acme_contract.txt", DocType: domain.DocTypeContract, Content: "Penalty", Ordinal: 3},
			{SourceDocID: "acme_payout.txt", DocType: domain.DocTypePayoutReport, Content: "Net 900", Ordinal: 1},
		},
	}
}

func newTestServer(t *testing.T, r *mockRetrievalService, ingest *mockIngestService) *Server {
	t.Helper()
	ports := &Ports{Retrieval: r}
	if ingest != nil {
		ports.Ingest = ingest
	}
	s, err := NewServer(ports)
	require.NoError(t, err)
	return s
}

func TestServer_handleContext(t *testing.T) {
	ac := sampleContext()
	r := &mockRetrievalService{context: &ac}
	s := newTestServer(t, r, nil)

	_, out, err := s.handleContext(context.Background(), nil, ContextInput{
		Key: "acme", Query: "fees", MaxChunks: 4, UseEmbeddings: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "acme", r.lastReq.Key)
	assert.Equal(t, 4, r.lastReq.Budget.MaxChunks)
	assert.True(t, r.lastReq.UseEmbeddings)
	assert.True(t, out.Balanced)
	require.Len(t, out.Chunks, 3)
	assert.Equal(t, "contract", out.Chunks[0].DocType)
	assert.Equal(t, 3, out.Chunks[1].Ordinal)
}

func TestServer_handleContext_Error(t *testing.T) {
	s := newTestServer(t, &mockRetrievalService{err: domain.ErrNoDocuments}, nil)
	_, _, err := s.handleContext(context.Background(), nil, ContextInput{Key: "nobody"})
	assert.ErrorIs(t, err, domain.ErrNoDocuments)
}

func TestServer_handleAnalyse(t *testing.T) {
	r := &mockRetrievalService{analysis: &domain.Analysis{
		Key: "acme", Question: "why?", Answer: "Because of the penalty.", Model: "mock", Context: sampleContext(),
	}}
	s := newTestServer(t, r, nil)

	_, out, err := s.handleAnalyse(context.Background(), nil, AnalyseInput{Key: "acme", Question: "why?"})
	require.NoError(t, err)
	assert.Equal(t, "Because of the penalty.", out.Answer)
	assert.Equal(t, []string{"acme_contract.txt", "acme_payout.txt"}, out.Sources)
	assert.Equal(t, "why?", r.lastReq.Query)
}

func TestServer_handleQueryAll(t *testing.T) {
	r := &mockRetrievalService{analysis: &domain.Analysis{Question: "q", Answer: "a"}}
	s := newTestServer(t, r, nil)

	_, out, err := s.handleQueryAll(context.Background(), nil, QueryAllInput{Question: "q", MaxDocs: 7})
	require.NoError(t, err)
	assert.Equal(t, "a", out.Answer)
	assert.Empty(t, out.Sources)
	assert.Equal(t, 7, r.lastMaxDocs)
}

func TestServer_handleSummary(t *testing.T) {
	r := &mockRetrievalService{summary: &domain.PartnerSummary{
		TotalChunks: 5,
		DocumentTypes: map[domain.DocType]domain.DocTypeSummary{
			domain.DocTypePayoutReport: {Count: 2, Files: []string{"p.txt"}},
			domain.DocTypeContract:     {Count: 3, Files: []string{"c.txt"}},
		},
	}}
	s := newTestServer(t, r, nil)

	_, out, err := s.handleSummary(context.Background(), nil, SummaryInput{Key: "acme"})
	require.NoError(t, err)
	assert.Equal(t, "acme", out.Key)
	require.Len(t, out.Types, 2)
	assert.Equal(t, "contract", out.Types[0].DocType)
	assert.Equal(t, "payout_report", out.Types[1].DocType)
}

func TestServer_handleIngest(t *testing.T) {
	ingest := &mockIngestService{}
	s := newTestServer(t, &mockRetrievalService{}, ingest)

	_, out, err := s.handleIngest(context.Background(), nil, IngestInput{
		Text: "Fee 5%", FileName: "acme.txt", DocType: "contract", PartnerKey: "acme",
	})
	require.NoError(t, err)
	assert.Equal(t, "acme.txt", out.Source)
	assert.Equal(t, 2, out.Indexed)
	assert.Equal(t, domain.DocTypeContract, ingest.lastReq.DocType)
}
