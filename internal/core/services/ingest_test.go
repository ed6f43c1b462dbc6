package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/normalisers"
	"github.com/custodia-labs/partnerdocs/internal/postprocessors/chunker"
	"github.com/custodia-labs/partnerdocs/internal/ratelimit"
)

func longText(sentences int) string {
	var b strings.Builder
	for i := 0; i < sentences; i++ {
		b.WriteString("The service fee is five percent of gross revenue. ")
	}
	return b.String()
}

func newTestIngest(index *mockChunkIndex, emb *mockEmbeddingService, cache *PartnerDocumentCache) *IngestService {
	var coord *EmbeddingCoordinator
	if emb != nil {
		coord = NewEmbeddingCoordinator(emb, EmbeddingConfig{BatchSize: 4}, ratelimit.New(0), nil)
	}
	seg := chunker.New(chunker.WithChunkSize(200), chunker.WithOverlap(40))
	return NewIngestService(seg, index, coord, normalisers.NewDefaultRegistry(), cache, nil)
}

func TestIngestText_IndexesChunks(t *testing.T) {
	index := newMockChunkIndex()
	emb := &mockEmbeddingService{}
	svc := newTestIngest(index, emb, nil)

	res, err := svc.IngestText(context.Background(), domain.IngestRequest{
		FileName:   "acme_contract.txt",
		Text:       longText(20),
		PartnerKey: "acme",
	})
	require.NoError(t, err)

	assert.Equal(t, "acme/acme_contract.txt", res.Source)
	assert.Greater(t, res.TotalChunks, 1)
	assert.Equal(t, res.TotalChunks, res.Indexed)
	assert.Equal(t, res.TotalChunks, res.Embedded)
	assert.Zero(t, res.Failed)
	assert.Equal(t, res.TotalChunks, index.count())

	chunks, err := index.Query(context.Background(), domain.ChunkFilter{Key: "acme"})
	require.NoError(t, err)
	for i, c := range chunks {
		assert.Equal(t, i, c.Ordinal)
		assert.Equal(t, domain.DocTypeContract, c.DocType)
		assert.Equal(t, chunker.ChunkID("acme/acme_contract.txt", i), c.ID)
		assert.True(t, c.HasEmbedding())
	}
}

func TestIngestText_WithoutEmbedder(t *testing.T) {
	index := newMockChunkIndex()
	res, err := newTestIngest(index, nil, nil).IngestText(context.Background(), domain.IngestRequest{
		SourceDocID: "notes",
		Text:        "short note",
		PartnerKey:  "acme",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Indexed)
	assert.Zero(t, res.Embedded)
}

func TestIngestText_AssignsSessionKey(t *testing.T) {
	res, err := newTestIngest(newMockChunkIndex(), nil, nil).IngestText(context.Background(), domain.IngestRequest{
		FileName: "upload.txt",
		Text:     "payout 900",
	})
	require.NoError(t, err)
	assert.Len(t, res.SessionKey, 8)
}

func TestIngestText_Validation(t *testing.T) {
	svc := newTestIngest(newMockChunkIndex(), nil, nil)

	_, err := svc.IngestText(context.Background(), domain.IngestRequest{Text: "x", PartnerKey: "acme"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.IngestText(context.Background(), domain.IngestRequest{FileName: "a.txt", Text: "  ", PartnerKey: "acme"})
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}

func TestIngestText_CountsWriteFailures(t *testing.T) {
	index := newMockChunkIndex()
	index.upsertErr = func(c domain.Chunk) error {
		if c.Ordinal == 1 {
			return errors.New("disk full")
		}
		return nil
	}
	metrics := &recordingMetrics{}
	seg := chunker.New(chunker.WithChunkSize(200), chunker.WithOverlap(40))
	svc := NewIngestService(seg, index, nil, nil, nil, metrics)

	res, err := svc.IngestText(context.Background(), domain.IngestRequest{
		SourceDocID: "acme_contract.txt", Text: longText(10), PartnerKey: "acme",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, res.TotalChunks-1, res.Indexed)
	assert.Equal(t, 1, metrics.writesFailed)
}

func TestIngestText_ReplacesPreviousVersion(t *testing.T) {
	index := newMockChunkIndex()
	svc := newTestIngest(index, nil, nil)
	ctx := context.Background()

	_, err := svc.IngestText(ctx, domain.IngestRequest{SourceDocID: "doc", Text: longText(20), PartnerKey: "acme"})
	require.NoError(t, err)
	long := index.count()

	res, err := svc.IngestText(ctx, domain.IngestRequest{SourceDocID: "doc", Text: "now short", PartnerKey: "acme"})
	require.NoError(t, err)
	assert.Greater(t, long, 1)
	assert.Equal(t, 1, res.Indexed)
	assert.Equal(t, 1, index.count())
}

func TestIngestText_SameFileNameDifferentPartners(t *testing.T) {
	index := newMockChunkIndex()
	cache := NewPartnerDocumentCache(index)
	svc := newTestIngest(index, nil, cache)
	ctx := context.Background()

	acme, err := svc.IngestText(ctx, domain.IngestRequest{
		FileName: "contract.txt", Text: longText(10), PartnerKey: "acme",
	})
	require.NoError(t, err)
	before, err := cache.Load(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, acme.Indexed, before.Total())

	globex, err := svc.IngestText(ctx, domain.IngestRequest{
		FileName: "contract.txt", Text: "Globex pays a flat fee.", PartnerKey: "globex",
	})
	require.NoError(t, err)
	assert.NotEqual(t, acme.Source, globex.Source)

	after, err := cache.Load(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, acme.Indexed, after.Total())
	for _, c := range after.ByType[domain.DocTypeContract] {
		assert.Equal(t, "acme", c.PartnerKey)
		assert.NotContains(t, c.Content, "Globex")
	}

	n, err := svc.DeleteSource(ctx, globex.Source)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	after, err = cache.Load(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, acme.Indexed, after.Total())
}

func TestIngestText_SessionScopedSource(t *testing.T) {
	res, err := newTestIngest(newMockChunkIndex(), nil, nil).IngestText(context.Background(), domain.IngestRequest{
		SourceDocID: "s1/upload.txt", Text: "payout 900", SessionKey: "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, "s1/upload.txt", res.Source)
}

func TestIngestText_InvalidatesCache(t *testing.T) {
	index := newMockChunkIndex()
	cache := NewPartnerDocumentCache(index)
	svc := newTestIngest(index, nil, cache)
	ctx := context.Background()

	set, err := cache.Load(ctx, "acme")
	require.NoError(t, err)
	assert.Zero(t, set.Total())

	_, err = svc.IngestText(ctx, domain.IngestRequest{SourceDocID: "c.txt", Text: "fee", PartnerKey: "acme"})
	require.NoError(t, err)

	set, err = cache.Load(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, 1, set.Total())
}

func TestIngestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "globex_payout.txt")
	require.NoError(t, os.WriteFile(path, []byte("Net payout 900."), 0644))

	index := newMockChunkIndex()
	res, err := newTestIngest(index, nil, nil).IngestFile(context.Background(), path,
		domain.IngestRequest{PartnerKey: "globex"})
	require.NoError(t, err)
	assert.Equal(t, "globex/globex_payout.txt", res.Source)

	chunks, err := index.Query(context.Background(), domain.ChunkFilter{Key: "globex"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, domain.DocTypePayoutReport, chunks[0].DocType)
	assert.Equal(t, "globex_payout.txt", chunks[0].FileName)

	_, err = newTestIngest(index, nil, nil).IngestFile(context.Background(), filepath.Join(dir, "scan.png"),
		domain.IngestRequest{PartnerKey: "globex"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme_contract.txt"), []byte("Fee is 5%."), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme_payout.md"), []byte("# Payout\n\nNet 900."), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), []byte("   "), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte{0x89}, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0755))

	index := newMockChunkIndex()
	res, err := newTestIngest(index, nil, nil).IngestDirectory(context.Background(), dir, nil,
		domain.IngestRequest{PartnerKey: "acme"})
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalFiles)
	assert.Equal(t, 2, res.Successful)
	assert.Equal(t, 1, res.FailedFiles)
	assert.Equal(t, 2, res.IndexedChunks)
	assert.Equal(t, 2, index.count())
}

func TestIngestDirectory_AllFail(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blank.txt"), nil, 0644))

	res, err := newTestIngest(newMockChunkIndex(), nil, nil).IngestDirectory(context.Background(), dir,
		[]string{"txt"}, domain.IngestRequest{PartnerKey: "acme"})
	require.Error(t, err)
	assert.Equal(t, 1, res.FailedFiles)

	_, err = newTestIngest(newMockChunkIndex(), nil, nil).IngestDirectory(context.Background(),
		filepath.Join(dir, "missing"), nil, domain.IngestRequest{})
	assert.Error(t, err)
}

func TestDeleteSource(t *testing.T) {
	index := newMockChunkIndex(acmeChunks()...)
	cache := NewPartnerDocumentCache(index)
	svc := newTestIngest(index, nil, cache)
	ctx := context.Background()

	_, err := cache.Load(ctx, "acme")
	require.NoError(t, err)

	n, err := svc.DeleteSource(ctx, "contract.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, cache.Len())

	_, err = svc.DeleteSource(ctx, "contract.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.DeleteSource(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
