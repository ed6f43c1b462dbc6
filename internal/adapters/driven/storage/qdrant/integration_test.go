//go:build integration

package qdrant

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/postprocessors/chunker"
)

// startQdrant runs a Qdrant container and returns its gRPC URL.
func startQdrant(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "qdrant/qdrant:latest",
			ExposedPorts: []string{"6333/tcp", "6334/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("6333/tcp"),
				wait.ForLog("Qdrant gRPC listening"),
			).WithDeadline(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	port, err := container.MappedPort(ctx, "6334")
	require.NoError(t, err)
	host, err := container.Host(ctx)
	require.NoError(t, err)
	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

func TestIndex_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	idx, err := New(ctx, Config{URL: startQdrant(t), Collection: "test_chunks", Dimensions: 3})
	require.NoError(t, err)
	defer idx.Close()

	chunks := []domain.Chunk{
		{Content: "fee 5%", SourceDocID: "acme_contract.txt", DocType: domain.DocTypeContract, PartnerKey: "acme", Ordinal: 1},
		{Content: "parties", SourceDocID: "acme_contract.txt", DocType: domain.DocTypeContract, PartnerKey: "acme", Ordinal: 0},
		{Content: "net 900", SourceDocID: "acme_payout.txt", DocType: domain.DocTypePayoutReport, PartnerKey: "acme"},
		{Content: "upload", SourceDocID: "upload.txt", DocType: domain.DocTypeOther, SessionKey: "a1b2c3d4"},
	}
	for i := range chunks {
		chunks[i].ID = chunker.ChunkID(chunks[i].SourceDocID, chunks[i].Ordinal)
		chunks[i].Embedding = []float32{1, float32(i), 0}
		require.NoError(t, idx.Upsert(ctx, chunks[i]))
	}

	require.NoError(t, idx.Upsert(ctx, domain.Chunk{
		ID: chunker.ChunkID("globex/notes.txt", 0), Content: "no vector", SourceDocID: "globex/notes.txt",
		DocType: domain.DocTypeOther, PartnerKey: "globex",
	}))
	unembedded, err := idx.Query(ctx, domain.ChunkFilter{Key: "globex"})
	require.NoError(t, err)
	require.Len(t, unembedded, 1)
	assert.False(t, unembedded[0].HasEmbedding())

	got, err := idx.Query(ctx, domain.ChunkFilter{Key: "acme"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "parties", got[0].Content)
	assert.Equal(t, "fee 5%", got[1].Content)
	assert.Len(t, got[0].Embedding, 3)

	session, err := idx.Query(ctx, domain.ChunkFilter{Key: "a1b2c3d4"})
	require.NoError(t, err)
	assert.Len(t, session, 1)

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalChunks)
	assert.Equal(t, 4, stats.UniqueDocuments)

	n, err := idx.DeleteSource(ctx, "acme_contract.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err = idx.Query(ctx, domain.ChunkFilter{Key: "acme"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
