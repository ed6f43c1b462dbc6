// Package pgvector provides a PostgreSQL + pgvector implementation of
// driven.ChunkIndex using a pgx connection pool.
package pgvector

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
)

// DefaultTable is used when no table name is configured.
const DefaultTable = "partner_chunks"

var tableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Ensure Index implements the interface.
var _ driven.ChunkIndex = (*Index)(nil)

// Config holds PostgreSQL connection settings.
type Config struct {
	// ConnectionString is a postgres:// URL or DSN.
	ConnectionString string

	// Table defaults to DefaultTable.
	Table string
}

// Index stores chunks in a PostgreSQL table with a vector column.
type Index struct {
	pool  *pgxpool.Pool
	table string
}

// New connects, checks the vector extension and creates the table if needed.
func New(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.ConnectionString == "" {
		return nil, fmt.Errorf("%w: connection string is required", domain.ErrInvalidInput)
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if !tableName.MatchString(cfg.Table) {
		return nil, fmt.Errorf("%w: invalid table name %q", domain.ErrInvalidInput, cfg.Table)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%w: parse connection string: %w", domain.ErrInvalidInput, err)
	}
	// Register pgvector types for each connection
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}

	idx := &Index{pool: pool, table: cfg.Table}
	if err := idx.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}
	return idx, nil
}

func (i *Index) migrate(ctx context.Context) error {
	var installed bool
	err := i.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector')").Scan(&installed)
	if err != nil {
		return fmt.Errorf("check vector extension: %w", err)
	}
	if !installed {
		return fmt.Errorf("vector extension not installed - run: CREATE EXTENSION vector")
	}

	_, err = i.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id              TEXT PRIMARY KEY,
			content         TEXT NOT NULL,
			source_doc_id   TEXT NOT NULL,
			doc_type        TEXT NOT NULL DEFAULT 'other',
			partner_key     TEXT NOT NULL DEFAULT '',
			session_key     TEXT NOT NULL DEFAULT '',
			start_offset    INTEGER NOT NULL DEFAULT 0,
			end_offset      INTEGER NOT NULL DEFAULT 0,
			ordinal         INTEGER NOT NULL DEFAULT 0,
			embedding       vector,
			embedding_model TEXT NOT NULL DEFAULT '',
			file_name       TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS %[1]s_partner_idx ON %[1]s (partner_key);
		CREATE INDEX IF NOT EXISTS %[1]s_session_idx ON %[1]s (session_key);
		CREATE INDEX IF NOT EXISTS %[1]s_source_idx ON %[1]s (source_doc_id, ordinal);
	`, i.table))
	if err != nil {
		return fmt.Errorf("create table %s: %w", i.table, err)
	}
	return nil
}

// Upsert stores or replaces a chunk by ID.
func (i *Index) Upsert(ctx context.Context, chunk domain.Chunk) error {
	if chunk.ID == "" {
		return fmt.Errorf("%w: chunk ID is required", domain.ErrInvalidInput)
	}
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = time.Now()
	}

	var embedding any
	if chunk.HasEmbedding() {
		embedding = pgvector.NewVector(chunk.Embedding)
	}

	_, err := i.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, content, source_doc_id, doc_type, partner_key, session_key,
			start_offset, end_offset, ordinal, embedding, embedding_model, file_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			source_doc_id = EXCLUDED.source_doc_id,
			doc_type = EXCLUDED.doc_type,
			partner_key = EXCLUDED.partner_key,
			session_key = EXCLUDED.session_key,
			start_offset = EXCLUDED.start_offset,
			end_offset = EXCLUDED.end_offset,
			ordinal = EXCLUDED.ordinal,
			embedding = EXCLUDED.embedding,
			embedding_model = EXCLUDED.embedding_model,
			file_name = EXCLUDED.file_name,
			created_at = EXCLUDED.created_at`, i.table),
		chunk.ID, chunk.Content, chunk.SourceDocID, string(chunk.DocType),
		chunk.PartnerKey, chunk.SessionKey, chunk.StartOffset, chunk.EndOffset, chunk.Ordinal,
		embedding, chunk.EmbeddingModel, chunk.FileName, chunk.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert chunk %s: %w", chunk.ID, err)
	}
	return nil
}

// Query returns chunks matching the filter key, ordered by source and ordinal.
func (i *Index) Query(ctx context.Context, filter domain.ChunkFilter) ([]domain.Chunk, error) {
	query := fmt.Sprintf(`
		SELECT id, content, source_doc_id, doc_type, partner_key, session_key,
			start_offset, end_offset, ordinal, embedding, embedding_model, file_name, created_at
		FROM %s`, i.table)
	var args []any
	if filter.Key != "" {
		args = append(args, filter.Key)
		query += " WHERE partner_key = $1 OR session_key = $1"
	}
	query += " ORDER BY source_doc_id, ordinal"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := i.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	chunks := make([]domain.Chunk, 0)
	for rows.Next() {
		var (
			c         domain.Chunk
			docType   string
			embedding *pgvector.Vector
		)
		err := rows.Scan(&c.ID, &c.Content, &c.SourceDocID, &docType, &c.PartnerKey, &c.SessionKey,
			&c.StartOffset, &c.EndOffset, &c.Ordinal, &embedding, &c.EmbeddingModel, &c.FileName, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		c.DocType = domain.DocType(docType)
		if embedding != nil {
			c.Embedding = embedding.Slice()
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return chunks, nil
}

// Stats returns aggregate counts across the table.
func (i *Index) Stats(ctx context.Context) (*domain.IndexStats, error) {
	rows, err := i.pool.Query(ctx, fmt.Sprintf(`
		SELECT source_doc_id, doc_type, partner_key, COUNT(*)
		FROM %s
		GROUP BY source_doc_id, doc_type, partner_key`, i.table))
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	b := domain.NewStatsBuilder()
	for rows.Next() {
		var source, docType, partner string
		var n int64
		if err := rows.Scan(&source, &docType, &partner, &n); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		for j := int64(0); j < n; j++ {
			b.Add(source, domain.DocType(docType), partner)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return b.Stats(), nil
}

// DeleteSource removes all chunks of a source document.
func (i *Index) DeleteSource(ctx context.Context, sourceDocID string) (int, error) {
	tag, err := i.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE source_doc_id = $1", i.table), sourceDocID)
	if err != nil {
		return 0, fmt.Errorf("delete chunks of %s: %w", sourceDocID, err)
	}
	return int(tag.RowsAffected()), nil
}

// Close closes the connection pool.
func (i *Index) Close() error {
	i.pool.Close()
	return nil
}
