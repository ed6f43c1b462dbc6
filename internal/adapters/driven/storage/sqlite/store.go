package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/partnerdocs/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
)

// DatabaseFile is the file name used inside the data directory.
const DatabaseFile = "chunks.db"

// Ensure Store implements the interface.
var _ driven.ChunkIndex = (*Store)(nil)

// Store is a SQLite-backed chunk index.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite chunk index in the specified data directory.
// If dataDir is empty, defaults to ~/.partnerdocs/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".partnerdocs", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %w", domain.ErrIndexUnavailable, err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", domain.ErrIndexUnavailable, err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: running migrations: %w", domain.ErrIndexUnavailable, err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_chunks.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Upsert stores or replaces a chunk by ID.
func (s *Store) Upsert(ctx context.Context, chunk domain.Chunk) error {
	if chunk.ID == "" {
		return fmt.Errorf("%w: chunk ID is required", domain.ErrInvalidInput)
	}
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chunks (id, content, source_doc_id, doc_type, partner_key, session_key,
			start_offset, end_offset, ordinal, embedding, embedding_model, file_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			source_doc_id = excluded.source_doc_id,
			doc_type = excluded.doc_type,
			partner_key = excluded.partner_key,
			session_key = excluded.session_key,
			start_offset = excluded.start_offset,
			end_offset = excluded.end_offset,
			ordinal = excluded.ordinal,
			embedding = excluded.embedding,
			embedding_model = excluded.embedding_model,
			file_name = excluded.file_name,
			created_at = excluded.created_at
	`,
		chunk.ID, chunk.Content, chunk.SourceDocID, string(chunk.DocType),
		chunk.PartnerKey, chunk.SessionKey, chunk.StartOffset, chunk.EndOffset, chunk.Ordinal,
		float32SliceToBytes(chunk.Embedding), chunk.EmbeddingModel, chunk.FileName,
		chunk.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting chunk %s: %w", chunk.ID, err)
	}
	return nil
}

// Query returns chunks matching the filter key, ordered by source and ordinal.
func (s *Store) Query(ctx context.Context, filter domain.ChunkFilter) ([]domain.Chunk, error) {
	query := `
		SELECT id, content, source_doc_id, doc_type, partner_key, session_key,
			start_offset, end_offset, ordinal, embedding, embedding_model, file_name, created_at
		FROM chunks`
	var args []any
	if filter.Key != "" {
		query += " WHERE partner_key = ? OR session_key = ?"
		args = append(args, filter.Key, filter.Key)
	}
	query += " ORDER BY source_doc_id, ordinal"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	chunks := make([]domain.Chunk, 0)
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// Stats returns aggregate counts across the index.
func (s *Store) Stats(ctx context.Context) (*domain.IndexStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_doc_id, doc_type, partner_key, COUNT(*)
		FROM chunks
		GROUP BY source_doc_id, doc_type, partner_key
	`)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	defer rows.Close()

	b := domain.NewStatsBuilder()
	for rows.Next() {
		var source, docType, partner string
		var n int
		if err := rows.Scan(&source, &docType, &partner, &n); err != nil {
			return nil, fmt.Errorf("scanning stats: %w", err)
		}
		for i := 0; i < n; i++ {
			b.Add(source, domain.DocType(docType), partner)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stats: %w", err)
	}
	return b.Stats(), nil
}

// DeleteSource removes all chunks of a source document.
func (s *Store) DeleteSource(ctx context.Context, sourceDocID string) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE source_doc_id = ?", sourceDocID)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks of %s: %w", sourceDocID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted chunks: %w", err)
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChunk(row scanner) (domain.Chunk, error) {
	var (
		c         domain.Chunk
		docType   string
		embedding []byte
		created   string
	)
	err := row.Scan(&c.ID, &c.Content, &c.SourceDocID, &docType, &c.PartnerKey, &c.SessionKey,
		&c.StartOffset, &c.EndOffset, &c.Ordinal, &embedding, &c.EmbeddingModel, &c.FileName, &created)
	if err != nil {
		return c, fmt.Errorf("scanning chunk: %w", err)
	}
	c.DocType = domain.DocType(docType)
	c.Embedding = bytesToFloat32Slice(embedding)
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		c.CreatedAt = t
	}
	return c, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
