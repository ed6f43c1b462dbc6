package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driving"
	"github.com/custodia-labs/partnerdocs/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// DefaultExtensions are the file extensions ingested from directories.
var DefaultExtensions = []string{".txt", ".md"}

// NewSessionKey returns a short random key grouping one upload session.
func NewSessionKey() string {
	return uuid.NewString()[:8]
}

// IngestService segments, embeds and indexes documents.
type IngestService struct {
	segmenter driven.Segmenter
	index     driven.ChunkIndex
	embedder  *EmbeddingCoordinator
	loader    driven.TextLoader
	cache     *PartnerDocumentCache
	metrics   driven.Metrics
}

// NewIngestService creates a new ingest service.
// The embedder, loader and cache parameters are optional (can be nil).
// Without an embedder chunks are indexed without vectors.
func NewIngestService(
	segmenter driven.Segmenter,
	index driven.ChunkIndex,
	embedder *EmbeddingCoordinator,
	loader driven.TextLoader,
	cache *PartnerDocumentCache,
	metrics driven.Metrics,
) *IngestService {
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	return &IngestService{
		segmenter: segmenter,
		index:     index,
		embedder:  embedder,
		loader:    loader,
		cache:     cache,
		metrics:   metrics,
	}
}

// IngestText segments, embeds and indexes already-extracted text.
// Individual chunk write failures are counted, not returned. A request with
// neither partner nor session key is assigned a fresh session key. The
// source ID is scoped to the owning key, so re-ingesting replaces only that
// owner's copy of the document.
func (s *IngestService) IngestText(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	if req.SourceDocID == "" {
		req.SourceDocID = req.FileName
	}
	if req.SourceDocID == "" {
		return nil, fmt.Errorf("%w: source document ID or file name is required", domain.ErrInvalidInput)
	}
	if req.PartnerKey == "" && req.SessionKey == "" {
		req.SessionKey = NewSessionKey()
	}
	req.SourceDocID = domain.ScopedSourceID(req.Owner(), req.SourceDocID)

	logger.Section("Ingest")
	logger.Debug("Source: %s, partner: %q, session: %q", req.SourceDocID, req.PartnerKey, req.SessionKey)

	chunks, err := s.segmenter.Process(req)
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", req.SourceDocID, err)
	}

	result := &domain.IngestResult{
		Source:      req.SourceDocID,
		SessionKey:  req.SessionKey,
		TotalChunks: len(chunks),
	}
	logger.Debug("Segmented into %d chunks", len(chunks))

	if s.embedder != nil {
		emb := s.embedder.EmbedChunks(ctx, chunks)
		result.Embedded = emb.Succeeded()
		result.EmbeddingFailures = emb.Failed()
		result.Cancelled = emb.Cancelled
		for _, f := range emb.Failures {
			logger.Warn("Embedding %s: %v", req.SourceDocID, f)
		}
	}

	// Drop chunks from a previous, possibly longer, version of the source.
	if n, err := s.index.DeleteSource(ctx, req.SourceDocID); err != nil {
		logger.Warn("Clear previous chunks of %s: %v", req.SourceDocID, err)
	} else if n > 0 {
		logger.Debug("Replaced %d existing chunks", n)
	}

	for i := range chunks {
		if err := ctx.Err(); err != nil {
			result.Cancelled = true
			result.Failed += len(chunks) - i
			break
		}
		if err := s.index.Upsert(ctx, chunks[i]); err != nil {
			result.Failed++
			s.metrics.IndexWrite(false)
			logger.Warn("Index chunk %d of %s: %v", chunks[i].Ordinal, req.SourceDocID,
				fmt.Errorf("%w: %w", domain.ErrIndexWrite, err))
			continue
		}
		result.Indexed++
		s.metrics.IndexWrite(true)
	}

	s.invalidate(req.PartnerKey, req.SessionKey)

	logger.Info("Ingested %s: %d/%d chunks indexed, %d embedded",
		req.SourceDocID, result.Indexed, result.TotalChunks, result.Embedded)
	return result, nil
}

// IngestFile loads a file through the text loader and ingests it.
// SourceDocID, FileName and DocType default from the file name.
func (s *IngestService) IngestFile(ctx context.Context, path string, req domain.IngestRequest) (*domain.IngestResult, error) {
	if s.loader == nil {
		return nil, fmt.Errorf("%w: no text loader configured", domain.ErrUnsupportedType)
	}
	if !s.loader.Supports(path) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filepath.Ext(path))
	}

	text, err := s.loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	name := filepath.Base(path)
	req.Text = text
	if req.FileName == "" {
		req.FileName = name
	}
	if req.SourceDocID == "" {
		req.SourceDocID = name
	}
	if req.DocType == "" {
		req.DocType = domain.InferDocType(name)
	}

	return s.IngestText(ctx, req)
}

// IngestDirectory ingests every regular file in dir (not recursive) whose
// extension is in exts. Per-file failures are recorded in the result.
func (s *IngestService) IngestDirectory(
	ctx context.Context, dir string, exts []string, req domain.IngestRequest,
) (*domain.DirectoryIngestResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		allowed[e] = true
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !allowed[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)

	if req.PartnerKey == "" && req.SessionKey == "" {
		req.SessionKey = NewSessionKey()
	}

	result := &domain.DirectoryIngestResult{Directory: dir, TotalFiles: len(files)}
	for _, path := range files {
		if ctx.Err() != nil {
			result.CancelledEarly = true
			break
		}

		// Each file gets its own identity; the grouping keys are shared.
		fileReq := domain.IngestRequest{
			PartnerKey: req.PartnerKey,
			SessionKey: req.SessionKey,
			DocType:    req.DocType,
		}
		res, err := s.IngestFile(ctx, path, fileReq)
		if err != nil {
			logger.Warn("Ingest %s: %v", path, err)
			res = &domain.IngestResult{Source: filepath.Base(path), Err: err}
		}
		result.Add(res)
	}

	if result.TotalFiles > 0 && result.Successful == 0 && !result.CancelledEarly {
		return result, errors.Join(collectErrors(result)...)
	}
	return result, nil
}

// DeleteSource removes a source document's chunks and drops every cached
// partner set. sourceDocID is the scoped ID reported by ingest, see
// domain.ScopedSourceID.
func (s *IngestService) DeleteSource(ctx context.Context, sourceDocID string) (int, error) {
	if strings.TrimSpace(sourceDocID) == "" {
		return 0, fmt.Errorf("%w: source document ID is required", domain.ErrInvalidInput)
	}
	n, err := s.index.DeleteSource(ctx, sourceDocID)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", sourceDocID, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("source %s: %w", sourceDocID, domain.ErrNotFound)
	}
	if s.cache != nil {
		s.cache.InvalidateAll()
	}
	logger.Info("Deleted %d chunks of %s", n, sourceDocID)
	return n, nil
}

func (s *IngestService) invalidate(keys ...string) {
	if s.cache == nil {
		return
	}
	for _, k := range keys {
		if k != "" {
			s.cache.Invalidate(k)
		}
	}
}

func collectErrors(r *domain.DirectoryIngestResult) []error {
	var errs []error
	for _, f := range r.Files {
		if f.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Source, f.Err))
		}
	}
	return errs
}
