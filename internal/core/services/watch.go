package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driving"
	"github.com/custodia-labs/partnerdocs/internal/logger"
)

// Ensure WatchService implements the interface.
var _ driving.WatchService = (*WatchService)(nil)

// WatchService applies folder changes to the index.
type WatchService struct {
	ingest  driving.IngestService
	watcher driven.FileWatcher
	exts    []string
}

// NewWatchService creates a watch service. exts limits the initial
// directory ingest and defaults to DefaultExtensions.
func NewWatchService(ingest driving.IngestService, watcher driven.FileWatcher, exts []string) *WatchService {
	return &WatchService{ingest: ingest, watcher: watcher, exts: exts}
}

// Run consumes changes until ctx ends. Cancellation is not an error.
func (s *WatchService) Run(ctx context.Context, req domain.IngestRequest, initial bool) (*domain.WatchStats, error) {
	if req.PartnerKey == "" && req.SessionKey == "" {
		req.SessionKey = NewSessionKey()
	}
	stats := &domain.WatchStats{}

	if initial {
		res, err := s.ingest.IngestDirectory(ctx, s.watcher.Root(), s.exts, req)
		if res != nil {
			stats.Ingested += res.Successful
			stats.Failed += res.FailedFiles
		}
		if err != nil {
			logger.Warn("Initial ingest of %s: %v", s.watcher.Root(), err)
		}
	}

	changes, err := s.watcher.Watch(ctx)
	if err != nil {
		return stats, fmt.Errorf("watch %s: %w", s.watcher.Root(), err)
	}

	for change := range changes {
		s.apply(ctx, change, req, stats)
	}
	return stats, nil
}

func (s *WatchService) apply(ctx context.Context, change domain.FileChange, req domain.IngestRequest, stats *domain.WatchStats) {
	name := filepath.Base(change.Path)
	logger.Debug("%s %s", change.Type, name)

	if change.Type == domain.ChangeDeleted {
		source := domain.ScopedSourceID(req.Owner(), name)
		n, err := s.ingest.DeleteSource(ctx, source)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			stats.Failed++
			logger.Warn("Remove %s: %v", source, err)
		default:
			stats.Deleted++
			logger.Info("Removed %d chunks of %s", n, source)
		}
		return
	}

	fileReq := domain.IngestRequest{
		PartnerKey: req.PartnerKey,
		SessionKey: req.SessionKey,
		DocType:    req.DocType,
	}
	if _, err := s.ingest.IngestFile(ctx, change.Path, fileReq); err != nil {
		stats.Failed++
		logger.Warn("Ingest %s: %v", name, err)
		return
	}
	stats.Ingested++
}
