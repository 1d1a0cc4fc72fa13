// Package search keeps a full-text index of the active pages.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/cmskit/cmskit-server/internal/domain"
)

// PageIndex wraps a Bleve index of page documents.
//
// All public methods are safe for concurrent use. The mutex guards the
// index handle while Rebuild swaps it.
type PageIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the page index.
type Options struct {
	DataPath string       // Directory for index storage, empty for an in-memory index
	Logger   *slog.Logger // Logger for operations (stderr text handler if nil)
}

// mappingVersion is bumped whenever the mapping changes. An index written
// with another version is rebuilt on open.
const mappingVersion = "1"

const batchSize = 500

// NewPageIndex opens the index under opts.DataPath, creating it when it
// does not exist. A corrupt index or one with an outdated mapping is
// removed and created again.
func NewPageIndex(opts Options) (*PageIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	if opts.DataPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		return &PageIndex{index: index, logger: logger}, nil
	}

	indexPath := filepath.Join(opts.DataPath, "pages.bleve")
	versionPath := filepath.Join(opts.DataPath, "pages.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil:
			logger.Info("search index has no version file, will rebuild", "new_version", mappingVersion)
			needsRebuild = true
		case string(existingVersion) != mappingVersion:
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate", "path", indexPath, "error", err)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			logger.Warn("failed to write search version file", "error", writeErr)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &PageIndex{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (s *PageIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// SyncPages brings the index in line with pages: searchable pages are
// (re)indexed, the others are removed.
func (s *PageIndex) SyncPages(ctx context.Context, pages []*domain.Page) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := 0; i < len(pages); i += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(i+batchSize, len(pages))

		batch := s.index.NewBatch()
		for _, p := range pages[i:end] {
			doc := NewPageDocument(p)
			if doc == nil {
				batch.Delete(p.ID)
				continue
			}
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// RemovePages removes the documents of ids.
func (s *PageIndex) RemovePages(_ context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return s.index.Batch(batch)
}

// DocumentCount returns the number of indexed pages.
func (s *PageIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild replaces the index with one holding exactly pages.
//
// Rebuild takes the exclusive lock; searches block until it returns.
func (s *PageIndex) Rebuild(ctx context.Context, pages []*domain.Page) error {
	s.mu.Lock()
	if err := s.index.Close(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("close index: %w", err)
	}

	var index bleve.Index
	var err error
	if s.path == "" {
		index, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if err = os.RemoveAll(s.path); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("remove index: %w", err)
		}
		index, err = bleve.New(s.path, buildIndexMapping())
	}
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("create index: %w", err)
	}
	s.index = index
	s.mu.Unlock()

	if err := s.SyncPages(ctx, pages); err != nil {
		return err
	}
	s.logger.Info("rebuilt search index", "path", s.path, "pages", len(pages))
	return nil
}
