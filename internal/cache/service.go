// Package cache holds the two read-through caches of the acquisition
// pipeline: the per-series manifest index and the per-(series, file)
// category payloads. The service is constructed explicitly and injected
// into the loader; concurrent misses for the same key join a single fetch.
package cache

import (
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/muralproject/mural/internal/domain"
)

// Service is the cache layer over the catalog client. Entries are
// write-once per key and invalidated wholesale via Clear.
type Service struct {
	table    domain.SeriesTable
	client   domain.CatalogClient
	resolver domain.Resolver
	store    domain.CacheStore // persistent second level, may be nil
	logger   *slog.Logger

	mu         sync.RWMutex
	manifests  map[string]*domain.SeriesManifest
	categories map[string][]domain.Item
	legacy     map[string][]domain.Item
	clearGen   uint64 // bumped by Clear; stale fetches skip memoization

	sf singleflight.Group
}

// New creates the cache service. store may be nil for a purely in-memory
// session cache.
func New(table domain.SeriesTable, client domain.CatalogClient, resolver domain.Resolver, store domain.CacheStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		table:      table,
		client:     client,
		resolver:   resolver,
		store:      store,
		logger:     logger,
		manifests:  make(map[string]*domain.SeriesManifest),
		categories: make(map[string][]domain.Item),
		legacy:     make(map[string][]domain.Item),
	}
}

// Series returns the static series table the service validates against.
func (s *Service) Series() domain.SeriesTable {
	return s.table
}

// HasIndex reports whether the series manifest is already memoized.
func (s *Service) HasIndex(seriesID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.manifests[seriesID]
	return ok
}

// HasCategory reports whether a category shard is already memoized.
func (s *Service) HasCategory(seriesID, file string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.categories[categoryKey(seriesID, file)]
	return ok
}

// HasLegacy reports whether the legacy payload is already memoized.
func (s *Service) HasLegacy(seriesID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.legacy[seriesID]
	return ok
}

// Clear wipes cache entries. With no arguments everything goes; otherwise
// only the named series' index, category, and legacy entries are removed.
func (s *Service) Clear(seriesIDs ...string) {
	s.mu.Lock()
	// A fetch already in flight when Clear runs must not write its result
	// back afterwards; the generation bump makes its memoize a no-op.
	s.clearGen++
	if len(seriesIDs) == 0 {
		s.manifests = make(map[string]*domain.SeriesManifest)
		s.categories = make(map[string][]domain.Item)
		s.legacy = make(map[string][]domain.Item)
	} else {
		for _, id := range seriesIDs {
			delete(s.manifests, id)
			delete(s.legacy, id)
			prefix := id + "/"
			for key := range s.categories {
				if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
					delete(s.categories, key)
				}
			}
		}
	}
	s.mu.Unlock()

	if s.store == nil {
		return
	}
	if len(seriesIDs) == 0 {
		s.store.ClearAll()
		s.logger.Info("cleared all cached series")
		return
	}
	for _, id := range seriesIDs {
		s.store.ClearSeries(id)
		s.logger.Info("cleared cached series", "series", id)
	}
}

func categoryKey(seriesID, file string) string {
	return seriesID + "/" + file
}
