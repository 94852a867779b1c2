package cache

import (
	"context"

	"github.com/muralproject/mural/internal/domain"
)

// GetIndex returns the decoded manifest for a series. Hits return the
// cached value with no network call or re-decode; misses validate the
// series id, fetch through the catalog client, and memoize before
// returning. Fetch failures cache nothing, so an explicit retry is safe.
func (s *Service) GetIndex(ctx context.Context, seriesID string) (*domain.SeriesManifest, error) {
	s.mu.RLock()
	manifest, ok := s.manifests[seriesID]
	gen := s.clearGen
	s.mu.RUnlock()
	if ok {
		s.logger.Debug("manifest cache hit", "series", seriesID)
		return manifest, nil
	}

	series, err := s.table.Lookup(seriesID)
	if err != nil {
		return nil, err
	}

	v, err, _ := s.sf.Do("index:"+seriesID, func() (interface{}, error) {
		if s.store != nil {
			if m, ok := s.store.GetManifest(seriesID); ok {
				s.logger.Debug("manifest store hit", "series", seriesID)
				return m, nil
			}
		}

		m, err := s.client.FetchManifest(ctx, series)
		if err != nil {
			return nil, err
		}

		if s.store != nil {
			if err := s.store.SaveManifest(seriesID, m); err != nil {
				s.logger.Error("failed to persist manifest", "series", seriesID, "error", err)
			}
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}

	manifest = v.(*domain.SeriesManifest)
	s.mu.Lock()
	// A Clear that ran while the fetch was in flight wins; memoizing here
	// would resurrect the entry it just removed.
	if s.clearGen == gen {
		s.manifests[seriesID] = manifest
	}
	s.mu.Unlock()

	s.logger.Info("loaded manifest",
		"series", seriesID, "categories", len(manifest.Categories), "total", manifest.Total)
	return manifest, nil
}
