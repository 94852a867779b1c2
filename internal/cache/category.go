package cache

import (
	"context"

	"github.com/muralproject/mural/internal/domain"
)

// GetCategory returns the fully resolved item list for one category shard,
// keyed by (series, file). URL resolution runs exactly once, before the
// entry is cached; hits never re-fetch or re-resolve.
func (s *Service) GetCategory(ctx context.Context, seriesID, file string) ([]domain.Item, error) {
	key := categoryKey(seriesID, file)

	s.mu.RLock()
	items, ok := s.categories[key]
	gen := s.clearGen
	s.mu.RUnlock()
	if ok {
		s.logger.Debug("category cache hit", "series", seriesID, "file", file)
		return items, nil
	}

	series, err := s.table.Lookup(seriesID)
	if err != nil {
		return nil, err
	}

	v, err, _ := s.sf.Do("category:"+key, func() (interface{}, error) {
		if s.store != nil {
			if cached, ok := s.store.GetCategory(seriesID, file); ok {
				s.logger.Debug("category store hit", "series", seriesID, "file", file)
				return cached, nil
			}
		}

		raw, err := s.client.FetchCategory(ctx, series, file)
		if err != nil {
			return nil, err
		}
		resolved := s.resolveAll(raw)

		if s.store != nil {
			if err := s.store.SaveCategory(seriesID, file, resolved); err != nil {
				s.logger.Error("failed to persist category",
					"series", seriesID, "file", file, "error", err)
			}
		}
		return resolved, nil
	})
	if err != nil {
		return nil, err
	}

	items = v.([]domain.Item)
	s.mu.Lock()
	// Skip the memoize when a Clear raced the fetch; see Clear.
	if s.clearGen == gen {
		s.categories[key] = items
	}
	s.mu.Unlock()

	s.logger.Debug("loaded category", "series", seriesID, "file", file, "count", len(items))
	return items, nil
}

// GetLegacy returns the monolithic full-dataset item list for a series,
// cached under a namespace distinct from the sharded entries.
func (s *Service) GetLegacy(ctx context.Context, seriesID string) ([]domain.Item, error) {
	s.mu.RLock()
	items, ok := s.legacy[seriesID]
	gen := s.clearGen
	s.mu.RUnlock()
	if ok {
		s.logger.Debug("legacy cache hit", "series", seriesID)
		return items, nil
	}

	series, err := s.table.Lookup(seriesID)
	if err != nil {
		return nil, err
	}

	v, err, _ := s.sf.Do("legacy:"+seriesID, func() (interface{}, error) {
		if s.store != nil {
			if cached, ok := s.store.GetLegacy(seriesID); ok {
				return cached, nil
			}
		}

		raw, err := s.client.FetchLegacy(ctx, series)
		if err != nil {
			return nil, err
		}
		resolved := s.resolveAll(raw)

		if s.store != nil {
			if err := s.store.SaveLegacy(seriesID, resolved); err != nil {
				s.logger.Error("failed to persist legacy payload", "series", seriesID, "error", err)
			}
		}
		return resolved, nil
	})
	if err != nil {
		return nil, err
	}

	items = v.([]domain.Item)
	s.mu.Lock()
	// Skip the memoize when a Clear raced the fetch; see Clear.
	if s.clearGen == gen {
		s.legacy[seriesID] = items
	}
	s.mu.Unlock()

	s.logger.Info("loaded legacy dataset", "series", seriesID, "count", len(items))
	return items, nil
}

// resolveAll resolves every item's URL fields, preserving order.
func (s *Service) resolveAll(raw []domain.Item) []domain.Item {
	resolved := make([]domain.Item, len(raw))
	for i, item := range raw {
		resolved[i] = s.resolver.ResolveItem(item)
	}
	return resolved
}
