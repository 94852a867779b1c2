// Package search filters the merged item list with fuzzy matching.
package search

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/muralproject/mural/internal/domain"
)

// Source supplies the items to search over (implemented by the loader).
type Source interface {
	Items() []domain.Item
}

// Result is one search hit with its match distance (lower is better).
type Result struct {
	Item     domain.Item
	Distance int
}

// Service handles fuzzy filtering over the active series' merged list.
type Service struct {
	source Source
	logger *slog.Logger
}

// NewService creates a search service over the loader.
func NewService(source Source, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, logger: logger}
}

// Filter returns items whose id, category label, or format fuzzy-matches
// query, best matches first. An empty query returns nil.
func (s *Service) Filter(query string) []Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	items := s.source.Items()
	if len(items) == 0 {
		return nil
	}

	targets := make([]string, len(items))
	for i, item := range items {
		targets[i] = searchText(item)
	}

	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.Sort(ranks)

	results := make([]Result, 0, len(ranks))
	for _, rank := range ranks {
		results = append(results, Result{
			Item:     items[rank.OriginalIndex],
			Distance: rank.Distance,
		})
	}

	s.logger.Debug("filtered items", "query", query, "results", len(results))
	return results
}

// searchText builds the matchable text for one item.
func searchText(item domain.Item) string {
	parts := []string{item.ID}
	if item.Category != "" {
		parts = append(parts, item.Category)
	}
	if item.Format != "" {
		parts = append(parts, item.Format)
	}
	return strings.Join(parts, " ")
}
