package loader

import (
	"context"

	"github.com/muralproject/mural/internal/domain"
)

// activateLegacy is the degrade path for structurally invalid manifests:
// one monolithic per-series document, no progressive behavior.
func (l *Loader) activateLegacy(ctx context.Context, seriesID string, gen uint64) (domain.ActivateResult, error) {
	fromCache := l.caches.HasLegacy(seriesID)
	items, err := l.caches.GetLegacy(ctx, seriesID)
	if err != nil {
		l.failActivation(gen, seriesID, err)
		return domain.ActivateResult{}, err
	}

	l.mu.Lock()
	if l.st.generation != gen {
		l.mu.Unlock()
		return domain.ActivateResult{}, nil
	}
	l.st.items = items
	l.st.initialVisible = len(items)
	l.st.isLoading = false
	l.st.legacy = true
	l.mu.Unlock()

	l.report(domain.LoadProgress{
		Series: seriesID,
		Phase:  domain.PhaseLegacy,
		Items:  len(items),
		Total:  len(items),
	})

	l.logger.Info("legacy dataset active", "series", seriesID, "items", len(items))
	return domain.ActivateResult{Series: seriesID, FromCache: fromCache, Legacy: true, Items: len(items)}, nil
}
