// Package loader orchestrates progressive series loading: an initial window
// of category shards fetched before first paint, the remainder merged in
// throttled background batches behind a stable visible count.
package loader

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/muralproject/mural/internal/cache"
	"github.com/muralproject/mural/internal/domain"
)

const (
	defaultInitialWindow = 3
	defaultBatchSize     = 3
	defaultBatchPause    = 150 * time.Millisecond
)

// Options tunes the loading schedule. Zero values select the defaults.
type Options struct {
	InitialWindow int           // categories fetched before first paint
	BatchSize     int           // categories per background batch
	BatchPause    time.Duration // pause between background batches
}

func (o Options) withDefaults() Options {
	if o.InitialWindow <= 0 {
		o.InitialWindow = defaultInitialWindow
	}
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.BatchPause <= 0 {
		o.BatchPause = defaultBatchPause
	}
	return o
}

// state is the per-series transient loader state. Switching series replaces
// the whole value; generation stamps make stale background merges inert.
type state struct {
	generation uint64

	series   string
	manifest *domain.SeriesManifest
	items    []domain.Item
	loaded   map[string]bool // category files merged so far

	isLoading    bool
	isBackground bool
	legacy       bool

	initialVisible int // stable count shown while background loading grows items
	err            error

	bgDone chan struct{} // closed when this activation's background work ends
}

// Loader is the progressive loading state machine. One loader serves one
// active series at a time; all methods are safe for concurrent use.
type Loader struct {
	caches *cache.Service
	logger *slog.Logger
	opts   Options

	onProgress domain.ProgressFunc

	mu       sync.Mutex
	st       state
	bgCancel context.CancelFunc
}

// New creates a loader over the cache service.
func New(caches *cache.Service, opts Options, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		caches: caches,
		logger: logger,
		opts:   opts.withDefaults(),
	}
}

// SetProgressFunc registers a progress callback. Must be set before the
// first Activate.
func (l *Loader) SetProgressFunc(fn domain.ProgressFunc) {
	l.mu.Lock()
	l.onProgress = fn
	l.mu.Unlock()
}

// Activate loads a series: manifest, then the initial category window, then
// schedules the remainder in background batches without blocking the caller.
// Re-activating an already-loaded series without force is a no-op.
func (l *Loader) Activate(ctx context.Context, seriesID string, force bool) (domain.ActivateResult, error) {
	l.mu.Lock()
	if !force && l.st.series == seriesID && !l.st.isLoading && len(l.st.items) > 0 {
		res := domain.ActivateResult{
			Series:     seriesID,
			Legacy:     l.st.legacy,
			Items:      len(l.st.items),
			Background: l.st.isBackground,
		}
		l.mu.Unlock()
		l.logger.Debug("series already active", "series", seriesID)
		return res, nil
	}

	// Cancel any prior activation's background batches; the generation
	// stamp makes whatever already settled a harmless no-op.
	if l.bgCancel != nil {
		l.bgCancel()
		l.bgCancel = nil
	}
	oldDone := l.st.bgDone
	gen := l.st.generation + 1
	l.st = state{
		generation: gen,
		series:     seriesID,
		loaded:     make(map[string]bool),
		isLoading:  true,
	}
	l.mu.Unlock()

	// Let the superseded fill settle before fetching. Its cancelled
	// in-flight fetches hold the coalescing slots, and joining one hands
	// this activation a context.Canceled failure for a live category.
	if oldDone != nil {
		<-oldDone
	}

	l.logger.Info("activating series", "series", seriesID, "force", force)

	fromCache := l.caches.HasIndex(seriesID)
	manifest, err := l.caches.GetIndex(ctx, seriesID)
	if err != nil {
		var structural *domain.StructuralError
		if errors.As(err, &structural) {
			l.logger.Warn("manifest structurally invalid, falling back to legacy load",
				"series", seriesID, "reason", structural.Reason)
			return l.activateLegacy(ctx, seriesID, gen)
		}
		l.failActivation(gen, seriesID, err)
		return domain.ActivateResult{}, err
	}

	l.report(domain.LoadProgress{
		Series:        seriesID,
		Phase:         domain.PhaseIndex,
		Total:         manifest.Total,
		CategoryCount: len(manifest.Categories),
	})

	window, remainder := partition(manifest.Categories, l.opts.InitialWindow)

	for _, desc := range window {
		if !l.caches.HasCategory(seriesID, desc.File) {
			fromCache = false
		}
	}

	results := l.fetchCategories(ctx, seriesID, window)
	for _, r := range results {
		// Without an initial slice there is nothing useful to show, so
		// initial-window failures surface instead of degrading.
		if r.err != nil {
			l.failActivation(gen, seriesID, r.err)
			return domain.ActivateResult{}, r.err
		}
	}

	l.mu.Lock()
	if l.st.generation != gen {
		// A newer activation replaced this one while the window was in flight
		l.mu.Unlock()
		return domain.ActivateResult{}, nil
	}
	for _, r := range results {
		l.st.items = append(l.st.items, labelItems(r.items, r.desc.DisplayLabel())...)
		l.st.loaded[r.desc.File] = true
	}
	l.st.manifest = manifest
	l.st.initialVisible = len(l.st.items)
	l.st.isLoading = false

	res := domain.ActivateResult{
		Series:     seriesID,
		FromCache:  fromCache,
		Items:      len(l.st.items),
		Background: len(remainder) > 0,
	}
	progress := domain.LoadProgress{
		Series:           seriesID,
		Phase:            domain.PhaseInitial,
		Items:            len(l.st.items),
		Total:            manifest.Total,
		CategoriesLoaded: len(l.st.loaded),
		CategoryCount:    len(manifest.Categories),
		Background:       len(remainder) > 0,
	}

	if len(remainder) > 0 {
		l.st.isBackground = true
		done := make(chan struct{})
		l.st.bgDone = done

		bgCtx, cancel := context.WithCancel(context.Background())
		l.bgCancel = cancel
		go l.backgroundFill(bgCtx, gen, seriesID, remainder, done)
	}
	l.mu.Unlock()

	l.report(progress)
	l.logger.Info("initial window loaded",
		"series", seriesID, "items", res.Items, "remaining", len(remainder))
	return res, nil
}

// backgroundFill merges the remaining categories batch by batch, pausing
// between batches so low-end terminals keep rendering smoothly.
func (l *Loader) backgroundFill(ctx context.Context, gen uint64, seriesID string, remainder []domain.CategoryDescriptor, done chan struct{}) {
	defer close(done)
	l.loadBatches(ctx, gen, seriesID, remainder, l.opts.BatchPause)
}

// loadBatches runs the batching algorithm shared by background fill and
// LoadAll. Batches preserve manifest order across and within batches; a
// single category failure is logged and the batch continues.
func (l *Loader) loadBatches(ctx context.Context, gen uint64, seriesID string, categories []domain.CategoryDescriptor, pause time.Duration) {
	batches := chunk(categories, l.opts.BatchSize)

	for bi, batch := range batches {
		if ctx.Err() != nil {
			return
		}

		// Defend against overlapping activations: skip anything a
		// concurrent path already merged.
		l.mu.Lock()
		if l.st.generation != gen {
			l.mu.Unlock()
			return
		}
		filtered := batch[:0:0]
		for _, desc := range batch {
			if !l.st.loaded[desc.File] {
				filtered = append(filtered, desc)
			}
		}
		l.mu.Unlock()

		if len(filtered) == 0 {
			continue
		}

		results := l.fetchCategories(ctx, seriesID, filtered)

		var progress domain.LoadProgress
		l.mu.Lock()
		if l.st.generation != gen {
			l.mu.Unlock()
			return
		}
		// One atomic append per batch keeps consumers from observing a
		// half-merged batch. The loaded recheck covers the window where a
		// concurrent path merged this file after the pre-fetch filter ran.
		for _, r := range results {
			if r.err != nil {
				l.logger.Warn("background category failed",
					"series", seriesID, "file", r.desc.File, "error", r.err)
				continue
			}
			if l.st.loaded[r.desc.File] {
				continue
			}
			l.st.items = append(l.st.items, labelItems(r.items, r.desc.DisplayLabel())...)
			l.st.loaded[r.desc.File] = true
		}
		progress = l.progressLocked(domain.PhaseBackground)
		l.mu.Unlock()

		l.report(progress)

		if bi < len(batches)-1 && pause > 0 {
			select {
			case <-time.After(pause):
			case <-ctx.Done():
				return
			}
		}
	}

	var progress domain.LoadProgress
	l.mu.Lock()
	if l.st.generation != gen {
		l.mu.Unlock()
		return
	}
	l.st.isBackground = false
	l.st.initialVisible = len(l.st.items)
	progress = l.progressLocked(domain.PhaseDone)
	l.mu.Unlock()

	l.report(progress)
	l.logger.Info("background loading complete", "series", seriesID, "items", progress.Items)
}

// LoadAll forces every not-yet-loaded category of the active series to load
// immediately, blocking until done. Activates the series first if needed.
func (l *Loader) LoadAll(ctx context.Context, seriesID string) error {
	l.mu.Lock()
	active := l.st.series == seriesID && l.st.manifest != nil && !l.st.isLoading
	l.mu.Unlock()

	if !active {
		if _, err := l.Activate(ctx, seriesID, false); err != nil {
			return err
		}
	}

	// Stop the throttled background fill and let it settle; this path
	// takes over its remaining work. Recomputing the remainder before the
	// fill exits would join its cancelled fetches and drop categories.
	l.mu.Lock()
	var done chan struct{}
	if l.st.series == seriesID {
		if l.bgCancel != nil {
			l.bgCancel()
			l.bgCancel = nil
		}
		done = l.st.bgDone
	}
	l.mu.Unlock()
	if done != nil {
		<-done
	}

	l.mu.Lock()
	if l.st.series != seriesID || l.st.manifest == nil {
		// Legacy activations carry no manifest; everything is loaded already
		l.mu.Unlock()
		return nil
	}
	gen := l.st.generation
	var remaining []domain.CategoryDescriptor
	for _, desc := range l.st.manifest.Categories {
		if !l.st.loaded[desc.File] {
			remaining = append(remaining, desc)
		}
	}
	if len(remaining) == 0 {
		l.mu.Unlock()
		return nil
	}
	l.st.isBackground = true
	l.mu.Unlock()

	l.loadBatches(ctx, gen, seriesID, remaining, 0)
	return nil
}

// ClearCache wipes cached manifests and payloads. With no arguments the
// whole cache goes; otherwise only the named series.
func (l *Loader) ClearCache(seriesIDs ...string) {
	l.caches.Clear(seriesIDs...)
}

// WaitBackground blocks until the current activation's background batches
// finish. Returns immediately when none are running.
func (l *Loader) WaitBackground() {
	l.mu.Lock()
	done := l.st.bgDone
	l.mu.Unlock()
	if done != nil {
		<-done
	}
}

// failActivation records an error-bearing ready state with an empty list.
func (l *Loader) failActivation(gen uint64, seriesID string, err error) {
	l.mu.Lock()
	if l.st.generation == gen {
		l.st.isLoading = false
		l.st.isBackground = false
		l.st.err = err
		l.st.items = nil
	}
	l.mu.Unlock()
	l.logger.Error("series activation failed", "series", seriesID, "error", err)
}

// progressLocked snapshots progress fields; caller holds l.mu.
func (l *Loader) progressLocked(phase domain.LoadPhase) domain.LoadProgress {
	p := domain.LoadProgress{
		Series:           l.st.series,
		Phase:            phase,
		Items:            len(l.st.items),
		CategoriesLoaded: len(l.st.loaded),
		Background:       l.st.isBackground,
	}
	if l.st.manifest != nil {
		p.Total = l.st.manifest.Total
		p.CategoryCount = len(l.st.manifest.Categories)
	}
	return p
}

func (l *Loader) report(p domain.LoadProgress) {
	l.mu.Lock()
	fn := l.onProgress
	l.mu.Unlock()
	if fn != nil {
		fn(p)
	}
}

// categoryResult pairs one descriptor with its fetch outcome.
type categoryResult struct {
	desc  domain.CategoryDescriptor
	items []domain.Item
	err   error
}

// fetchCategories fetches one batch concurrently. Results come back in
// input (manifest) order regardless of completion order.
func (l *Loader) fetchCategories(ctx context.Context, seriesID string, batch []domain.CategoryDescriptor) []categoryResult {
	results := make([]categoryResult, len(batch))
	wg := conc.NewWaitGroup()
	for i, desc := range batch {
		i, desc := i, desc
		wg.Go(func() {
			items, err := l.caches.GetCategory(ctx, seriesID, desc.File)
			results[i] = categoryResult{desc: desc, items: items, err: err}
		})
	}
	wg.Wait()
	return results
}

// labelItems copies items with the category label stamped on, leaving the
// cached entries untouched.
func labelItems(items []domain.Item, label string) []domain.Item {
	labeled := make([]domain.Item, len(items))
	for i, item := range items {
		item.Category = label
		labeled[i] = item
	}
	return labeled
}

// partition splits categories into the initial window and the remainder.
func partition(categories []domain.CategoryDescriptor, window int) ([]domain.CategoryDescriptor, []domain.CategoryDescriptor) {
	if len(categories) <= window {
		return categories, nil
	}
	return categories[:window], categories[window:]
}

// chunk splits categories into fixed-size batches, preserving order.
func chunk(categories []domain.CategoryDescriptor, size int) [][]domain.CategoryDescriptor {
	var batches [][]domain.CategoryDescriptor
	for start := 0; start < len(categories); start += size {
		end := start + size
		if end > len(categories) {
			end = len(categories)
		}
		batches = append(batches, categories[start:end])
	}
	return batches
}
