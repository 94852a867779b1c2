package loader

import (
	"sort"

	"github.com/muralproject/mural/internal/domain"
)

// Snapshot is a consistent view of the loader state for UI consumers.
type Snapshot struct {
	Series              string
	Items               []domain.Item
	IsLoading           bool
	IsBackgroundLoading bool
	Legacy              bool
	VisibleTotal        int
	CategoriesLoaded    int
	CategoryCount       int
	Err                 error
}

// Snapshot returns the current loader state. Items is a copy; callers may
// hold it across background merges.
func (l *Loader) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	items := make([]domain.Item, len(l.st.items))
	copy(items, l.st.items)

	snap := Snapshot{
		Series:              l.st.series,
		Items:               items,
		IsLoading:           l.st.isLoading,
		IsBackgroundLoading: l.st.isBackground,
		Legacy:              l.st.legacy,
		VisibleTotal:        l.st.initialVisible,
		CategoriesLoaded:    len(l.st.loaded),
		Err:                 l.st.err,
	}
	if l.st.manifest != nil {
		snap.CategoryCount = len(l.st.manifest.Categories)
	}
	return snap
}

// Series returns the active series id ("" before the first activation).
func (l *Loader) Series() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.series
}

// Items returns the merged item list in manifest order. The returned slice
// is a copy.
func (l *Loader) Items() []domain.Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := make([]domain.Item, len(l.st.items))
	copy(items, l.st.items)
	return items
}

// IsLoading reports whether the index or initial window is still loading.
func (l *Loader) IsLoading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.isLoading
}

// IsBackgroundLoading reports whether background batches are still pending.
func (l *Loader) IsBackgroundLoading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.isBackground
}

// Err returns the error recorded by a failed activation, if any.
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.err
}

// VisibleTotal returns the stable item count for display: the initial-window
// size while background loading silently grows the real list, the final
// count afterwards.
func (l *Loader) VisibleTotal() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.initialVisible
}

// LoadedCategories returns the category files merged so far, sorted.
func (l *Loader) LoadedCategories() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	files := make([]string, 0, len(l.st.loaded))
	for file := range l.st.loaded {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

// GetByID returns the item with the given id from the merged list.
func (l *Loader) GetByID(id string) (domain.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOfLocked(id); i >= 0 {
		return l.st.items[i], nil
	}
	return domain.Item{}, domain.ErrItemNotFound
}

// IndexOf returns the merged-list position of an item, or -1.
func (l *Loader) IndexOf(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.indexOfLocked(id)
}

// Previous returns the item before id in the merged list.
func (l *Loader) Previous(id string) (domain.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOfLocked(id); i > 0 {
		return l.st.items[i-1], nil
	}
	return domain.Item{}, domain.ErrItemNotFound
}

// Next returns the item after id in the merged list.
func (l *Loader) Next(id string) (domain.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOfLocked(id); i >= 0 && i < len(l.st.items)-1 {
		return l.st.items[i+1], nil
	}
	return domain.Item{}, domain.ErrItemNotFound
}

func (l *Loader) indexOfLocked(id string) int {
	for i, item := range l.st.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
