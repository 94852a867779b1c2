package domain

import "fmt"

// PathKind selects which asset variant of an item a URL is resolved for.
type PathKind int

const (
	PathFull PathKind = iota
	PathThumbnail
	PathPreview
	PathDownload
)

// Item represents a single wallpaper record inside a series.
//
// The relative *Path fields come straight off the wire; the *URL fields are
// populated by URL resolution before an item ever reaches a merged list.
// PreviewURL stays nil when the item has no preview variant at all; the UI
// uses that to decide whether a preview affordance exists.
type Item struct {
	ID string `json:"id"`

	// Relative asset paths (may be empty on pre-resolved documents)
	Path          string `json:"path,omitempty"`
	ThumbnailPath string `json:"thumbnailPath,omitempty"`
	PreviewPath   string `json:"previewPath,omitempty"`

	// Resolved absolute URLs
	URL          string  `json:"url,omitempty"`
	ThumbnailURL string  `json:"thumbnailUrl,omitempty"`
	PreviewURL   *string `json:"previewUrl,omitempty"`
	DownloadURL  string  `json:"downloadUrl,omitempty"`

	Format string `json:"format,omitempty"`
	Size   int64  `json:"size,omitempty"` // File size in bytes

	// Category label the item was merged from (set by the loader for display)
	Category string `json:"category,omitempty"`
}

// HasPreview returns true if a preview variant was resolved for this item.
func (i Item) HasPreview() bool {
	return i.PreviewURL != nil
}

// FormattedSize returns the file size in a human-readable format.
func (i Item) FormattedSize() string {
	if i.Size <= 0 {
		return ""
	}
	const (
		mb = 1024 * 1024
		kb = 1024
	)
	switch {
	case i.Size >= mb:
		return fmt.Sprintf("%.1f MB", float64(i.Size)/float64(mb))
	case i.Size >= kb:
		return fmt.Sprintf("%d KB", i.Size/kb)
	default:
		return fmt.Sprintf("%d B", i.Size)
	}
}

// CategoryDescriptor is one entry inside a series manifest. Manifest order is
// significant: it defines merge order and the initial-window split.
type CategoryDescriptor struct {
	File  string `json:"file"`
	Label string `json:"label,omitempty"`
	Count int    `json:"count,omitempty"`
}

// DisplayLabel returns the label, falling back to the shard file name.
func (c CategoryDescriptor) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return c.File
}

// SeriesManifest is the per-series index document listing category shards.
// Immutable once fetched; owned by the series index cache.
type SeriesManifest struct {
	GeneratedAt   string               `json:"generatedAt,omitempty"`
	Series        string               `json:"series"`
	SeriesName    string               `json:"seriesName,omitempty"`
	Total         int                  `json:"total,omitempty"`
	CategoryCount int                  `json:"categoryCount,omitempty"`
	Categories    []CategoryDescriptor `json:"categories"`
	Schema        int                  `json:"schema,omitempty"`
	Env           string               `json:"env,omitempty"`
}

// SeriesConfig is the static configuration for one content series.
type SeriesConfig struct {
	ID              string // Series identifier (e.g. "desktop")
	Name            string // Display name
	IndexURL        string // Manifest document URL
	CategoryBaseURL string // Base URL category shard files are fetched under
	LegacyDataURL   string // Optional monolithic full-dataset URL (fallback)
}

// SeriesTable is the static series configuration, keyed by series id.
// Loaded once at startup; read-only afterwards.
type SeriesTable map[string]SeriesConfig

// Lookup validates a series id against the table.
func (t SeriesTable) Lookup(id string) (SeriesConfig, error) {
	cfg, ok := t[id]
	if !ok {
		return SeriesConfig{}, fmt.Errorf("%w: %q", ErrUnknownSeries, id)
	}
	return cfg, nil
}

// IDs returns the configured series ids in no particular order.
func (t SeriesTable) IDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	return ids
}
