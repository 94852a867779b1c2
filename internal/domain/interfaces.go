package domain

import "context"

// CatalogClient performs network fetches against the remote catalog
// (implemented by the catalog package). Implementations return *FetchError
// on non-success HTTP status or transport failure and never cache.
type CatalogClient interface {
	// FetchManifest fetches and decodes a series manifest. A manifest whose
	// payload blob fails to decode degrades to the raw document; a manifest
	// without a usable category index fails with *StructuralError.
	FetchManifest(ctx context.Context, series SeriesConfig) (*SeriesManifest, error)

	// FetchCategory fetches one category shard and returns its raw items.
	// A decode failure degrades to the plain shape when present, otherwise
	// to an empty list; it never fails the call.
	FetchCategory(ctx context.Context, series SeriesConfig, file string) ([]Item, error)

	// FetchLegacy fetches the monolithic full-dataset document for a series.
	FetchLegacy(ctx context.Context, series SeriesConfig) ([]Item, error)
}

// PayloadDecoder turns an opaque encoded wire blob into decoded JSON text.
// series/source identify the payload for diagnostics on failure.
type PayloadDecoder interface {
	DecodeJSON(ctx context.Context, series, source, blob string) ([]byte, error)
}

// Resolver resolves one asset variant of an item to an absolute URL.
type Resolver interface {
	// Resolve returns the URL for the given kind, or nil when the item has
	// no such variant. For PathPreview nil means "no preview exists"; for
	// the other kinds a missing variant resolves to the empty string.
	Resolve(item Item, kind PathKind) *string

	// ResolveItem returns a copy of item with all URL fields populated.
	ResolveItem(item Item) Item
}

// CacheStore persists decoded manifests and resolved category payloads
// (BoltDB + memory). Values are write-once per key; invalidation is
// wholesale per series or global.
type CacheStore interface {
	GetManifest(seriesID string) (*SeriesManifest, bool)
	SaveManifest(seriesID string, m *SeriesManifest) error

	GetCategory(seriesID, file string) ([]Item, bool)
	SaveCategory(seriesID, file string, items []Item) error

	// Legacy monolithic payloads live in a distinct namespace so the two
	// strategies never collide.
	GetLegacy(seriesID string) ([]Item, bool)
	SaveLegacy(seriesID string, items []Item) error

	ClearSeries(seriesID string)
	ClearAll()

	Close() error
}
