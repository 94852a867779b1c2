// Package catalog fetches manifest and category shard documents from the
// remote wallpaper catalog. It owns the wire envelope handling (plaintext vs
// encoded blob shapes) but never caches; the cache layer sits above it.
package catalog

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/muralproject/mural/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Mural/1.0"
)

// Client implements domain.CatalogClient over HTTP.
type Client struct {
	httpClient *http.Client
	decoder    domain.PayloadDecoder
	logger     *slog.Logger
}

// NewClient creates a catalog client. decoder handles encoded payload blobs.
func NewClient(decoder domain.PayloadDecoder, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		decoder: decoder,
		logger:  logger,
	}
}

// fetchJSON performs a GET and returns the response body. Transport errors
// and non-success statuses both surface as *domain.FetchError; nothing is
// retried here.
func (c *Client) fetchJSON(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("catalog request", "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("catalog request failed", "url", url, "error", err)
		return nil, &domain.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("catalog request error", "url", url, "status", resp.StatusCode)
		return nil, &domain.FetchError{URL: url, Status: resp.StatusCode}
	}

	return body, nil
}

// FetchManifest fetches and decodes a series manifest document.
//
// A document carrying an encoded blob gets its category index decoded and
// substituted in. Decode failure here degrades to the raw document, since an
// unreadable but structurally valid manifest is still minimally usable.
// This is the only layer where a decode failure is absorbed silently.
func (c *Client) FetchManifest(ctx context.Context, series domain.SeriesConfig) (*domain.SeriesManifest, error) {
	body, err := c.fetchJSON(ctx, series.IndexURL)
	if err != nil {
		return nil, err
	}

	doc, err := parseManifestDocument(body)
	if err != nil {
		return nil, &domain.StructuralError{Series: series.ID, Reason: err.Error()}
	}

	manifest := doc.manifest(series.ID)

	if blob := doc.encoded(); blob != "" {
		decoded, err := c.decoder.DecodeJSON(ctx, series.ID, series.IndexURL, blob)
		if err != nil {
			c.logger.Warn("manifest blob decode failed, using raw document",
				"series", series.ID, "error", err)
		} else if categories, err := parseCategories(decoded); err != nil {
			c.logger.Warn("decoded manifest blob has no category index, using raw document",
				"series", series.ID, "error", err)
		} else {
			manifest.Categories = categories
		}
	}

	if doc.Categories == nil && doc.encoded() == "" {
		return nil, &domain.StructuralError{Series: series.ID, Reason: "document has no category index"}
	}

	c.logger.Debug("fetched manifest",
		"series", series.ID, "categories", len(manifest.Categories), "total", manifest.Total)

	return manifest, nil
}

// FetchCategory fetches one category shard and returns its raw (unresolved)
// items. A blob that decodes to garbage degrades to the plain shape when the
// document carries one, otherwise to an empty list. A single bad shard must
// not abort the series.
func (c *Client) FetchCategory(ctx context.Context, series domain.SeriesConfig, file string) ([]domain.Item, error) {
	url := joinURL(series.CategoryBaseURL, file)

	body, err := c.fetchJSON(ctx, url)
	if err != nil {
		return nil, err
	}

	items := c.decodeItemDocument(ctx, series.ID, file, body)
	c.logger.Debug("fetched category", "series", series.ID, "file", file, "count", len(items))
	return items, nil
}

// FetchLegacy fetches the monolithic full-dataset document for a series.
func (c *Client) FetchLegacy(ctx context.Context, series domain.SeriesConfig) ([]domain.Item, error) {
	if series.LegacyDataURL == "" {
		return nil, &domain.StructuralError{Series: series.ID, Reason: "no legacy data URL configured"}
	}

	body, err := c.fetchJSON(ctx, series.LegacyDataURL)
	if err != nil {
		return nil, err
	}

	items := c.decodeItemDocument(ctx, series.ID, series.LegacyDataURL, body)
	c.logger.Info("fetched legacy dataset", "series", series.ID, "count", len(items))
	return items, nil
}

// decodeItemDocument unwraps an item payload envelope: bare array, plain
// {wallpapers: [...]}, or an encoded blob that decodes to either.
func (c *Client) decodeItemDocument(ctx context.Context, seriesID, source string, body []byte) []domain.Item {
	doc, items, err := parseItemDocument(body)
	if err != nil {
		c.logger.Warn("unparseable item document, treating as empty",
			"series", seriesID, "source", source, "error", err)
		return []domain.Item{}
	}

	if doc == nil {
		// bare array shape
		return items
	}

	if blob := doc.encoded(); blob != "" {
		decoded, err := c.decoder.DecodeJSON(ctx, seriesID, source, blob)
		if err == nil {
			var decodedItems []domain.Item
			if decodedItems, err = parseItems(decoded); err == nil {
				return decodedItems
			}
		}
		c.logger.Warn("category blob decode failed, degrading to plain data",
			"series", seriesID, "source", source, "error", err)
	}

	if doc.Wallpapers == nil {
		return []domain.Item{}
	}
	return doc.Wallpapers
}

// joinURL builds the category document URL from the series base and file name.
func joinURL(base, file string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(file, "/")
}
