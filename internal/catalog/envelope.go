package catalog

import (
	"encoding/json"
	"errors"

	"github.com/muralproject/mural/internal/domain"
)

// manifestDocument is the wire envelope for a series manifest: either the
// plaintext manifest shape, or the same header with the category index
// packed into an encoded blob.
type manifestDocument struct {
	GeneratedAt   string                      `json:"generatedAt"`
	Series        string                      `json:"series"`
	SeriesName    string                      `json:"seriesName"`
	Total         int                         `json:"total"`
	CategoryCount int                         `json:"categoryCount"`
	Categories    []domain.CategoryDescriptor `json:"categories"`
	Schema        int                         `json:"schema"`
	Env           string                      `json:"env"`

	Blob    string `json:"blob"`
	Payload string `json:"payload"`
}

// encoded returns the encoded payload string, whichever field carries it.
func (d *manifestDocument) encoded() string {
	if d.Blob != "" {
		return d.Blob
	}
	return d.Payload
}

// manifest builds the domain manifest from the plaintext envelope fields.
func (d *manifestDocument) manifest(seriesID string) *domain.SeriesManifest {
	series := d.Series
	if series == "" {
		series = seriesID
	}
	return &domain.SeriesManifest{
		GeneratedAt:   d.GeneratedAt,
		Series:        series,
		SeriesName:    d.SeriesName,
		Total:         d.Total,
		CategoryCount: d.CategoryCount,
		Categories:    d.Categories,
		Schema:        d.Schema,
		Env:           d.Env,
	}
}

func parseManifestDocument(body []byte) (*manifestDocument, error) {
	var doc manifestDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.New("document is not a JSON object")
	}
	return &doc, nil
}

// itemDocument is the wire envelope for a category shard or legacy dataset:
// {wallpapers: [...]} or an encoded blob holding the same.
type itemDocument struct {
	Wallpapers []domain.Item `json:"wallpapers"`
	Blob       string        `json:"blob"`
	Payload    string        `json:"payload"`
}

func (d *itemDocument) encoded() string {
	if d.Blob != "" {
		return d.Blob
	}
	return d.Payload
}

// parseItemDocument handles both document shapes. For a bare array it
// returns (nil, items, nil); for an object it returns the envelope.
func parseItemDocument(body []byte) (*itemDocument, []domain.Item, error) {
	var items []domain.Item
	if err := json.Unmarshal(body, &items); err == nil {
		return nil, items, nil
	}

	var doc itemDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, nil, errors.New("document is neither an item array nor an object")
	}
	return &doc, nil, nil
}

// parseItems parses decoded blob content: a bare item array or the plain
// {wallpapers: [...]} shape.
func parseItems(data []byte) ([]domain.Item, error) {
	var items []domain.Item
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}

	var doc itemDocument
	if err := json.Unmarshal(data, &doc); err != nil || doc.Wallpapers == nil {
		return nil, errors.New("decoded payload holds no items")
	}
	return doc.Wallpapers, nil
}

// parseCategories parses a decoded manifest blob: a bare descriptor array or
// a full manifest object.
func parseCategories(data []byte) ([]domain.CategoryDescriptor, error) {
	var categories []domain.CategoryDescriptor
	if err := json.Unmarshal(data, &categories); err == nil {
		return categories, nil
	}

	var doc manifestDocument
	if err := json.Unmarshal(data, &doc); err != nil || doc.Categories == nil {
		return nil, errors.New("decoded payload holds no category index")
	}
	return doc.Categories, nil
}
