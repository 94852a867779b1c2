package domain

import (
	"errors"
	"testing"
)

func TestItemHasPreview(t *testing.T) {
	if (Item{}).HasPreview() {
		t.Error("item without preview URL reports HasPreview")
	}
	url := "https://cdn.x/p.webp"
	if !(Item{PreviewURL: &url}).HasPreview() {
		t.Error("item with preview URL reports no preview")
	}
}

func TestItemFormattedSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, ""},
		{-1, ""},
		{512, "512 B"},
		{2048, "2 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
		{1536 * 1024, "1.5 MB"},
	}
	for _, tc := range tests {
		if got := (Item{Size: tc.size}).FormattedSize(); got != tc.want {
			t.Errorf("FormattedSize(%d) = %q, want %q", tc.size, got, tc.want)
		}
	}
}

func TestCategoryDisplayLabel(t *testing.T) {
	if got := (CategoryDescriptor{File: "nature.json", Label: "Nature"}).DisplayLabel(); got != "Nature" {
		t.Errorf("DisplayLabel = %q, want Nature", got)
	}
	if got := (CategoryDescriptor{File: "nature.json"}).DisplayLabel(); got != "nature.json" {
		t.Errorf("DisplayLabel fallback = %q, want nature.json", got)
	}
}

func TestSeriesTableLookup(t *testing.T) {
	table := SeriesTable{"desktop": {ID: "desktop", Name: "Desktop"}}

	cfg, err := table.Lookup("desktop")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if cfg.Name != "Desktop" {
		t.Errorf("cfg = %+v", cfg)
	}

	_, err = table.Lookup("tablet")
	if !errors.Is(err, ErrUnknownSeries) {
		t.Errorf("error = %v, want ErrUnknownSeries", err)
	}
}

func TestErrorUnwrapping(t *testing.T) {
	cause := errors.New("connection refused")

	var err error = &FetchError{URL: "https://x/idx.json", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("FetchError does not unwrap to its cause")
	}

	err = &DecodeError{Series: "desktop", Source: "index", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("DecodeError does not unwrap to its cause")
	}

	var ferr *FetchError
	wrapped := &DecodeError{Series: "desktop", Err: &FetchError{Status: 500}}
	if !errors.As(wrapped, &ferr) {
		t.Error("errors.As does not reach the nested FetchError")
	}
}

func TestErrorMessages(t *testing.T) {
	ferr := &FetchError{URL: "https://x/idx.json", Status: 404}
	if ferr.Error() == "" {
		t.Error("FetchError has empty message")
	}
	serr := &StructuralError{Series: "desktop", Reason: "no category index"}
	if serr.Error() == "" {
		t.Error("StructuralError has empty message")
	}
}
