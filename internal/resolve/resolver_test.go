package resolve

import (
	"testing"

	"github.com/muralproject/mural/internal/domain"
)

func TestResolveSynthesizesFromRelativePaths(t *testing.T) {
	r := New("https://cdn.example.com/assets/", "42")

	item := domain.Item{
		ID:            "w-001",
		Path:          "desktop/full/w-001.jpg",
		ThumbnailPath: "/desktop/thumb/w-001.jpg",
		PreviewPath:   "desktop/preview/w-001.webp",
	}

	resolved := r.ResolveItem(item)

	if want := "https://cdn.example.com/assets/desktop/full/w-001.jpg?v=42"; resolved.URL != want {
		t.Errorf("URL = %q, want %q", resolved.URL, want)
	}
	if want := "https://cdn.example.com/assets/desktop/thumb/w-001.jpg?v=42"; resolved.ThumbnailURL != want {
		t.Errorf("ThumbnailURL = %q, want %q", resolved.ThumbnailURL, want)
	}
	// Download synthesizes from the full-image path
	if resolved.DownloadURL != resolved.URL {
		t.Errorf("DownloadURL = %q, want %q", resolved.DownloadURL, resolved.URL)
	}
	if resolved.PreviewURL == nil {
		t.Fatal("PreviewURL = nil, want resolved URL")
	}
	if want := "https://cdn.example.com/assets/desktop/preview/w-001.webp?v=42"; *resolved.PreviewURL != want {
		t.Errorf("PreviewURL = %q, want %q", *resolved.PreviewURL, want)
	}
}

func TestResolvePassesThroughAbsoluteURLs(t *testing.T) {
	r := New("https://cdn.example.com/assets", "7")

	preview := "https://old.example.com/p.webp"
	item := domain.Item{
		ID:           "w-002",
		Path:         "should/not/be/used.jpg",
		URL:          "https://old.example.com/full.jpg",
		ThumbnailURL: "https://old.example.com/thumb.jpg",
		PreviewURL:   &preview,
		DownloadURL:  "https://old.example.com/dl.jpg",
	}

	resolved := r.ResolveItem(item)

	if resolved.URL != "https://old.example.com/full.jpg" {
		t.Errorf("URL = %q, want pre-resolved value", resolved.URL)
	}
	if resolved.ThumbnailURL != "https://old.example.com/thumb.jpg" {
		t.Errorf("ThumbnailURL = %q, want pre-resolved value", resolved.ThumbnailURL)
	}
	if resolved.DownloadURL != "https://old.example.com/dl.jpg" {
		t.Errorf("DownloadURL = %q, want pre-resolved value", resolved.DownloadURL)
	}
	if resolved.PreviewURL == nil || *resolved.PreviewURL != preview {
		t.Errorf("PreviewURL = %v, want pre-resolved value", resolved.PreviewURL)
	}
}

func TestResolveMissingPathContract(t *testing.T) {
	r := New("https://cdn.example.com/assets", "")

	resolved := r.ResolveItem(domain.Item{ID: "bare"})

	// full/thumbnail/download resolve to empty string, preview to nil
	if resolved.URL != "" {
		t.Errorf("URL = %q, want empty string", resolved.URL)
	}
	if resolved.ThumbnailURL != "" {
		t.Errorf("ThumbnailURL = %q, want empty string", resolved.ThumbnailURL)
	}
	if resolved.DownloadURL != "" {
		t.Errorf("DownloadURL = %q, want empty string", resolved.DownloadURL)
	}
	if resolved.PreviewURL != nil {
		t.Errorf("PreviewURL = %q, want nil", *resolved.PreviewURL)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	r := New("https://cdn.example.com/assets", "v5")
	item := domain.Item{ID: "w-003", Path: "a/b.png"}

	first := *r.Resolve(item, domain.PathFull)
	for i := 0; i < 10; i++ {
		if got := *r.Resolve(item, domain.PathFull); got != first {
			t.Fatalf("resolution not deterministic: %q vs %q", got, first)
		}
	}
}

func TestResolveNoVersionOmitsQuery(t *testing.T) {
	r := New("https://cdn.example.com/assets", "")
	item := domain.Item{ID: "w-004", Path: "a/b.png"}

	if got, want := *r.Resolve(item, domain.PathFull), "https://cdn.example.com/assets/a/b.png"; got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}
}

func TestResolveSchemePathPassesThrough(t *testing.T) {
	r := New("https://cdn.example.com/assets", "1")
	item := domain.Item{ID: "w-005", Path: "https://other.example.com/x.jpg"}

	if got := *r.Resolve(item, domain.PathFull); got != "https://other.example.com/x.jpg" {
		t.Errorf("URL = %q, want scheme path untouched", got)
	}
}

func TestResolveItemsPreservesOrder(t *testing.T) {
	r := New("https://cdn.example.com/assets", "")
	items := []domain.Item{
		{ID: "a", Path: "a.jpg"},
		{ID: "b", Path: "b.jpg"},
		{ID: "c", Path: "c.jpg"},
	}

	resolved := r.ResolveItems(items)
	if len(resolved) != 3 {
		t.Fatalf("len = %d, want 3", len(resolved))
	}
	for i, id := range []string{"a", "b", "c"} {
		if resolved[i].ID != id {
			t.Errorf("resolved[%d].ID = %q, want %q", i, resolved[i].ID, id)
		}
	}
}
