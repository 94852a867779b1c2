package catalog

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/muralproject/mural/internal/codec"
	"github.com/muralproject/mural/internal/domain"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	adapter := codec.NewAdapter(codec.Base64Decoder{}, nil, 0, nil)
	return NewClient(adapter, nil)
}

func serve(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func blob(t *testing.T, text string) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString([]byte(text))
}

func TestFetchManifestPlaintext(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"generatedAt": "2026-01-01T00:00:00Z",
			"series": "desktop",
			"seriesName": "Desktop",
			"total": 12,
			"categoryCount": 2,
			"categories": [
				{"file": "nature.json", "label": "Nature", "count": 7},
				{"file": "abstract.json", "label": "Abstract", "count": 5}
			],
			"schema": 2
		}`))
	})

	c := newTestClient(t)
	m, err := c.FetchManifest(context.Background(), domain.SeriesConfig{ID: "desktop", IndexURL: srv.URL})
	if err != nil {
		t.Fatalf("FetchManifest: %v", err)
	}
	if m.Series != "desktop" || m.Total != 12 || len(m.Categories) != 2 {
		t.Errorf("manifest = %+v", m)
	}
	if m.Categories[0].File != "nature.json" || m.Categories[0].Count != 7 {
		t.Errorf("first category = %+v", m.Categories[0])
	}
}

func TestFetchManifestDecodesBlob(t *testing.T) {
	encoded := blob(t, `[{"file": "a.json", "label": "A", "count": 1}]`)
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"series": "desktop", "total": 1, "blob": "` + encoded + `"}`))
	})

	c := newTestClient(t)
	m, err := c.FetchManifest(context.Background(), domain.SeriesConfig{ID: "desktop", IndexURL: srv.URL})
	if err != nil {
		t.Fatalf("FetchManifest: %v", err)
	}
	if len(m.Categories) != 1 || m.Categories[0].File != "a.json" {
		t.Errorf("categories = %+v", m.Categories)
	}
}

func TestFetchManifestBadBlobDegradestoRawDocument(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"series": "desktop",
			"categories": [{"file": "plain.json", "label": "Plain", "count": 3}],
			"blob": "%%%garbage%%%"
		}`))
	})

	c := newTestClient(t)
	m, err := c.FetchManifest(context.Background(), domain.SeriesConfig{ID: "desktop", IndexURL: srv.URL})
	if err != nil {
		t.Fatalf("FetchManifest should degrade, got: %v", err)
	}
	if len(m.Categories) != 1 || m.Categories[0].File != "plain.json" {
		t.Errorf("categories = %+v, want plaintext index retained", m.Categories)
	}
}

func TestFetchManifestNoCategoryIndexIsStructural(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"series": "desktop", "total": 0}`))
	})

	c := newTestClient(t)
	_, err := c.FetchManifest(context.Background(), domain.SeriesConfig{ID: "desktop", IndexURL: srv.URL})
	var serr *domain.StructuralError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *domain.StructuralError", err)
	}
	if serr.Series != "desktop" {
		t.Errorf("StructuralError.Series = %q", serr.Series)
	}
}

func TestFetchManifestNonObjectIsStructural(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"just a string"`))
	})

	c := newTestClient(t)
	_, err := c.FetchManifest(context.Background(), domain.SeriesConfig{ID: "desktop", IndexURL: srv.URL})
	var serr *domain.StructuralError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *domain.StructuralError", err)
	}
}

func TestFetchManifestHTTPStatusIsFetchError(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})

	c := newTestClient(t)
	_, err := c.FetchManifest(context.Background(), domain.SeriesConfig{ID: "desktop", IndexURL: srv.URL})
	var ferr *domain.FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("error = %v, want *domain.FetchError", err)
	}
	if ferr.Status != http.StatusNotFound {
		t.Errorf("FetchError.Status = %d, want 404", ferr.Status)
	}
}

func TestFetchCategoryPlainEnvelope(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cats/nature.json" {
			t.Errorf("path = %q, want /cats/nature.json", r.URL.Path)
		}
		w.Write([]byte(`{"wallpapers": [{"id": "w1", "path": "n/w1.jpg"}, {"id": "w2", "path": "n/w2.jpg"}]}`))
	})

	c := newTestClient(t)
	series := domain.SeriesConfig{ID: "desktop", CategoryBaseURL: srv.URL + "/cats/"}
	items, err := c.FetchCategory(context.Background(), series, "nature.json")
	if err != nil {
		t.Fatalf("FetchCategory: %v", err)
	}
	if len(items) != 2 || items[0].ID != "w1" || items[1].ID != "w2" {
		t.Errorf("items = %+v", items)
	}
}

func TestFetchCategoryBareArray(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": "w1", "path": "w1.jpg"}]`))
	})

	c := newTestClient(t)
	series := domain.SeriesConfig{ID: "desktop", CategoryBaseURL: srv.URL}
	items, err := c.FetchCategory(context.Background(), series, "x.json")
	if err != nil {
		t.Fatalf("FetchCategory: %v", err)
	}
	if len(items) != 1 || items[0].ID != "w1" {
		t.Errorf("items = %+v", items)
	}
}

func TestFetchCategoryDecodesBlob(t *testing.T) {
	encoded := blob(t, `[{"id": "enc1", "path": "e/enc1.jpg"}]`)
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"payload": "` + encoded + `"}`))
	})

	c := newTestClient(t)
	series := domain.SeriesConfig{ID: "desktop", CategoryBaseURL: srv.URL}
	items, err := c.FetchCategory(context.Background(), series, "e.json")
	if err != nil {
		t.Fatalf("FetchCategory: %v", err)
	}
	if len(items) != 1 || items[0].ID != "enc1" {
		t.Errorf("items = %+v", items)
	}
}

func TestFetchCategoryGarbageBlobDegradesToEmpty(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"blob": "%%%garbage%%%"}`))
	})

	c := newTestClient(t)
	series := domain.SeriesConfig{ID: "desktop", CategoryBaseURL: srv.URL}
	items, err := c.FetchCategory(context.Background(), series, "bad.json")
	if err != nil {
		t.Fatalf("FetchCategory should degrade, got: %v", err)
	}
	if items == nil {
		t.Fatal("items = nil, want empty non-nil list")
	}
	if len(items) != 0 {
		t.Errorf("items = %+v, want empty", items)
	}
}

func TestFetchCategoryGarbageBlobDegradesToPlainData(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"wallpapers": [{"id": "plain1"}], "blob": "%%%garbage%%%"}`))
	})

	c := newTestClient(t)
	series := domain.SeriesConfig{ID: "desktop", CategoryBaseURL: srv.URL}
	items, err := c.FetchCategory(context.Background(), series, "mixed.json")
	if err != nil {
		t.Fatalf("FetchCategory: %v", err)
	}
	if len(items) != 1 || items[0].ID != "plain1" {
		t.Errorf("items = %+v, want plain fallback data", items)
	}
}

func TestFetchCategoryItemlessBlobLogsParseError(t *testing.T) {
	// The blob decodes fine but carries no items; the degrade log must
	// name the parse failure rather than a nil decode error.
	encoded := blob(t, `{"foo": 1}`)
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"wallpapers": [{"id": "plain1"}], "blob": "` + encoded + `"}`))
	})

	var buf bytes.Buffer
	adapter := codec.NewAdapter(codec.Base64Decoder{}, nil, 0, nil)
	c := NewClient(adapter, slog.New(slog.NewTextHandler(&buf, nil)))

	series := domain.SeriesConfig{ID: "desktop", CategoryBaseURL: srv.URL}
	items, err := c.FetchCategory(context.Background(), series, "itemless.json")
	if err != nil {
		t.Fatalf("FetchCategory: %v", err)
	}
	if len(items) != 1 || items[0].ID != "plain1" {
		t.Errorf("items = %+v, want plain fallback data", items)
	}
	if !strings.Contains(buf.String(), "decoded payload holds no items") {
		t.Errorf("degrade log missing the parse error:\n%s", buf.String())
	}
}

func TestFetchCategoryHTTPErrorFails(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	c := newTestClient(t)
	series := domain.SeriesConfig{ID: "desktop", CategoryBaseURL: srv.URL}
	_, err := c.FetchCategory(context.Background(), series, "x.json")
	var ferr *domain.FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("error = %v, want *domain.FetchError", err)
	}
}

func TestFetchLegacy(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"wallpapers": [{"id": "l1"}, {"id": "l2"}, {"id": "l3"}]}`))
	})

	c := newTestClient(t)
	series := domain.SeriesConfig{ID: "desktop", LegacyDataURL: srv.URL}
	items, err := c.FetchLegacy(context.Background(), series)
	if err != nil {
		t.Fatalf("FetchLegacy: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("len(items) = %d, want 3", len(items))
	}
}

func TestFetchLegacyWithoutURLIsStructural(t *testing.T) {
	c := newTestClient(t)
	_, err := c.FetchLegacy(context.Background(), domain.SeriesConfig{ID: "desktop"})
	var serr *domain.StructuralError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *domain.StructuralError", err)
	}
}
