package store

import (
	"testing"

	"github.com/muralproject/mural/internal/domain"
)

func newDiskStore(t *testing.T) *CatalogStore {
	t.Helper()
	s, err := NewCatalogStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewCatalogStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newMemoryStore(t *testing.T) *CatalogStore {
	t.Helper()
	s, err := NewCatalogStore("")
	if err != nil {
		t.Fatalf("NewCatalogStore: %v", err)
	}
	return s
}

func testManifest(seriesID string) *domain.SeriesManifest {
	return &domain.SeriesManifest{
		Series:        seriesID,
		SeriesName:    "Test " + seriesID,
		Total:         4,
		CategoryCount: 2,
		Categories: []domain.CategoryDescriptor{
			{File: "a.json", Label: "A", Count: 2},
			{File: "b.json", Label: "B", Count: 2},
		},
	}
}

func testItems(ids ...string) []domain.Item {
	items := make([]domain.Item, len(ids))
	for i, id := range ids {
		items[i] = domain.Item{ID: id, Path: id + ".jpg"}
	}
	return items
}

func TestManifestRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name  string
		store *CatalogStore
	}{
		{"disk", newDiskStore(t)},
		{"memory", newMemoryStore(t)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := tc.store.GetManifest("desktop"); ok {
				t.Fatal("GetManifest before save should miss")
			}
			if err := tc.store.SaveManifest("desktop", testManifest("desktop")); err != nil {
				t.Fatalf("SaveManifest: %v", err)
			}
			got, ok := tc.store.GetManifest("desktop")
			if !ok {
				t.Fatal("GetManifest after save should hit")
			}
			if got.Series != "desktop" || len(got.Categories) != 2 {
				t.Errorf("manifest = %+v", got)
			}
		})
	}
}

func TestCategoryRoundTripPreservesOrder(t *testing.T) {
	s := newDiskStore(t)

	want := testItems("c", "a", "b")
	if err := s.SaveCategory("desktop", "x.json", want); err != nil {
		t.Fatalf("SaveCategory: %v", err)
	}
	got, ok := s.GetCategory("desktop", "x.json")
	if !ok {
		t.Fatal("GetCategory should hit")
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID {
			t.Errorf("got[%d].ID = %q, want %q", i, got[i].ID, want[i].ID)
		}
	}
}

func TestCategoryKeysAreSeriesScoped(t *testing.T) {
	s := newDiskStore(t)

	s.SaveCategory("desktop", "a.json", testItems("d1"))
	s.SaveCategory("mobile", "a.json", testItems("m1"))

	got, ok := s.GetCategory("desktop", "a.json")
	if !ok || got[0].ID != "d1" {
		t.Errorf("desktop/a.json = %+v", got)
	}
	got, ok = s.GetCategory("mobile", "a.json")
	if !ok || got[0].ID != "m1" {
		t.Errorf("mobile/a.json = %+v", got)
	}
}

func TestLegacyNamespaceIsDistinct(t *testing.T) {
	s := newDiskStore(t)

	s.SaveCategory("desktop", "a.json", testItems("shard"))
	s.SaveLegacy("desktop", testItems("legacy1", "legacy2"))

	legacy, ok := s.GetLegacy("desktop")
	if !ok || len(legacy) != 2 || legacy[0].ID != "legacy1" {
		t.Errorf("legacy = %+v", legacy)
	}
	shard, ok := s.GetCategory("desktop", "a.json")
	if !ok || shard[0].ID != "shard" {
		t.Errorf("shard = %+v", shard)
	}
}

func TestClearSeriesLeavesOtherSeriesIntact(t *testing.T) {
	s := newDiskStore(t)

	s.SaveManifest("desktop", testManifest("desktop"))
	s.SaveCategory("desktop", "a.json", testItems("d1"))
	s.SaveCategory("desktop", "b.json", testItems("d2"))
	s.SaveLegacy("desktop", testItems("dl"))
	s.SaveManifest("mobile", testManifest("mobile"))
	s.SaveCategory("mobile", "a.json", testItems("m1"))

	s.ClearSeries("desktop")

	if _, ok := s.GetManifest("desktop"); ok {
		t.Error("desktop manifest should be cleared")
	}
	if _, ok := s.GetCategory("desktop", "a.json"); ok {
		t.Error("desktop category a.json should be cleared")
	}
	if _, ok := s.GetCategory("desktop", "b.json"); ok {
		t.Error("desktop category b.json should be cleared")
	}
	if _, ok := s.GetLegacy("desktop"); ok {
		t.Error("desktop legacy payload should be cleared")
	}

	if _, ok := s.GetManifest("mobile"); !ok {
		t.Error("mobile manifest should survive")
	}
	if _, ok := s.GetCategory("mobile", "a.json"); !ok {
		t.Error("mobile category should survive")
	}
}

func TestClearSeriesPrefixDoesNotOverreach(t *testing.T) {
	s := newDiskStore(t)

	// "desk" is a prefix of "desktop" only at the string level; the
	// hierarchical key separator keeps them apart.
	s.SaveCategory("desk", "a.json", testItems("short"))
	s.SaveCategory("desktop", "a.json", testItems("long"))

	s.ClearSeries("desk")

	if _, ok := s.GetCategory("desk", "a.json"); ok {
		t.Error("desk category should be cleared")
	}
	if _, ok := s.GetCategory("desktop", "a.json"); !ok {
		t.Error("desktop category should survive clearing desk")
	}
}

func TestClearAll(t *testing.T) {
	s := newDiskStore(t)

	s.SaveManifest("desktop", testManifest("desktop"))
	s.SaveCategory("desktop", "a.json", testItems("d1"))
	s.SaveLegacy("mobile", testItems("m1"))

	s.ClearAll()

	if _, ok := s.GetManifest("desktop"); ok {
		t.Error("manifest should be cleared")
	}
	if _, ok := s.GetCategory("desktop", "a.json"); ok {
		t.Error("category should be cleared")
	}
	if _, ok := s.GetLegacy("mobile"); ok {
		t.Error("legacy payload should be cleared")
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewCatalogStore(dir)
	if err != nil {
		t.Fatalf("NewCatalogStore: %v", err)
	}
	if err := s.SaveManifest("desktop", testManifest("desktop")); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewCatalogStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, ok := reopened.GetManifest("desktop")
	if !ok {
		t.Fatal("manifest should survive reopen")
	}
	if got.SeriesName != "Test desktop" {
		t.Errorf("manifest = %+v", got)
	}
}
