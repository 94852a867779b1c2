package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/muralproject/mural/internal/domain"
)

// Bucket names
var (
	bucketManifests  = []byte("manifests")
	bucketCategories = []byte("categories")
	bucketLegacy     = []byte("legacy")
)

// CatalogStore implements domain.CacheStore using BoltDB.
//
// Category keys are hierarchical ({seriesID}/{file}) so one series' entries
// can be invalidated with a prefix scan without touching other series.
type CatalogStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewCatalogStore opens the cache database under dir. An empty dir selects
// memory-only mode (no persistence).
func NewCatalogStore(dir string) (*CatalogStore, error) {
	if dir == "" {
		return &CatalogStore{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "mural.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketManifests, bucketCategories, bucketLegacy} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &CatalogStore{db: db, cache: make(map[string][]byte)}, nil
}

func (s *CatalogStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *CatalogStore) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	// Read from BoltDB
	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *CatalogStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	// Update memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	// Write to BoltDB
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *CatalogStore) delete(bucket []byte, key string) {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b != nil {
			b.Delete([]byte(key))
		}
		return nil
	})
}

func (s *CatalogStore) deletePrefix(bucket []byte, prefix string) {
	s.mu.Lock()
	cachePrefix := string(bucket) + ":" + prefix
	for k := range s.cache {
		if strings.HasPrefix(k, cachePrefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	// Delete from BoltDB using prefix scan
	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		prefixBytes := []byte(prefix)
		for k, _ := c.Seek(prefixBytes); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// === Manifests ===

func (s *CatalogStore) GetManifest(seriesID string) (*domain.SeriesManifest, bool) {
	var manifest domain.SeriesManifest
	if !s.get(bucketManifests, seriesID, &manifest) {
		return nil, false
	}
	return &manifest, true
}

func (s *CatalogStore) SaveManifest(seriesID string, m *domain.SeriesManifest) error {
	return s.set(bucketManifests, seriesID, m)
}

// === Categories (hierarchical key: {seriesID}/{file}) ===

func (s *CatalogStore) GetCategory(seriesID, file string) ([]domain.Item, bool) {
	var items []domain.Item
	ok := s.get(bucketCategories, categoryKey(seriesID, file), &items)
	return items, ok
}

func (s *CatalogStore) SaveCategory(seriesID, file string, items []domain.Item) error {
	return s.set(bucketCategories, categoryKey(seriesID, file), items)
}

func categoryKey(seriesID, file string) string {
	return seriesID + "/" + file
}

// === Legacy monolithic payloads (distinct namespace from category shards) ===

func (s *CatalogStore) GetLegacy(seriesID string) ([]domain.Item, bool) {
	var items []domain.Item
	ok := s.get(bucketLegacy, seriesID, &items)
	return items, ok
}

func (s *CatalogStore) SaveLegacy(seriesID string, items []domain.Item) error {
	return s.set(bucketLegacy, seriesID, items)
}

// === Invalidation ===

// ClearSeries wipes the manifest, every category shard, and the legacy
// payload for one series; other series' entries are untouched.
func (s *CatalogStore) ClearSeries(seriesID string) {
	s.delete(bucketManifests, seriesID)
	s.deletePrefix(bucketCategories, seriesID+"/")
	s.delete(bucketLegacy, seriesID)
}

func (s *CatalogStore) ClearAll() {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketManifests, bucketCategories, bucketLegacy} {
			b := tx.Bucket(bucket)
			if b == nil {
				continue
			}
			c := b.Cursor()
			for k, _ := c.First(); k != nil; k, _ = c.Next() {
				if err := b.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
