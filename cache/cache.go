// Package cache stores solved screenshot jobs so an identical question is
// answered without another provider call.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	"go.aimuz.me/interviewcoder/internal/types"
)

// DefaultTTL is how long a cached solution stays valid.
const DefaultTTL = 7 * 24 * time.Hour

const hotEntries = 128

// Entry is one cached solution.
type Entry struct {
	Solution  types.Solution `json:"solution"`
	CreatedAt time.Time      `json:"createdAt"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// Cache is a badger store with an in-memory LRU in front of it.
type Cache struct {
	db  *badger.DB
	hot *lru.Cache[string, *Entry]
}

// New opens (or creates) a cache under dir.
func New(dir string) (*Cache, error) {
	return open(badger.DefaultOptions(dir).WithLogger(nil))
}

// NewInMemory creates a cache that is never written to disk.
func NewInMemory() (*Cache, error) {
	return open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
}

func open(opts badger.Options) (*Cache, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	hot, err := lru.New[string, *Entry](hotEntries)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Cache{db: db, hot: hot}, nil
}

// Get returns the entry for key if present and not expired.
func (c *Cache) Get(key string) (*Entry, bool) {
	if e, ok := c.hot.Get(key); ok {
		if time.Now().Before(e.ExpiresAt) {
			return e, true
		}
		c.hot.Remove(key)
	}

	var entry Entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return json.Unmarshal(val, &entry)
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			slog.Warn("read cache entry", "error", err)
		}
		return nil, false
	}

	c.hot.Add(key, &entry)
	return &entry, true
}

// Set stores entry under key for ttl.
func (c *Cache) Set(key string, entry *Entry, ttl time.Duration) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.ExpiresAt = entry.CreatedAt.Add(ttl)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), data).WithTTL(ttl))
	})
	if err != nil {
		return fmt.Errorf("write entry: %w", err)
	}

	c.hot.Add(key, entry)
	return nil
}

// Purge removes every entry.
func (c *Cache) Purge() error {
	c.hot.Purge()
	if err := c.db.DropAll(); err != nil {
		return fmt.Errorf("drop all: %w", err)
	}
	return nil
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}

// GenerateKey hashes parts into a stable key. Parts are length-prefixed so
// ("ab","c") and ("a","bc") differ.
func GenerateKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:", len(p))
		h.Write([]byte(p))
	}
	return "solution:" + hex.EncodeToString(h.Sum(nil))
}

// ImageKey derives a key from solver settings and screenshot bytes.
func ImageKey(solver, language, interviewType string, images [][]byte) string {
	parts := []string{strings.ToLower(solver), strings.ToLower(language), strings.ToLower(interviewType)}
	for _, img := range images {
		sum := sha256.Sum256(img)
		parts = append(parts, hex.EncodeToString(sum[:]))
	}
	return GenerateKey(parts...)
}
