package docstore

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nibzard/taskspec/internal/tasks"
)

// Cache is an LRU cache of parsed documents in front of a ReadWriter.
// Entries are keyed by path and are valid only while the file's size and
// modification time are unchanged and the TTL has not run out. Callers always
// receive their own copy of a cached document.
type Cache struct {
	next ReadWriter

	mu      sync.Mutex
	items   map[string]*list.Element
	lru     *list.List
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	group   singleflight.Group

	hits   int
	misses int
}

type cacheItem struct {
	path        string
	fingerprint string
	doc         *tasks.Document
	expiresAt   time.Time
}

// CacheStats reports cache usage.
type CacheStats struct {
	Size    int
	MaxSize int
	Hits    int
	Misses  int
}

// NewCache wraps next. A maxSize of zero or less disables caching; a ttl of
// zero or less means entries only expire when the file changes.
func NewCache(next ReadWriter, maxSize int, ttl time.Duration) *Cache {
	return &Cache{
		next:    next,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Read returns the parsed document at path, from cache when the file is
// unchanged. Concurrent misses for the same file version share one parse.
func (c *Cache) Read(ctx context.Context, path string) (*tasks.Document, error) {
	if c.maxSize <= 0 {
		return c.next.Read(ctx, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat task document: %w", err)
	}
	fp := fingerprint(path, info)

	if doc := c.get(path, fp); doc != nil {
		return doc.Clone(), nil
	}

	v, err, _ := c.group.Do(fp, func() (interface{}, error) {
		doc, err := c.next.Read(ctx, path)
		if err != nil {
			return nil, err
		}
		c.set(path, fp, doc)
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*tasks.Document).Clone(), nil
}

// Write passes through to the underlying writer and drops the cached entry.
func (c *Cache) Write(ctx context.Context, path, content string) error {
	err := c.next.Write(ctx, path, content)
	c.Invalidate(path)
	return err
}

// Invalidate drops the entry for path.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[path]; ok {
		c.removeElement(elem)
	}
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.lru = list.New()
}

// Stats returns cache statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Size:    c.lru.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
	}
}

func (c *Cache) get(path, fp string) *tasks.Document {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[path]
	if !ok {
		c.misses++
		return nil
	}
	item := elem.Value.(*cacheItem)
	if item.fingerprint != fp || c.expired(item) {
		c.removeElement(elem)
		c.misses++
		return nil
	}
	c.lru.MoveToFront(elem)
	c.hits++
	return item.doc
}

func (c *Cache) set(path, fp string, doc *tasks.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &cacheItem{path: path, fingerprint: fp, doc: doc.Clone()}
	if c.ttl > 0 {
		item.expiresAt = c.now().Add(c.ttl)
	}

	if elem, ok := c.items[path]; ok {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	c.items[path] = c.lru.PushFront(item)
	for c.lru.Len() > c.maxSize {
		c.removeElement(c.lru.Back())
	}
}

func (c *Cache) expired(item *cacheItem) bool {
	return !item.expiresAt.IsZero() && c.now().After(item.expiresAt)
}

func (c *Cache) removeElement(elem *list.Element) {
	c.lru.Remove(elem)
	delete(c.items, elem.Value.(*cacheItem).path)
}

func fingerprint(path string, info fs.FileInfo) string {
	return fmt.Sprintf("%s:%d:%d", path, info.Size(), info.ModTime().UnixNano())
}
