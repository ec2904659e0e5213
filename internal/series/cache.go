package series

import (
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CacheObserver is told about lookups and parses. *metrics.Metrics implements it.
type CacheObserver interface {
	CacheHit()
	CacheMiss()
	SourceLoaded(rows, unparseable int, err error)
}

type nopObserver struct{}

func (nopObserver) CacheHit()                    {}
func (nopObserver) CacheMiss()                   {}
func (nopObserver) SourceLoaded(int, int, error) {}

// Cache holds one load result per source path. A source is parsed again only when its
// fingerprint (size and modification time) changes.
type Cache struct {
	loader   *Loader
	logger   *zap.SugaredLogger
	observer CacheObserver

	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
	loads   int
}

type cacheEntry struct {
	fp    Fingerprint
	table *Table
	err   error
}

type loadResult struct {
	table *Table
	err   error
}

// NewCache creates a Cache that parses sources with loader
func NewCache(loader *Loader, logger *zap.SugaredLogger) *Cache {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Cache{
		loader:   loader,
		logger:   logger,
		observer: nopObserver{},
		entries:  make(map[string]cacheEntry),
	}
}

// Observe routes cache events to o
func (c *Cache) Observe(o CacheObserver) {
	if o == nil {
		o = nopObserver{}
	}
	c.observer = o
}

// Load returns the table for path, parsing it only on first use or after the file
// changed. Load failures of an unchanged file are cached as well.
func (c *Cache) Load(path string) (*Table, error) {
	key := cacheKey(path)

	fp, err := Stat(key)
	if err != nil {
		return EmptyTable(), err
	}

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && entry.fp.Equal(fp) {
		c.observer.CacheHit()
		return entry.table, entry.err
	}

	v, _, _ := c.group.Do(key+"|"+fp.String(), func() (any, error) {
		c.mu.Lock()
		current, cached := c.entries[key]
		c.mu.Unlock()
		if cached && current.fp.Equal(fp) {
			c.observer.CacheHit()
			return loadResult{table: current.table, err: current.err}, nil
		}

		if ok {
			c.logger.Infof("source %s changed (%s -> %s), reloading", key, entry.fp, fp)
		}

		c.observer.CacheMiss()
		table, err := c.loader.Load(key)
		c.observer.SourceLoaded(table.Len(), table.Diagnostics().Unparseable, err)

		c.mu.Lock()
		c.entries[key] = cacheEntry{fp: fp, table: table, err: err}
		c.loads++
		c.mu.Unlock()

		return loadResult{table: table, err: err}, nil
	})

	res := v.(loadResult)
	return res.table, res.err
}

// Invalidate drops the cached result for path
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(path))
}

// Len returns the number of cached sources
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Loads returns how many times a source has been parsed through this cache
func (c *Cache) Loads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}

func cacheKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
