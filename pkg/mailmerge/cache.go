package mailmerge

import (
	"container/list"
	"os"
	"sync"
	"time"
)

// CacheConfig contains configuration options for the template cache
type CacheConfig struct {
	// MaxSize is the maximum number of templates to cache. 0 disables caching.
	MaxSize int
	// TTL is the time-to-live for cached templates. 0 means no expiration.
	TTL time.Duration
}

// TemplateCache keeps loaded templates by path so batch merges parse each
// template once. Entries loaded from disk are dropped when the file's
// modification time or size changes.
type TemplateCache struct {
	mu     sync.Mutex
	cache  map[string]*cacheEntry
	lru    *list.List
	config CacheConfig
	load   func(path string) (*Template, error)
	stat   func(path string) (fileStamp, error)
}

type cacheEntry struct {
	key      string
	template *Template
	stamp    fileStamp
	expiry   time.Time
	element  *list.Element
}

// fileStamp identifies one version of a file on disk.
type fileStamp struct {
	modTime time.Time
	size    int64
}

func (s fileStamp) equal(o fileStamp) bool {
	return s.size == o.size && s.modTime.Equal(o.modTime)
}

func statFile(path string) (fileStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, err
	}
	return fileStamp{modTime: info.ModTime(), size: info.Size()}, nil
}

// NewTemplateCache creates a new template cache from the global configuration
func NewTemplateCache() *TemplateCache {
	config := GetGlobalConfig()
	return NewTemplateCacheWithConfig(CacheConfig{
		MaxSize: config.CacheMaxSize,
		TTL:     config.CacheTTL,
	})
}

// NewTemplateCacheWithConfig creates a new template cache with the given configuration
func NewTemplateCacheWithConfig(config CacheConfig) *TemplateCache {
	return &TemplateCache{
		cache:  make(map[string]*cacheEntry),
		lru:    list.New(),
		config: config,
		load:   LoadTemplate,
		stat:   statFile,
	}
}

// Load returns the cached template for path, loading it on a miss or when
// the file changed since it was cached.
func (tc *TemplateCache) Load(path string) (*Template, error) {
	if tc.config.MaxSize == 0 {
		return tc.load(path)
	}

	stamp, err := tc.stat(path)
	if err != nil {
		tc.Remove(path)
		return tc.load(path)
	}

	tc.mu.Lock()
	entry, ok := tc.lookupLocked(path)
	if ok && !entry.stamp.equal(stamp) {
		tc.removeLocked(entry)
		ok = false
	}
	tc.mu.Unlock()
	if ok {
		return entry.template, nil
	}

	tmpl, err := tc.load(path)
	if err != nil {
		return nil, err
	}
	tc.set(path, tmpl, stamp)
	return tmpl, nil
}

// Get retrieves a template from cache without loading it
func (tc *TemplateCache) Get(key string) (*Template, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	entry, ok := tc.lookupLocked(key)
	if !ok {
		return nil, false
	}
	return entry.template, true
}

func (tc *TemplateCache) lookupLocked(key string) (*cacheEntry, bool) {
	entry, exists := tc.cache[key]
	if !exists {
		return nil, false
	}

	if tc.config.TTL > 0 && time.Now().After(entry.expiry) {
		tc.removeLocked(entry)
		return nil, false
	}

	tc.lru.MoveToFront(entry.element)
	return entry, true
}

// Set adds a template to the cache
func (tc *TemplateCache) Set(key string, template *Template) {
	tc.set(key, template, fileStamp{})
}

func (tc *TemplateCache) set(key string, template *Template, stamp fileStamp) {
	if tc.config.MaxSize == 0 {
		return
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()

	expiry := time.Time{}
	if tc.config.TTL > 0 {
		expiry = time.Now().Add(tc.config.TTL)
	}

	if existing, exists := tc.cache[key]; exists {
		existing.template = template
		existing.stamp = stamp
		existing.expiry = expiry
		tc.lru.MoveToFront(existing.element)
		return
	}

	// Evict least recently used
	for tc.lru.Len() >= tc.config.MaxSize {
		oldest := tc.lru.Back()
		if oldest == nil {
			break
		}
		tc.removeLocked(oldest.Value.(*cacheEntry))
	}

	entry := &cacheEntry{
		key:      key,
		template: template,
		stamp:    stamp,
		expiry:   expiry,
	}
	entry.element = tc.lru.PushFront(entry)
	tc.cache[key] = entry
}

// Remove removes a template from the cache
func (tc *TemplateCache) Remove(key string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if entry, exists := tc.cache[key]; exists {
		tc.removeLocked(entry)
	}
}

func (tc *TemplateCache) removeLocked(entry *cacheEntry) {
	delete(tc.cache, entry.key)
	tc.lru.Remove(entry.element)
}

// Clear removes all templates from the cache
func (tc *TemplateCache) Clear() {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	tc.cache = make(map[string]*cacheEntry)
	tc.lru = list.New()
}

// Size returns the current number of cached templates
func (tc *TemplateCache) Size() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.cache)
}
