// Package cache is a content-addressed store of parser results with TTL
// expiry, LRU eviction under memory and entry-count budgets, and an
// optional JSON snapshot for warm restarts.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/tsawler/docparse/model"
)

// Config holds the cache budgets and timing.
type Config struct {
	// TTL is how long an entry stays valid after insertion.
	TTL time.Duration

	// MaxEntries bounds the number of cached results.
	MaxEntries int

	// MaxMemoryBytes bounds the estimated total size of cached results.
	MaxMemoryBytes int64

	// SweepInterval is the period of the background expiry sweep.
	SweepInterval time.Duration
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		TTL:            time.Hour,
		MaxEntries:     1000,
		MaxMemoryBytes: 100 << 20,
		SweepInterval:  5 * time.Minute,
	}
}

// entry is one cached result with its bookkeeping.
type entry struct {
	key         string
	elementType model.ElementType
	result      *model.ParserResult
	size        int64
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int64
	lruPos      *list.Element
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Entries     int     `json:"entries"`
	MemoryBytes int64   `json:"memory_bytes"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
	Evictions   int64   `json:"evictions"`
	Expirations int64   `json:"expirations"`
}

// Cache is a TTL+LRU store of parser results. All methods are safe for
// concurrent use.
type Cache struct {
	mu      sync.Mutex
	config  Config
	entries map[string]*entry
	lru     *list.List // front = most recently used

	memory      int64
	hits        int64
	misses      int64
	evictions   int64
	expirations int64

	stopSweep chan struct{}
	sweepDone chan struct{}
}

// New creates a cache with default configuration.
func New() *Cache {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a cache with custom configuration.
func NewWithConfig(config Config) *Cache {
	if config.TTL <= 0 {
		config.TTL = DefaultConfig().TTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultConfig().MaxEntries
	}
	if config.MaxMemoryBytes <= 0 {
		config.MaxMemoryBytes = DefaultConfig().MaxMemoryBytes
	}
	return &Cache{
		config:  config,
		entries: make(map[string]*entry),
		lru:     list.New(),
	}
}

// Key derives the content address for an element: a sha256 over the
// element type, text and canonically ordered metadata.
func Key(elementType model.ElementType, text string, metadata map[string]any) string {
	h := sha256.New()
	io.WriteString(h, elementType.String())
	h.Write([]byte{0})
	io.WriteString(h, text)
	h.Write([]byte{0})

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%v\n", k, metadata[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// KeyFor derives the content address for an element.
func KeyFor(el *model.Element) string {
	if el == nil {
		return Key(model.ElementTypeUnknown, "", nil)
	}
	return Key(el.Type, el.Text, el.Metadata)
}

// Get returns the cached result for key, if present and unexpired.
// Expired entries are evicted on access.
func (c *Cache) Get(key string) (*model.ParserResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if time.Since(e.createdAt) > c.config.TTL {
		c.removeLocked(e)
		c.expirations++
		c.misses++
		return nil, false
	}

	e.lastAccess = time.Now()
	e.accessCount++
	c.lru.MoveToFront(e.lruPos)
	c.hits++
	return e.result, true
}

// Set stores a result under key. Entries larger than the whole memory
// budget are rejected; otherwise LRU entries are evicted until both
// budgets hold.
func (c *Cache) Set(key string, elementType model.ElementType, result *model.ParserResult) error {
	if result == nil {
		return fmt.Errorf("%w: nil result", model.ErrCache)
	}
	size := estimateSize(result)
	if size > c.config.MaxMemoryBytes {
		return fmt.Errorf("%w: entry size %d exceeds memory budget %d",
			model.ErrCache, size, c.config.MaxMemoryBytes)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.removeLocked(old)
	}
	for c.lru.Len() > 0 &&
		(c.memory+size > c.config.MaxMemoryBytes || c.lru.Len()+1 > c.config.MaxEntries) {
		oldest := c.lru.Back()
		c.removeLocked(oldest.Value.(*entry))
		c.evictions++
	}

	now := time.Now()
	e := &entry{
		key:         key,
		elementType: elementType,
		result:      result,
		size:        size,
		createdAt:   now,
		lastAccess:  now,
	}
	e.lruPos = c.lru.PushFront(e)
	c.entries[key] = e
	c.memory += size
	return nil
}

// removeLocked unlinks an entry. Caller holds the mutex.
func (c *Cache) removeLocked(e *entry) {
	delete(c.entries, e.key)
	c.lru.Remove(e.lruPos)
	c.memory -= e.size
}

// estimateSize approximates an entry's memory cost from its JSON
// encoding.
func estimateSize(result *model.ParserResult) int64 {
	encoded, err := json.Marshal(result)
	if err != nil {
		// Unencodable payloads still occupy memory; charge the visible text.
		return int64(len(result.ExtractedContent)) + 512
	}
	return int64(len(encoded))
}

// InvalidateKey removes one entry. Returns whether it was present.
func (c *Cache) InvalidateKey(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if ok {
		c.removeLocked(e)
	}
	return ok
}

// InvalidateType removes every entry recorded under the element type.
// Returns the number removed.
func (c *Cache) InvalidateType(elementType model.ElementType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for _, e := range c.entries {
		if e.elementType == elementType {
			c.removeLocked(e)
			removed++
		}
	}
	return removed
}

// Sweep removes all expired entries now. Returns the number removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for _, e := range c.entries {
		if time.Since(e.createdAt) > c.config.TTL {
			c.removeLocked(e)
			c.expirations++
			removed++
		}
	}
	return removed
}

// StartSweeper runs periodic expiry sweeps until Close.
func (c *Cache) StartSweeper() {
	c.mu.Lock()
	if c.stopSweep != nil {
		c.mu.Unlock()
		return
	}
	interval := c.config.SweepInterval
	if interval <= 0 {
		interval = DefaultConfig().SweepInterval
	}
	c.stopSweep = make(chan struct{})
	c.sweepDone = make(chan struct{})
	stop, done := c.stopSweep, c.sweepDone
	c.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Sweep()
			case <-stop:
				return
			}
		}
	}()
}

// Close stops the background sweeper, if running.
func (c *Cache) Close() {
	c.mu.Lock()
	stop, done := c.stopSweep, c.sweepDone
	c.stopSweep = nil
	c.sweepDone = nil
	c.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}
}

// Clear drops every entry, keeping the counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.lru.Init()
	c.memory = 0
}

// Stats returns a point-in-time view of the cache.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{
		Entries:     len(c.entries),
		MemoryBytes: c.memory,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// HitRate returns the lifetime hit rate.
func (c *Cache) HitRate() float64 {
	return c.Stats().HitRate
}

// snapshotVersion tags the on-disk format.
const snapshotVersion = 1

type snapshotEntry struct {
	Key         string              `json:"key"`
	ElementType model.ElementType   `json:"element_type"`
	Result      *model.ParserResult `json:"result"`
	CreatedAt   time.Time           `json:"created_at"`
	LastAccess  time.Time           `json:"last_access"`
	AccessCount int64               `json:"access_count"`
}

type snapshot struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"saved_at"`
	Entries []snapshotEntry `json:"entries"`
}

// SaveSnapshot writes all unexpired entries as versioned JSON.
func (c *Cache) SaveSnapshot(w io.Writer) error {
	c.mu.Lock()
	snap := snapshot{Version: snapshotVersion, SavedAt: time.Now()}
	for _, e := range c.entries {
		if time.Since(e.createdAt) > c.config.TTL {
			continue
		}
		snap.Entries = append(snap.Entries, snapshotEntry{
			Key:         e.key,
			ElementType: e.elementType,
			Result:      e.result,
			CreatedAt:   e.createdAt,
			LastAccess:  e.lastAccess,
			AccessCount: e.accessCount,
		})
	}
	c.mu.Unlock()

	if err := json.NewEncoder(w).Encode(snap); err != nil {
		return fmt.Errorf("%w: encode snapshot: %v", model.ErrCache, err)
	}
	return nil
}

// LoadSnapshot restores entries from a snapshot. A snapshot with a
// different version is ignored; expired entries are dropped. Returns the
// number of entries restored.
//
// Structured payloads round-trip through JSON, so StructuredData comes
// back as generic maps rather than the original typed structures.
func (c *Cache) LoadSnapshot(r io.Reader) (int, error) {
	var snap snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return 0, fmt.Errorf("%w: decode snapshot: %v", model.ErrCache, err)
	}
	if snap.Version != snapshotVersion {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	restored := 0
	for _, se := range snap.Entries {
		if se.Result == nil || time.Since(se.CreatedAt) > c.config.TTL {
			continue
		}
		if old, ok := c.entries[se.Key]; ok {
			c.removeLocked(old)
		}
		size := estimateSize(se.Result)
		if size > c.config.MaxMemoryBytes {
			continue
		}
		for c.lru.Len() > 0 &&
			(c.memory+size > c.config.MaxMemoryBytes || c.lru.Len()+1 > c.config.MaxEntries) {
			oldest := c.lru.Back()
			c.removeLocked(oldest.Value.(*entry))
			c.evictions++
		}
		e := &entry{
			key:         se.Key,
			elementType: se.ElementType,
			result:      se.Result,
			size:        size,
			createdAt:   se.CreatedAt,
			lastAccess:  se.LastAccess,
			accessCount: se.AccessCount,
		}
		e.lruPos = c.lru.PushFront(e)
		c.entries[se.Key] = e
		c.memory += size
		restored++
	}
	return restored, nil
}

// String renders a short diagnostic summary.
func (c *Cache) String() string {
	s := c.Stats()
	return fmt.Sprintf("cache: %d entries, %d bytes, hit rate %.2f", s.Entries, s.MemoryBytes, s.HitRate)
}
