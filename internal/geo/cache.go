package geo

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"sync/atomic"
)

type labelKey struct {
	dataset     string
	fingerprint uint64
	size        int
	params      Params
}

// LabelCache memoizes clustering results. Entries are keyed by dataset
// identity, a fingerprint of the exact point sequence and the parameters,
// so a changed file or a different eps never reuses stale labels.
type LabelCache struct {
	next       Labeler
	maxEntries int

	mu      sync.RWMutex
	entries map[labelKey][]int

	hits   atomic.Int64
	misses atomic.Int64
}

func NewLabelCache(next Labeler, maxEntries int) *LabelCache {
	if next == nil {
		next = DBSCAN{}
	}
	return &LabelCache{
		next:       next,
		maxEntries: maxEntries,
		entries:    make(map[labelKey][]int),
	}
}

// ForDataset scopes the cache to one dataset identity.
func (c *LabelCache) ForDataset(identity string) Labeler {
	return scopedLabeler{cache: c, dataset: identity}
}

func (c *LabelCache) Labels(points []Point, p Params) ([]int, error) {
	return c.labels("", points, p)
}

func (c *LabelCache) labels(dataset string, points []Point, p Params) ([]int, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	key := labelKey{dataset: dataset, fingerprint: Fingerprint(points), size: len(points), params: p}

	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return append([]int(nil), cached...), nil
	}
	c.misses.Add(1)

	labels, err := c.next.Labels(points, p)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		clear(c.entries)
	}
	c.entries[key] = append([]int(nil), labels...)
	c.mu.Unlock()

	return labels, nil
}

// Invalidate drops every entry recorded for the named dataset, whatever
// version of it produced them.
func (c *LabelCache) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.dataset == name || strings.HasPrefix(k.dataset, name+"@") {
			delete(c.entries, k)
		}
	}
}

func (c *LabelCache) Stats() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return map[string]any{
		"entries": len(c.entries),
		"hits":    c.hits.Load(),
		"misses":  c.misses.Load(),
	}
}

type scopedLabeler struct {
	cache   *LabelCache
	dataset string
}

func (s scopedLabeler) Labels(points []Point, p Params) ([]int, error) {
	return s.cache.labels(s.dataset, points, p)
}

// Fingerprint hashes the exact coordinate sequence.
func Fingerprint(points []Point) uint64 {
	h := fnv.New64a()
	var buf [16]byte
	for _, p := range points {
		binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(p.Lat))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(p.Lon))
		h.Write(buf[:])
	}
	return h.Sum64()
}
