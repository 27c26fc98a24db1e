package local

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("cache: key not found")

// Config holds LocalCache settings.
type Config struct {
	GCInterval time.Duration
}

// entry holds a cached string value; a zero expireAt never expires.
type entry struct {
	data     string
	expireAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

func newEntry(value string, ttl time.Duration) *entry {
	e := &entry{data: value}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	}
	return e
}

// zset keeps members ordered the way Redis ZREVRANGE returns them: score
// descending, equal scores in reverse lexicographic member order.
type zset struct {
	scores  map[string]float64
	ordered []string
}

func (z *zset) add(member string, score float64) {
	if _, ok := z.scores[member]; !ok {
		z.ordered = append(z.ordered, member)
	}
	z.scores[member] = score
	sort.Slice(z.ordered, func(i, j int) bool {
		a, b := z.ordered[i], z.ordered[j]
		if z.scores[a] != z.scores[b] {
			return z.scores[a] > z.scores[b]
		}
		return a > b
	})
}

// LocalCache is an in-process Cache for single-node deployments and tests.
// Every operation holds one mutex, so SetNX and DelIfEqual are atomic with
// respect to all other calls.
type LocalCache struct {
	mu         sync.Mutex
	kv         map[string]*entry
	zsets      map[string]*zset
	gcInterval time.Duration
	stopGC     chan struct{}
	closeOnce  sync.Once
}

// NewCache creates a LocalCache and starts the background GC goroutine.
func NewCache(cfg Config) (*LocalCache, error) {
	interval := cfg.GCInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	c := &LocalCache{
		kv:         make(map[string]*entry),
		zsets:      make(map[string]*zset),
		gcInterval: interval,
		stopGC:     make(chan struct{}),
	}
	go c.runGC()
	return c, nil
}

// Close stops the background GC goroutine. It is safe to call twice.
func (c *LocalCache) Close() {
	c.closeOnce.Do(func() { close(c.stopGC) })
}

func (c *LocalCache) runGC() {
	ticker := time.NewTicker(c.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			c.mu.Lock()
			for k, e := range c.kv {
				if e.expired(now) {
					delete(c.kv, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopGC:
			return
		}
	}
}

// live returns the unexpired entry for key. Callers hold c.mu.
func (c *LocalCache) live(key string) (*entry, bool) {
	e, ok := c.kv[key]
	if !ok {
		return nil, false
	}
	if e.expired(time.Now()) {
		delete(c.kv, key)
		return nil, false
	}
	return e, true
}

// ---- KV ----

func (c *LocalCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.live(key)
	if !ok {
		return "", ErrNotFound
	}
	return e.data, nil
}

func (c *LocalCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kv[key] = newEntry(value, ttl)
	return nil
}

// Del removes keys of either kind, like Redis DEL.
func (c *LocalCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.kv, k)
		delete(c.zsets, k)
	}
	return nil
}

func (c *LocalCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.live(key); ok {
		return true, nil
	}
	_, ok := c.zsets[key]
	return ok, nil
}

func (c *LocalCache) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.live(key); ok {
		return false, nil
	}
	c.kv[key] = newEntry(value, ttl)
	return true, nil
}

func (c *LocalCache) Expire(_ context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.live(key)
	if !ok {
		return ErrNotFound
	}
	if ttl <= 0 {
		delete(c.kv, key)
		return nil
	}
	e.expireAt = time.Now().Add(ttl)
	return nil
}

func (c *LocalCache) DelIfEqual(_ context.Context, key, value string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.live(key)
	if !ok || e.data != value {
		return false, nil
	}
	delete(c.kv, key)
	return true, nil
}

// ---- ZSet ----

func (c *LocalCache) ZAdd(_ context.Context, key string, score float64, member string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	z, ok := c.zsets[key]
	if !ok {
		z = &zset{scores: make(map[string]float64)}
		c.zsets[key] = z
	}
	z.add(member, score)
	return nil
}

// ZRevRange returns members from rank start to stop inclusive, highest score
// first. Negative indexes count from the end, as in Redis.
func (c *LocalCache) ZRevRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	z, ok := c.zsets[key]
	if !ok {
		return nil, nil
	}
	n := int64(len(z.ordered))
	if start < 0 {
		start = max(n+start, 0)
	}
	if stop < 0 {
		stop = n + stop
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return nil, nil
	}
	out := make([]string, stop-start+1)
	copy(out, z.ordered[start:stop+1])
	return out, nil
}

func (c *LocalCache) ZScore(_ context.Context, key, member string) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if z, ok := c.zsets[key]; ok {
		if s, ok := z.scores[member]; ok {
			return s, nil
		}
	}
	return 0, ErrNotFound
}

// ZRem removes member; an emptied set is dropped like in Redis.
func (c *LocalCache) ZRem(_ context.Context, key, member string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	z, ok := c.zsets[key]
	if !ok {
		return nil
	}
	if _, ok := z.scores[member]; !ok {
		return nil
	}
	delete(z.scores, member)
	for i, m := range z.ordered {
		if m == member {
			z.ordered = append(z.ordered[:i], z.ordered[i+1:]...)
			break
		}
	}
	if len(z.ordered) == 0 {
		delete(c.zsets, key)
	}
	return nil
}
