package geocoding

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/badursun/Roqua-sub000/internal/models"
)

// Cache stores resolved places by geohash key
type Cache interface {
	Get(ctx context.Context, key string) (models.Place, bool)
	Set(ctx context.Context, key string, place models.Place)
}

// LRU is an in-process cache with TTL
type LRU struct {
	mu   sync.Mutex
	cap  int
	ttl  time.Duration
	lst  *list.List
	dict map[string]*list.Element
	now  func() time.Time
}

type entry struct {
	key   string
	place models.Place
	exp   time.Time
}

// NewLRU creates an LRU holding at most capacity places for ttl
func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity <= 0 {
		capacity = 1024
	}
	return &LRU{cap: capacity, ttl: ttl, lst: list.New(), dict: make(map[string]*list.Element), now: time.Now}
}

// Get implements Cache
func (c *LRU) Get(_ context.Context, key string) (models.Place, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.dict[key]
	if !ok {
		return models.Place{}, false
	}
	it := e.Value.(entry)
	if c.ttl > 0 && !c.now().Before(it.exp) {
		c.lst.Remove(e)
		delete(c.dict, key)
		return models.Place{}, false
	}
	c.lst.MoveToFront(e)
	return it.place, true
}

// Set implements Cache
func (c *LRU) Set(_ context.Context, key string, place models.Place) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := entry{key: key, place: place, exp: c.now().Add(c.ttl)}
	if e, ok := c.dict[key]; ok {
		e.Value = it
		c.lst.MoveToFront(e)
		return
	}
	c.dict[key] = c.lst.PushFront(it)
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		delete(c.dict, back.Value.(entry).key)
		c.lst.Remove(back)
	}
}

// Len returns the number of cached entries
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}

// Chain looks caches up in order and backfills the faster ones on a hit
type Chain struct {
	caches []Cache
}

// NewChain creates a chained cache; nil entries are skipped
func NewChain(caches ...Cache) *Chain {
	c := &Chain{}
	for _, cache := range caches {
		if cache != nil {
			c.caches = append(c.caches, cache)
		}
	}
	return c
}

// Get implements Cache
func (c *Chain) Get(ctx context.Context, key string) (models.Place, bool) {
	for i, cache := range c.caches {
		if place, ok := cache.Get(ctx, key); ok {
			for j := 0; j < i; j++ {
				c.caches[j].Set(ctx, key, place)
			}
			return place, true
		}
	}
	return models.Place{}, false
}

// Set implements Cache
func (c *Chain) Set(ctx context.Context, key string, place models.Place) {
	for _, cache := range c.caches {
		cache.Set(ctx, key, place)
	}
}
