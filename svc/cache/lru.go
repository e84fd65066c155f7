package cache

import (
	"errors"
	"pastelite/pkg/domain"

	lru "github.com/hashicorp/golang-lru/v2"
)

const maxSize = 10_000_000

// LRU is a capacity-bounded paste table. Adding to a full table drops the
// least recently read paste. Callers serialise access themselves; the
// underlying cache's own lock only protects its list.
type LRU struct {
	c *lru.Cache[string, *domain.Paste]
}

func NewLRU(size int) (*LRU, error) {
	if size <= 0 {
		return nil, errors.New("cache size must be positive")
	}
	if size > maxSize {
		return nil, errors.New("cache size too large")
	}
	c, err := lru.New[string, *domain.Paste](size)
	if err != nil {
		return nil, err
	}
	return &LRU{c: c}, nil
}

// Get marks the paste as recently used.
func (l *LRU) Get(id string) (*domain.Paste, bool) {
	return l.c.Get(id)
}

// Add reports whether another paste had to be evicted to make room.
func (l *LRU) Add(p *domain.Paste) bool {
	return l.c.Add(p.ID, p)
}
func (l *LRU) Remove(id string) {
	l.c.Remove(id)
}
func (l *LRU) Contains(id string) bool {
	return l.c.Contains(id)
}
func (l *LRU) Len() int {
	return l.c.Len()
}

// Range visits every paste, oldest first, without touching recency.
func (l *LRU) Range(fn func(p *domain.Paste)) {
	for _, id := range l.c.Keys() {
		if p, ok := l.c.Peek(id); ok {
			fn(p)
		}
	}
}
