package store

import (
	"math"
	"pastelite/metrics"
	"pastelite/pkg/domain"
	"pastelite/svc/cache"
	"pastelite/svc/util"
	"sync"

	"github.com/pkg/errors"
)

// Table is the backing map. Implementations need not be safe for
// concurrent use; Store serialises every call.
type Table interface {
	Get(id string) (*domain.Paste, bool)
	Add(p *domain.Paste) (evicted bool)
	Remove(id string)
	Contains(id string) bool
	Len() int
	Range(fn func(p *domain.Paste))
}

type Options struct {
	// Capacity bounds the number of stored pastes; zero means unbounded.
	Capacity int
}

type Store struct {
	mu    sync.Mutex
	table Table
}

func New(opts Options) (*Store, error) {
	if opts.Capacity < 0 {
		return nil, errors.New("capacity must not be negative")
	}
	if opts.Capacity == 0 {
		return &Store{table: newMapTable()}, nil
	}
	l, err := cache.NewLRU(opts.Capacity)
	if err != nil {
		return nil, errors.Wrap(err, "create bounded table")
	}
	return &Store{table: l}, nil
}

// Create stores a new paste and returns a copy of it. A zero or negative
// ttl gives a paste that is expired for any later now. A zero or negative
// view quota is accepted as already exhausted: the first Get removes it.
func (s *Store) Create(params domain.CreateParams, now int64) (*domain.Paste, error) {
	if params.Content == "" {
		return nil, domain.ErrInvalidInput
	}
	p := &domain.Paste{
		Content:   params.Content,
		CreatedAt: now,
	}
	if params.TTLSeconds != nil {
		ttl := *params.TTLSeconds
		if math.IsNaN(ttl) || math.IsInf(ttl, 0) {
			return nil, domain.ErrInvalidInput
		}
		exp := addMillis(now, ttl*1000)
		p.ExpiresAt = &exp
	}
	if params.MaxViews != nil {
		views := *params.MaxViews
		p.RemainingViews = &views
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := util.GenID(s.table.Contains)
	if err != nil {
		return nil, errors.Wrap(domain.ErrIDGenerationFailed, err.Error())
	}
	p.ID = id
	if s.table.Add(p) {
		metrics.PasteEvicted.WithLabelValues("capacity").Inc()
	}
	metrics.StoreEntries.Set(float64(s.table.Len()))
	return p.Clone(), nil
}

// Get returns the paste content and charges one view against its quota.
// Expiry is strict: a paste is still readable at exactly its expiry time.
func (s *Store) Get(id string, now int64) (*domain.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.table.Get(id)
	if !ok {
		return nil, domain.ErrPasteNotFound
	}
	if expired(p, now) || exhausted(p) {
		s.remove(id, "read")
		return nil, domain.ErrPasteNotFound
	}
	v := &domain.View{Content: p.Content}
	if p.RemainingViews != nil {
		*p.RemainingViews--
		remaining := *p.RemainingViews
		v.RemainingViews = &remaining
	}
	if p.ExpiresAt != nil {
		exp := *p.ExpiresAt
		v.ExpiresAt = &exp
	}
	return v, nil
}

// Sweep removes every paste the next Get at now would remove and returns
// how many it dropped.
func (s *Store) Sweep(now int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var dead []string
	s.table.Range(func(p *domain.Paste) {
		if expired(p, now) || exhausted(p) {
			dead = append(dead, p.ID)
		}
	})
	for _, id := range dead {
		s.remove(id, "sweep")
	}
	return len(dead)
}
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Len()
}
func (s *Store) remove(id, trigger string) {
	s.table.Remove(id)
	metrics.PasteEvicted.WithLabelValues(trigger).Inc()
	metrics.StoreEntries.Set(float64(s.table.Len()))
}
func expired(p *domain.Paste, now int64) bool {
	return p.ExpiresAt != nil && now > *p.ExpiresAt
}
func exhausted(p *domain.Paste) bool {
	return p.RemainingViews != nil && *p.RemainingViews <= 0
}

// addMillis saturates instead of overflowing for absurd ttls.
func addMillis(now int64, deltaMs float64) int64 {
	d := math.Round(deltaMs)
	if d >= math.MaxInt64 {
		return math.MaxInt64
	}
	if d <= math.MinInt64 {
		return math.MinInt64
	}
	di := int64(d)
	if di > 0 && now > math.MaxInt64-di {
		return math.MaxInt64
	}
	if di < 0 && now < math.MinInt64-di {
		return math.MinInt64
	}
	return now + di
}

type mapTable map[string]*domain.Paste

func newMapTable() mapTable {
	return make(mapTable)
}
func (m mapTable) Get(id string) (*domain.Paste, bool) {
	p, ok := m[id]
	return p, ok
}
func (m mapTable) Add(p *domain.Paste) bool {
	m[p.ID] = p
	return false
}
func (m mapTable) Remove(id string) {
	delete(m, id)
}
func (m mapTable) Contains(id string) bool {
	_, ok := m[id]
	return ok
}
func (m mapTable) Len() int {
	return len(m)
}
func (m mapTable) Range(fn func(p *domain.Paste)) {
	for _, p := range m {
		fn(p)
	}
}
