package history

import (
	"container/list"
	"sync"
)

// LRUStore is an in-memory LRU cache over a backing Store. Saves write
// through; loads hit the cache first and promote on miss.
type LRUStore struct {
	mu    sync.Mutex
	cap   int
	back  Store
	order *list.List // most recent at front; values are *lruEntry
	items map[string]*list.Element
}

type lruEntry struct {
	id  string
	rec *Record
}

// NewLRUStore creates an LRU cache with the given capacity (minimum 1)
// delegating to back.
func NewLRUStore(capacity int, back Store) *LRUStore {
	if capacity < 1 {
		capacity = 1
	}
	return &LRUStore{
		cap:   capacity,
		back:  back,
		order: list.New(),
		items: make(map[string]*list.Element, capacity),
	}
}

// Save caches the record and writes it through to the backing store.
func (s *LRUStore) Save(rec *Record) error {
	s.mu.Lock()
	s.insert(rec.ID, rec)
	s.mu.Unlock()

	return s.back.Save(rec)
}

// Load checks the cache first. On miss it loads from the backing store
// and promotes the record into the cache.
func (s *LRUStore) Load(id string) (*Record, error) {
	s.mu.Lock()
	if el, ok := s.items[id]; ok {
		s.order.MoveToFront(el)
		rec := el.Value.(*lruEntry).rec
		s.mu.Unlock()
		return rec, nil
	}
	s.mu.Unlock()

	rec, err := s.back.Load(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.insert(id, rec)
	s.mu.Unlock()
	return rec, nil
}

// insert adds or refreshes an entry, evicting the oldest past capacity.
// Callers hold the lock.
func (s *LRUStore) insert(id string, rec *Record) {
	if el, ok := s.items[id]; ok {
		el.Value.(*lruEntry).rec = rec
		s.order.MoveToFront(el)
		return
	}
	s.items[id] = s.order.PushFront(&lruEntry{id: id, rec: rec})
	if s.order.Len() > s.cap {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		delete(s.items, oldest.Value.(*lruEntry).id)
	}
}
