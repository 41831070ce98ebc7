package fitengine

import (
	"sync"
)

// SessionStore is the in-memory collection of sessions shared by every list
// and detail surface. It preserves insertion order so an optimistically
// deleted item can be reinserted exactly where it was.
//
// The mutation coordinator is the sole writer; views only read. That single
// contract is what keeps list and detail consistent without any further
// synchronization.
type SessionStore struct {
	mu    sync.RWMutex
	order []string
	items map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{items: make(map[string]*Session)}
}

// Put inserts or replaces a session. New ids append to the end.
func (s *SessionStore) Put(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[session.Id]; !ok {
		s.order = append(s.order, session.Id)
	}
	s.items[session.Id] = session.clone()
}

// Get returns a copy of the session, so callers can never write around the
// coordinator by mutating a shared pointer.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, false
	}
	return item.clone(), true
}

// List returns copies of all sessions in insertion order.
func (s *SessionStore) List() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.order))
	for _, id := range s.order {
		if item, ok := s.items[id]; ok {
			out = append(out, item.clone())
		}
	}
	return out
}

// Update applies fn to the stored session under the write lock. fn must touch
// only the fields its mutation owns; that is what makes a later revert safe
// against concurrent mutations of other fields on the same item.
func (s *SessionStore) Update(id string, fn func(*Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return false
	}
	fn(item)
	return true
}

// Remove deletes the session and returns it with its list position, so a
// failed optimistic delete can put it back.
func (s *SessionStore) Remove(id string) (*Session, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, 0, false
	}
	delete(s.items, id)
	idx := 0
	for i, oid := range s.order {
		if oid == id {
			idx = i
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return item, idx, true
}

// InsertAt restores a session at a specific list position (clamped).
func (s *SessionStore) InsertAt(idx int, session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[session.Id]; ok {
		return
	}
	if idx < 0 {
		idx = 0
	}
	if idx > len(s.order) {
		idx = len(s.order)
	}
	s.order = append(s.order[:idx], append([]string{session.Id}, s.order[idx:]...)...)
	s.items[session.Id] = session.clone()
}

// Len reports the number of stored sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
