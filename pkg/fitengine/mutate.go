package fitengine

import (
	"context"
	"sync"
)

// SessionMutator is the slice of the service contract the coordinator needs.
type SessionMutator interface {
	SetFavorite(ctx context.Context, sessionId string, favorite bool) (*Session, error)
	SubmitFeedback(ctx context.Context, sessionId string, satisfied bool, message string) (*Session, error)
	DeleteSession(ctx context.Context, sessionId string) error
}

// Notifier surfaces transient user-facing notices (toasts) when an optimistic
// mutation has to roll back.
type Notifier interface {
	Notify(message string)
}

// Coordinator applies favorite / feedback / delete mutations optimistically:
// the local value changes first, the network confirms after, and a failure
// reverts exactly the fields that mutation touched.
//
// All mutation paths go through the coordinator (it is the store's sole
// writer) and mutations on the same session id are serialized, so two
// in-flight mutations can never clobber each other's fields on revert.
type Coordinator struct {
	store    *SessionStore
	client   SessionMutator
	notifier Notifier

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCoordinator(store *SessionStore, client SessionMutator, notifier Notifier) *Coordinator {
	return &Coordinator{
		store:    store,
		client:   client,
		notifier: notifier,
		locks:    make(map[string]*sync.Mutex),
	}
}

// ToggleFavorite flips the favorite flag locally, then confirms remotely.
// Favorite is toggleable regardless of session status.
func (c *Coordinator) ToggleFavorite(ctx context.Context, sessionId string) error {
	unlock := c.lockItem(sessionId)
	defer unlock()

	prev, ok := c.store.Get(sessionId)
	if !ok {
		return &ValidationError{Field: "session", Reason: "not found"}
	}
	next := !prev.IsFavorite

	c.store.Update(sessionId, func(s *Session) { s.IsFavorite = next })

	updated, err := c.client.SetFavorite(ctx, sessionId, next)
	if err != nil {
		c.store.Update(sessionId, func(s *Session) { s.IsFavorite = prev.IsFavorite })
		c.notify("Couldn't update favorite. Please try again.")
		return err
	}
	if updated != nil {
		c.store.Update(sessionId, func(s *Session) { s.IsFavorite = updated.IsFavorite })
	}
	return nil
}

// RecordFeedback sets the satisfaction flag and optional message. There is no
// status gate: feedback while still PROCESSING is accepted; it rates the
// experience, not strictly the image.
func (c *Coordinator) RecordFeedback(ctx context.Context, sessionId string, satisfied bool, message string) error {
	unlock := c.lockItem(sessionId)
	defer unlock()

	prev, ok := c.store.Get(sessionId)
	if !ok {
		return &ValidationError{Field: "session", Reason: "not found"}
	}

	c.store.Update(sessionId, func(s *Session) {
		s.Satisfied = &satisfied
		s.Feedback = message
	})

	updated, err := c.client.SubmitFeedback(ctx, sessionId, satisfied, message)
	if err != nil {
		c.store.Update(sessionId, func(s *Session) {
			s.Satisfied = prev.Satisfied
			s.Feedback = prev.Feedback
		})
		c.notify("Couldn't save your feedback. Please try again.")
		return err
	}
	if updated != nil {
		// Server text is authoritative over the optimistic placeholder.
		c.store.Update(sessionId, func(s *Session) {
			s.Satisfied = updated.Satisfied
			s.Feedback = updated.Feedback
		})
	}
	return nil
}

// Delete removes the session from every visible list immediately; on failure
// it reinserts the item at its original position. "Delete" is a soft-hide
// requested of the service; the record is never physically gone.
func (c *Coordinator) Delete(ctx context.Context, sessionId string) error {
	unlock := c.lockItem(sessionId)
	defer unlock()

	removed, idx, ok := c.store.Remove(sessionId)
	if !ok {
		return &ValidationError{Field: "session", Reason: "not found"}
	}

	if err := c.client.DeleteSession(ctx, sessionId); err != nil {
		c.store.InsertAt(idx, removed)
		c.notify("Couldn't delete the try-on. Please try again.")
		return err
	}
	return nil
}

func (c *Coordinator) lockItem(id string) func() {
	c.mu.Lock()
	lock, ok := c.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[id] = lock
	}
	c.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

func (c *Coordinator) notify(message string) {
	if c.notifier != nil {
		c.notifier.Notify(message)
	}
}
