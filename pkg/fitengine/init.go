package fitengine

import (
	"context"
	"sync"
	"sync/atomic"
)

// Initializer owns a piece of one-shot setup (a tracking script injection, a
// widget handshake) as an explicit value instead of a bare module-level flag.
// EnsureInitialized is idempotent: the underlying function runs once and its
// result is remembered for every later caller.
type Initializer struct {
	fn   func(context.Context) error
	once sync.Once
	err  error
	done atomic.Bool
}

func NewInitializer(fn func(context.Context) error) *Initializer {
	return &Initializer{fn: fn}
}

func (i *Initializer) EnsureInitialized(ctx context.Context) error {
	i.once.Do(func() {
		i.err = i.fn(ctx)
		i.done.Store(true)
	})
	return i.err
}

// Initialized reports whether the one-shot setup has run (successfully or
// not).
func (i *Initializer) Initialized() bool {
	return i.done.Load()
}
