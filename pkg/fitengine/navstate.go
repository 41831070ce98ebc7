package fitengine

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// ViewState is everything a collection view needs to re-render exactly as it
// was: search term, discrete filters, sort key, view mode, accordion state.
type ViewState struct {
	Search        string
	Filters       map[string]string
	SortKey       string
	ViewMode      string
	AccordionOpen bool
}

// Anchor records where the shopper was when they opened a detail view: the
// opened item's identity plus the absolute scroll offset as a fallback.
type Anchor struct {
	ItemId string
	Offset int
}

// Viewport is the scrollable surface being restored. ScrollToItem returns
// false while the item's element is not rendered yet (late data loading).
type Viewport interface {
	ScrollToItem(itemId string) bool
	ScrollToOffset(offset int)
	ScrollToTop()
}

// RestoreResult names which fallback level a restoration landed on.
type RestoreResult int

const (
	RestoredToItem RestoreResult = iota
	RestoredToOffset
	RestoredToTop
)

const (
	navRetryInterval = 100 * time.Millisecond
	navRetryWindow   = time.Second
)

// Navigator persists per-view collection state in a session-scoped store and
// restores scroll position on return from a detail view. State writes are
// last-write-wins; anchors are consumed exactly once so a later fresh visit
// never replays a stale position.
type Navigator struct {
	states        *cache.Cache
	anchors       *cache.Cache
	retryInterval time.Duration
	retryWindow   time.Duration
}

func NewNavigator() *Navigator {
	return &Navigator{
		// Session-scoped: entries live for the browsing session, not forever.
		states:        cache.New(12*time.Hour, 10*time.Minute),
		anchors:       cache.New(12*time.Hour, 10*time.Minute),
		retryInterval: navRetryInterval,
		retryWindow:   navRetryWindow,
	}
}

// WithRetry overrides the item-lookup retry pacing (tests).
func (n *Navigator) WithRetry(interval, window time.Duration) *Navigator {
	n.retryInterval = interval
	n.retryWindow = window
	return n
}

// SaveViewState overwrites the stored state for a view namespace.
func (n *Navigator) SaveViewState(namespace string, state ViewState) {
	n.states.Set(namespace, state, cache.DefaultExpiration)
}

// ConsumeViewState returns the stored state and clears it, so the next fresh
// visit starts clean.
func (n *Navigator) ConsumeViewState(namespace string) (ViewState, bool) {
	v, ok := n.states.Get(namespace)
	if !ok {
		return ViewState{}, false
	}
	n.states.Delete(namespace)
	return v.(ViewState), true
}

// RecordAnchor stores the opened item and current offset before a detail
// navigation, overwriting any previous anchor for the view.
func (n *Navigator) RecordAnchor(namespace, itemId string, offset int) {
	n.anchors.Set(namespace, Anchor{ItemId: itemId, Offset: offset}, cache.DefaultExpiration)
}

// Restore scrolls the viewport back to where the shopper left off. The anchor
// is consumed up front: whatever happens next, a subsequent visit starts from
// the top.
//
// Resolution order: the opened item's element (retried for up to the retry
// window, because the list may still be loading), then the recorded absolute
// offset, then top of page.
func (n *Navigator) Restore(ctx context.Context, namespace string, vp Viewport) RestoreResult {
	raw, ok := n.anchors.Get(namespace)
	if !ok {
		vp.ScrollToTop()
		return RestoredToTop
	}
	n.anchors.Delete(namespace)
	anchor := raw.(Anchor)

	if anchor.ItemId != "" {
		deadline := time.Now().Add(n.retryWindow)
		for {
			if vp.ScrollToItem(anchor.ItemId) {
				return RestoredToItem
			}
			if time.Now().After(deadline) {
				break
			}
			select {
			case <-ctx.Done():
				return RestoredToTop
			case <-time.After(n.retryInterval):
			}
		}
	}

	if anchor.Offset > 0 {
		vp.ScrollToOffset(anchor.Offset)
		return RestoredToOffset
	}
	vp.ScrollToTop()
	return RestoredToTop
}
