package fitengine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeViewport struct {
	mu sync.Mutex
	// rendered holds item ids whose elements currently exist.
	rendered map[string]bool
	// renderAfter makes an item appear once this many lookups have happened,
	// simulating late data loading.
	renderAfter map[string]int
	lookups     map[string]int

	scrolledTo     string
	scrolledOffset int
	scrolledTop    bool
}

func newFakeViewport(ids ...string) *fakeViewport {
	vp := &fakeViewport{
		rendered:    map[string]bool{},
		renderAfter: map[string]int{},
		lookups:     map[string]int{},
	}
	for _, id := range ids {
		vp.rendered[id] = true
	}
	return vp
}

func (v *fakeViewport) ScrollToItem(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lookups[id]++
	if after, ok := v.renderAfter[id]; ok && v.lookups[id] >= after {
		v.rendered[id] = true
	}
	if v.rendered[id] {
		v.scrolledTo = id
		return true
	}
	return false
}

func (v *fakeViewport) ScrollToOffset(offset int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrolledOffset = offset
}

func (v *fakeViewport) ScrollToTop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrolledTop = true
}

func testNavigator() *Navigator {
	return NewNavigator().WithRetry(time.Millisecond, 20*time.Millisecond)
}

func TestViewStateRoundTripAndConsumeOnce(t *testing.T) {
	n := testNavigator()
	saved := ViewState{
		Search:        "red dress",
		Filters:       map[string]string{"category": "dresses", "size": "M"},
		SortKey:       "newest",
		ViewMode:      "grid",
		AccordionOpen: true,
	}
	n.SaveViewState("closet", saved)

	got, ok := n.ConsumeViewState("closet")
	require.True(t, ok)
	assert.Equal(t, saved, got)

	// Consumed once: a second read starts clean.
	_, ok = n.ConsumeViewState("closet")
	assert.False(t, ok)
}

func TestViewStateLastWriteWins(t *testing.T) {
	n := testNavigator()
	n.SaveViewState("closet", ViewState{Search: "first"})
	n.SaveViewState("closet", ViewState{Search: "second"})

	got, ok := n.ConsumeViewState("closet")
	require.True(t, ok)
	assert.Equal(t, "second", got.Search)
}

func TestRestoreScrollsToOpenedItem(t *testing.T) {
	n := testNavigator()
	vp := newFakeViewport("item-7")
	n.RecordAnchor("closet", "item-7", 420)

	res := n.Restore(context.Background(), "closet", vp)
	assert.Equal(t, RestoredToItem, res)
	assert.Equal(t, "item-7", vp.scrolledTo)
}

func TestRestoreRetriesForLateRenderedItem(t *testing.T) {
	n := testNavigator()
	vp := newFakeViewport()
	vp.renderAfter["item-7"] = 3
	n.RecordAnchor("closet", "item-7", 420)

	res := n.Restore(context.Background(), "closet", vp)
	assert.Equal(t, RestoredToItem, res)
	assert.GreaterOrEqual(t, vp.lookups["item-7"], 3)
}

func TestRestoreFallsBackToOffsetWhenItemGone(t *testing.T) {
	// The list was re-filtered while the shopper was away; item-7 is no
	// longer in it.
	n := testNavigator()
	vp := newFakeViewport("other-item")
	n.RecordAnchor("closet", "item-7", 420)

	res := n.Restore(context.Background(), "closet", vp)
	assert.Equal(t, RestoredToOffset, res)
	assert.Equal(t, 420, vp.scrolledOffset)
}

func TestRestoreFallsBackToTopWithoutAnchor(t *testing.T) {
	n := testNavigator()
	vp := newFakeViewport()

	res := n.Restore(context.Background(), "closet", vp)
	assert.Equal(t, RestoredToTop, res)
	assert.True(t, vp.scrolledTop)
}

func TestAnchorConsumedExactlyOnce(t *testing.T) {
	n := testNavigator()
	vp := newFakeViewport("item-7")
	n.RecordAnchor("closet", "item-7", 420)

	assert.Equal(t, RestoredToItem, n.Restore(context.Background(), "closet", vp))

	// A later fresh visit must not replay the stale position.
	vp2 := newFakeViewport("item-7")
	assert.Equal(t, RestoredToTop, n.Restore(context.Background(), "closet", vp2))
	assert.True(t, vp2.scrolledTop)
}

func TestAnchorsAreNamespacedPerView(t *testing.T) {
	n := testNavigator()
	n.RecordAnchor("closet", "item-7", 420)

	vp := newFakeViewport()
	res := n.Restore(context.Background(), "history", vp)
	assert.Equal(t, RestoredToTop, res)

	// The closet anchor is still there for its own view.
	vpCloset := newFakeViewport("item-7")
	assert.Equal(t, RestoredToItem, n.Restore(context.Background(), "closet", vpCloset))
}
