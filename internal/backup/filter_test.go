package backup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albumkeep/albumkeep/internal/dedup"
)

func TestFilter_ShouldDropItemsWithoutByteSource(t *testing.T) {
	// given
	usable := newFakeItem("trip", "a.jpg")
	unknown := newFakeItem("trip", "notes.txt")
	unknown.kind = KindUnknown
	missing := newFakeItem("trip", "b.jpg")
	missing.unavailable = true

	// when
	kept := Filter([]Item{usable, unknown, missing}, false, nil)

	// then
	require.Len(t, kept, 1)
	assert.Equal(t, "a.jpg", kept[0].ID())
}

func TestFilter_ShouldSkipAlreadyUploadedKeysWhenArchival(t *testing.T) {
	// given
	store := dedup.NewMemoryStore()
	require.NoError(t, store.Mark("trip/a.jpg"))

	a := newFakeItem("trip", "a.jpg")
	b := newFakeItem("trip", "b.jpg")

	// when
	kept := Filter([]Item{a, b}, true, store)

	// then
	require.Len(t, kept, 1)
	assert.Equal(t, "b.jpg", kept[0].ID())
}

func TestFilter_ShouldKeepUploadedKeysWhenNotArchival(t *testing.T) {
	store := dedup.NewMemoryStore()
	require.NoError(t, store.Mark("trip/a.jpg"))

	kept := Filter([]Item{newFakeItem("trip", "a.jpg")}, false, store)

	assert.Len(t, kept, 1)
}

func TestFilter_ShouldPreserveInputOrder(t *testing.T) {
	items := []Item{
		newFakeItem("trip", "c.jpg"),
		newFakeItem("trip", "a.jpg"),
		newFakeItem("trip", "b.jpg"),
	}

	kept := Filter(items, false, nil)

	require.Len(t, kept, 3)
	assert.Equal(t, "c.jpg", kept[0].ID())
	assert.Equal(t, "a.jpg", kept[1].ID())
	assert.Equal(t, "b.jpg", kept[2].ID())
}
