package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemPatchApply(t *testing.T) {
	t.Parallel()

	item := Item{
		ID:     "a",
		Title:  "clip",
		Status: StatusPublished,
		Links:  Links{"tiktok": "https://tiktok.com/@x/video/1"},
		Stats:  Stats{Views: 1, Likes: 2, Comments: 3},
	}

	stats := Stats{Views: 10, Likes: 20, Comments: 30}
	got := ItemPatch{Stats: &stats}.Apply(item)

	assert.Equal(t, stats, got.Stats)
	assert.Equal(t, "clip", got.Title)
	assert.Equal(t, StatusPublished, got.Status)
	assert.Equal(t, item.Links, got.Links)
	assert.Equal(t, Stats{Views: 1, Likes: 2, Comments: 3}, item.Stats, "original must not change")
}

func TestItemPatchEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, ItemPatch{}.Empty())
	title := "x"
	assert.False(t, ItemPatch{Title: &title}.Empty())
}

func TestItemStatusValid(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusDraft.Valid())
	assert.True(t, StatusPublished.Valid())
	assert.False(t, ItemStatus("archived").Valid())
}
