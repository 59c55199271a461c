package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChapter_SetContentCountsCodePoints(t *testing.T) {
	var ch Chapter
	ch.SetContent("こんにちは world")
	assert.Equal(t, 11, ch.CharCount)
}

func TestNormalizeChapters(t *testing.T) {
	in := []Chapter{
		{Title: "a", Content: "xx", CharCount: 99},
		{ID: 3, Title: "b", Content: "yyy"},
		{ID: 3, Title: "c"},
	}

	out := NormalizeChapters(in)

	require.Len(t, out, 3)
	assert.Equal(t, 4, out[0].ID)
	assert.Equal(t, 2, out[0].CharCount)
	assert.Equal(t, 3, out[1].ID)
	assert.Equal(t, 5, out[2].ID)
	assert.Equal(t, 99, in[0].CharCount)
}

func TestNormalizeChapters_AllMissingIDs(t *testing.T) {
	out := NormalizeChapters([]Chapter{{}, {}, {}})
	for i, ch := range out {
		assert.Equal(t, i+1, ch.ID)
	}
}
