package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepxiv/deepxiv-go/reader"
)

func TestSession_PaperCacheSeedIsCopied(t *testing.T) {
	seed := map[string]*reader.PaperHead{
		"2303.08774": {ArxivID: "2303.08774", Title: "GPT-4 Technical Report"},
	}
	session := NewSession(seed, []string{"2303.08774"})

	session.PutPaper(&reader.PaperHead{ArxivID: "2201.11903", Title: "Chain-of-Thought"})

	assert.Len(t, seed, 1, "session mutation must not leak into the seed map")
	require.Len(t, session.Papers(), 2)
	assert.Equal(t, "2303.08774", session.Papers()[0].ArxivID, "insertion order preserved")
	assert.Equal(t, "2201.11903", session.Papers()[1].ArxivID)
}

func TestSession_PutPaperIsInsertIfAbsent(t *testing.T) {
	session := NewSession(nil, nil)
	original := &reader.PaperHead{ArxivID: "2303.08774", Title: "Original"}

	assert.True(t, session.PutPaper(original))
	assert.False(t, session.PutPaper(&reader.PaperHead{ArxivID: "2303.08774", Title: "Replacement"}))

	head, ok := session.Paper("2303.08774")
	require.True(t, ok)
	assert.Equal(t, "Original", head.Title)
	assert.Len(t, session.Papers(), 1)
}

func TestSession_SectionCache(t *testing.T) {
	session := NewSession(nil, nil)

	_, ok := session.CachedSection("2303.08774", "Introduction")
	assert.False(t, ok)

	session.PutSection("2303.08774", "Introduction", "text")
	content, ok := session.CachedSection("2303.08774", "Introduction")
	assert.True(t, ok)
	assert.Equal(t, "text", content)

	// Keys are canonical names; a different paper id misses.
	_, ok = session.CachedSection("2201.11903", "Introduction")
	assert.False(t, ok)
}

func TestFormatPaperContext(t *testing.T) {
	assert.Equal(t, "No papers have been loaded yet.", formatPaperContext(nil))

	ctx := formatPaperContext([]*reader.PaperHead{
		{ArxivID: "2303.08774", Title: "GPT-4 Technical Report", Abstract: "We report the development of GPT-4."},
	})
	assert.Contains(t, ctx, "2303.08774")
	assert.Contains(t, ctx, "GPT-4 Technical Report")
}
