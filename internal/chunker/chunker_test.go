package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apperr "github.com/keenlabs/docvec/internal/pkg/errors"
)

func TestNew_RejectsOverlapNotSmallerThanChunkSize(t *testing.T) {
	_, err := New(100, 100)
	require.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = New(100, 150)
	require.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = New(0, 0)
	require.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = New(100, -1)
	require.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestSplit_ShortTextYieldsSingleChunk(t *testing.T) {
	c, err := New(1000, 200)
	require.NoError(t, err)

	chunks := c.Split("just a short note")
	require.Equal(t, []string{"just a short note"}, chunks)
}

func TestSplit_EmptyAndWhitespaceTextYieldsNothing(t *testing.T) {
	c, err := New(100, 20)
	require.NoError(t, err)

	require.Empty(t, c.Split(""))
	require.Empty(t, c.Split("   \n\t  "))
}

func TestSplit_SentenceBoundaryScenario(t *testing.T) {
	c, err := New(5, 2)
	require.NoError(t, err)

	chunks := c.Split("A. B. C. D.")
	require.Equal(t, []string{"A. B.", "B. C.", "C. D.", "D."}, chunks)
}

func TestSplit_SnapsToSentenceBoundaryPastHalfway(t *testing.T) {
	c, err := New(20, 4)
	require.NoError(t, err)

	// The last ". " inside the first 20-char window sits at index 14,
	// past the halfway mark, so the chunk ends there instead of mid-word.
	text := "First sentence. Second sentence here."
	chunks := c.Split(text)
	require.Equal(t, "First sentence.", chunks[0])
}

func TestSplit_SnapsToNewline(t *testing.T) {
	c, err := New(20, 4)
	require.NoError(t, err)

	text := "line one is here\nline two follows after"
	chunks := c.Split(text)
	require.Equal(t, "line one is here", chunks[0])
}

func TestSplit_TerminatorFreeTextHardTruncates(t *testing.T) {
	c, err := New(10, 3)
	require.NoError(t, err)

	text := strings.Repeat("x", 25)
	chunks := c.Split(text)
	require.Equal(t, []string{
		strings.Repeat("x", 10),
		strings.Repeat("x", 10),
		strings.Repeat("x", 10),
		strings.Repeat("x", 4),
	}, chunks)
}

func TestSplit_Deterministic(t *testing.T) {
	c, err := New(50, 10)
	require.NoError(t, err)

	text := "Alpha beta gamma. Delta epsilon zeta.\nEta theta iota kappa lambda. Mu nu xi omicron pi rho sigma tau."
	first := c.Split(text)
	second := c.Split(text)
	require.Equal(t, first, second)
	require.NotEmpty(t, first)
}

func TestSplit_NoEmptyChunks(t *testing.T) {
	c, err := New(8, 2)
	require.NoError(t, err)

	text := "a.  \n\n  b.  \n\n  c.  \n\n  d.  \n\n  e."
	for _, chunk := range c.Split(text) {
		require.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestSplit_ConsecutiveChunksOverlap(t *testing.T) {
	c, err := New(10, 3)
	require.NoError(t, err)

	text := strings.Repeat("abcdefghij", 4)
	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1][len(chunks[i-1])-3:]
		require.True(t, strings.HasPrefix(chunks[i], prevTail),
			"chunk %d should start with the last 3 chars of chunk %d", i, i-1)
	}
}

func TestSplit_CoverageHasNoGaps(t *testing.T) {
	c, err := New(30, 6)
	require.NoError(t, err)

	// Terminator-free input keeps windows at full size, so concatenating
	// chunks with the overlap removed must reconstruct the source exactly.
	text := strings.Repeat("0123456789", 13)
	chunks := c.Split(text)
	rebuilt := chunks[0]
	for i := 1; i < len(chunks); i++ {
		overlap := 6
		if overlap > len(chunks[i]) {
			overlap = len(chunks[i])
		}
		rebuilt += chunks[i][overlap:]
	}
	require.Equal(t, text, rebuilt)
}

func TestSplit_MultiByteTextCountsRunes(t *testing.T) {
	c, err := New(4, 1)
	require.NoError(t, err)

	chunks := c.Split("ααααββββ")
	require.Equal(t, []string{"αααα", "αβββ", "ββ"}, chunks)
}
