package chunker

import (
	"fmt"
	"strings"

	apperr "github.com/keenlabs/docvec/internal/pkg/errors"
)

// Chunker splits document text into overlapping character windows, snapping
// the cut to the last sentence terminator or line break when one exists past
// the halfway mark of the window. Split is a pure function of its input, so
// re-running ingestion over unchanged content reproduces the same chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", apperr.ErrInvalid, chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", apperr.ErrInvalid, overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d, the window would never advance",
			apperr.ErrInvalid, overlap, chunkSize)
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

func (c *Chunker) ChunkSize() int { return c.chunkSize }
func (c *Chunker) Overlap() int   { return c.overlap }

// Split chunks text into stripped, non-empty segments. Consecutive chunks
// share overlap characters of context. Character counts are rune counts, so
// multi-byte text does not split inside a code point.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	length := len(runes)

	var chunks []string
	start := 0
	for start < length {
		end := start + c.chunkSize
		sliceEnd := end
		if sliceEnd > length {
			sliceEnd = length
		}

		if end < length {
			window := runes[start:sliceEnd]
			if cut := lastBreak(window); 2*cut > c.chunkSize {
				end = start + cut + 1
				sliceEnd = end
			}
		}

		chunk := strings.TrimSpace(string(runes[start:sliceEnd]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := end - c.overlap
		if next <= start {
			// Boundary snapping pulled the window back past the overlap.
			// Advance without overlap rather than loop forever.
			next = sliceEnd
		}
		start = next
	}
	return chunks
}

// lastBreak returns the index of the last sentence terminator (". ") or
// line break inside window, or -1 if there is none.
func lastBreak(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '\n' {
			return i
		}
		if window[i] == '.' && i+1 < len(window) && window[i+1] == ' ' {
			return i
		}
	}
	return -1
}
