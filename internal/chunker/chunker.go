package chunker

import (
	"fmt"
	"iter"

	"docqa/internal/models"
)

// lookBackDivisor bounds how far the chunker searches backwards for a
// whitespace boundary: the trailing tenth of the window.
const lookBackDivisor = 10

// Chunker splits normalized text into overlapping fixed-size spans.
// Consecutive chunks share exactly Overlap characters, except that the final
// chunk may be shorter than Size. Trailing content is never dropped.
type Chunker struct {
	Size    int
	Overlap int
}

func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, models.WrapError(models.ErrConfiguration, fmt.Sprintf("chunker: size %d must be positive", size), nil)
	}
	if overlap < 0 {
		return nil, models.WrapError(models.ErrConfiguration, fmt.Sprintf("chunker: overlap %d must not be negative", overlap), nil)
	}
	if overlap >= size {
		return nil, models.WrapError(models.ErrConfiguration, fmt.Sprintf("chunker: overlap %d must be smaller than size %d", overlap, size), nil)
	}
	return &Chunker{Size: size, Overlap: overlap}, nil
}

// Chunks returns a lazy, restartable sequence of chunks covering text.
// Splits prefer a whitespace boundary within the trailing tenth of the
// window; a hard cut is used when no boundary exists there or when the
// boundary would prevent forward progress.
func (c *Chunker) Chunks(text, source string, page int) iter.Seq[models.Chunk] {
	return func(yield func(models.Chunk) bool) {
		if text == "" {
			return
		}
		seq := 0
		start := 0
		for start < len(text) {
			end := start + c.Size
			if end >= len(text) {
				end = len(text)
			} else {
				end = c.boundaryCut(text, start, end)
			}
			seq++
			chunk := models.Chunk{
				Text:       text[start:end],
				ChunkID:    fmt.Sprintf("%s-p%d-c%d", source, page, seq),
				SourcePage: page,
				CharCount:  end - start,
			}
			if !yield(chunk) {
				return
			}
			if end == len(text) {
				return
			}
			start = end - c.Overlap
		}
	}
}

// Split collects the chunk sequence into a slice.
func (c *Chunker) Split(text, source string, page int) []models.Chunk {
	var chunks []models.Chunk
	for chunk := range c.Chunks(text, source, page) {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func (c *Chunker) boundaryCut(text string, start, end int) int {
	lookBack := c.Size / lookBackDivisor
	for i := end - 1; i >= end-lookBack && i > start; i-- {
		if text[i] == ' ' {
			if i+1-c.Overlap > start {
				return i + 1
			}
			break
		}
	}
	return end
}
