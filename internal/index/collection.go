package index

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/philippgille/chromem-go"

	"docqa/internal/models"
)

// Collection is a handle on one named, persisted set of chunk vectors.
// Contents are append-only at build time and never mutated afterwards.
type Collection struct {
	name       string
	persistDir string
	col        *chromem.Collection
	dimension  int
	mode       string
	count      int
}

// Query returns the topK highest-scoring entries by cosine similarity,
// sorted descending. Ties are broken by original insertion order; topK is
// clamped to the collection size.
func (c *Collection) Query(ctx context.Context, queryVector []float32, topK int) ([]models.ScoredChunk, error) {
	if topK <= 0 {
		return nil, models.WrapError(models.ErrValidation, fmt.Sprintf("query: topK %d must be positive", topK), nil)
	}
	if c.count == 0 {
		return nil, models.WrapError(models.ErrValidation, "query: collection is empty", nil)
	}
	if len(queryVector) != c.dimension {
		return nil, models.WrapError(models.ErrValidation,
			fmt.Sprintf("query: vector dimension %d does not match collection dimension %d", len(queryVector), c.dimension), nil)
	}
	if topK > c.count {
		topK = c.count
	}

	// Full scan: chromem leaves the order of equal scores unspecified, so we
	// re-rank all entries with a stable sort keyed by insertion sequence.
	results, err := c.col.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: queryVector,
		NResults:       c.count,
	})
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		return seqOf(results[i]) < seqOf(results[j])
	})
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > topK {
		results = results[:topK]
	}

	scored := make([]models.ScoredChunk, len(results))
	for i, result := range results {
		page, _ := strconv.Atoi(result.Metadata["page"])
		chars, _ := strconv.Atoi(result.Metadata["chars"])
		scored[i] = models.ScoredChunk{
			Chunk: models.Chunk{
				Text:       result.Content,
				ChunkID:    result.ID,
				SourcePage: page,
				CharCount:  chars,
			},
			Score: result.Similarity,
		}
	}
	return scored, nil
}

// Stats describes the collection.
func (c *Collection) Stats() models.IndexStats {
	return models.IndexStats{
		EntryCount:     c.count,
		CollectionName: c.name,
		PersistDir:     c.persistDir,
		Dimension:      c.dimension,
		EmbeddingMode:  c.mode,
	}
}

func seqOf(result chromem.Result) int {
	seq, _ := strconv.Atoi(result.Metadata["seq"])
	return seq
}
