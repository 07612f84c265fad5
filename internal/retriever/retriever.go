package retriever

import (
	"context"
	"fmt"

	"docqa/internal/embedding"
	"docqa/internal/index"
	"docqa/internal/models"
)

// Retriever turns a question into a ranked set of chunks. It is a thin
// contract over the index so retrieval policy can change without touching
// the index internals.
type Retriever struct {
	provider   embedding.Provider
	collection *index.Collection
}

func New(provider embedding.Provider, collection *index.Collection) *Retriever {
	return &Retriever{provider: provider, collection: collection}
}

// Retrieve embeds the question and runs a top-k similarity query.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]models.ScoredChunk, error) {
	queryVector, err := r.provider.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	return r.collection.Query(ctx, queryVector, topK)
}
