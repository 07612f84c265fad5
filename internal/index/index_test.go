package index

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/models"
)

// fakeProvider produces deterministic unit vectors without any network.
// Embed runs concurrently during a build, so the call counter is atomic.
type fakeProvider struct {
	mode   string
	embed  func(text string) []float32
	called atomic.Int64
}

func (f *fakeProvider) Embed(_ context.Context, text string) ([]float32, error) {
	f.called.Add(1)
	return f.embed(text), nil
}

func (f *fakeProvider) Dimension() int { return 4 }

func (f *fakeProvider) Mode() string {
	if f.mode == "" {
		return "local"
	}
	return f.mode
}

// hashVector is a stable unit vector derived from the text.
func hashVector(text string) []float32 {
	v := [4]float64{1, 1, 1, 1}
	for i, r := range text {
		v[i%4] += float64(r%13) / 13
	}
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	out := make([]float32, 4)
	for i, x := range v {
		out[i] = float32(x / norm)
	}
	return out
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{embed: hashVector}
}

func testChunks(n int) []models.Chunk {
	chunks := make([]models.Chunk, n)
	for i := range chunks {
		text := fmt.Sprintf("chunk number %d talks about topic %d in some detail", i, i)
		chunks[i] = models.Chunk{
			Text:       text,
			ChunkID:    fmt.Sprintf("doc-p1-c%d", i+1),
			SourcePage: 1,
			CharCount:  len(text),
		}
	}
	return chunks
}

func TestBuildRejectsEmptyChunks(t *testing.T) {
	_, err := Build(context.Background(), nil, newFakeProvider(), "col", t.TempDir(), BuildOptions{})
	assert.ErrorIs(t, err, models.ErrIndexBuild)
}

func TestBuildAndQuery(t *testing.T) {
	dir := t.TempDir()
	col, err := Build(context.Background(), testChunks(5), newFakeProvider(), "col", dir, BuildOptions{})
	require.NoError(t, err)

	stats := col.Stats()
	assert.Equal(t, 5, stats.EntryCount)
	assert.Equal(t, "col", stats.CollectionName)
	assert.Equal(t, dir, stats.PersistDir)
	assert.Equal(t, 4, stats.Dimension)
	assert.Equal(t, "local", stats.EmbeddingMode)

	results, err := col.Query(context.Background(), hashVector("chunk number 2"), 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score, "scores must be non-increasing")
	}
}

func TestQueryClampsTopK(t *testing.T) {
	col, err := Build(context.Background(), testChunks(3), newFakeProvider(), "col", t.TempDir(), BuildOptions{})
	require.NoError(t, err)

	results, err := col.Query(context.Background(), hashVector("anything"), 10)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestQueryValidation(t *testing.T) {
	col, err := Build(context.Background(), testChunks(3), newFakeProvider(), "col", t.TempDir(), BuildOptions{})
	require.NoError(t, err)

	_, err = col.Query(context.Background(), hashVector("q"), 0)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = col.Query(context.Background(), hashVector("q"), -1)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = col.Query(context.Background(), []float32{1}, 2)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestQueryTieBreakIsInsertionOrder(t *testing.T) {
	constant := &fakeProvider{embed: func(string) []float32 { return []float32{1, 0, 0, 0} }}
	col, err := Build(context.Background(), testChunks(4), constant, "col", t.TempDir(), BuildOptions{})
	require.NoError(t, err)

	// Every entry scores identically, so the order must be insertion order.
	results, err := col.Query(context.Background(), []float32{1, 0, 0, 0}, 4)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i, result := range results {
		assert.Equal(t, fmt.Sprintf("doc-p1-c%d", i+1), result.Chunk.ChunkID)
	}
}

func TestBuildLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	chunks := testChunks(4)
	provider := newFakeProvider()

	built, err := Build(context.Background(), chunks, provider, "col", dir, BuildOptions{})
	require.NoError(t, err)
	embedsAfterBuild := provider.called.Load()

	loaded, err := Load("col", dir, provider)
	require.NoError(t, err)
	assert.Equal(t, embedsAfterBuild, provider.called.Load(), "load must not recompute embeddings")
	assert.Equal(t, built.Stats().EntryCount, loaded.Stats().EntryCount)

	// The logical index must be identical: same chunks come back.
	results, err := loaded.Query(context.Background(), hashVector("chunk number 1"), 4)
	require.NoError(t, err)
	texts := make(map[string]string, len(results))
	for _, result := range results {
		texts[result.Chunk.ChunkID] = result.Chunk.Text
	}
	for _, chunk := range chunks {
		assert.Equal(t, chunk.Text, texts[chunk.ChunkID])
	}
}

func TestLoadMissingCollection(t *testing.T) {
	_, err := Load("nope", t.TempDir(), newFakeProvider())
	assert.ErrorIs(t, err, models.ErrCollectionNotFound)
}

func TestLoadRejectsProviderMismatch(t *testing.T) {
	dir := t.TempDir()
	_, err := Build(context.Background(), testChunks(2), newFakeProvider(), "col", dir, BuildOptions{})
	require.NoError(t, err)

	remote := &fakeProvider{mode: "remote", embed: hashVector}
	_, err = Load("col", dir, remote)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestConcurrentBuildIsRejected(t *testing.T) {
	dir := t.TempDir()
	key := buildKey("col", dir)
	require.True(t, lockBuild(key))
	defer unlockBuild(key)

	_, err := Build(context.Background(), testChunks(2), newFakeProvider(), "col", dir, BuildOptions{})
	assert.ErrorIs(t, err, models.ErrConcurrentBuild)
}

func TestBuildRejectsDimensionMismatch(t *testing.T) {
	short := &fakeProvider{embed: func(string) []float32 { return []float32{1, 0} }}
	_, err := Build(context.Background(), testChunks(2), short, "col", t.TempDir(), BuildOptions{})
	assert.ErrorIs(t, err, models.ErrValidation)
}
