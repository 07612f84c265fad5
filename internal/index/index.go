package index

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"docqa/internal/embedding"
	"docqa/internal/models"
)

const compress = false

// BuildOptions tune the embedding fan-out during a build.
type BuildOptions struct {
	Concurrency   int
	RatePerSecond float64
	SourceName    string
}

func (o BuildOptions) normalize() BuildOptions {
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.RatePerSecond <= 0 {
		o.RatePerSecond = 8
	}
	return o
}

// Build embeds every chunk and stores the vectors plus chunk metadata under
// the named collection at persistDir, creating the directory if absent. The
// returned handle is immediately usable for querying. Collections have a
// single-writer discipline: a second build against the same
// (collectionName, persistDir) while one is in flight is rejected.
func Build(ctx context.Context, chunks []models.Chunk, provider embedding.Provider, collectionName, persistDir string, opts BuildOptions) (*Collection, error) {
	if len(chunks) == 0 {
		return nil, models.WrapError(models.ErrIndexBuild, "build index: no chunks supplied", nil)
	}
	opts = opts.normalize()

	key := buildKey(collectionName, persistDir)
	if !lockBuild(key) {
		return nil, models.WrapError(models.ErrConcurrentBuild, fmt.Sprintf("build index: collection %s at %s", collectionName, persistDir), nil)
	}
	defer unlockBuild(key)

	if err := os.MkdirAll(persistDir, 0o755); err != nil {
		return nil, models.WrapError(models.ErrIndexBuild, "create persist dir", err)
	}

	vectors, err := embedChunks(ctx, chunks, provider, opts)
	if err != nil {
		return nil, err
	}

	db, err := chromem.NewPersistentDB(persistDir, compress)
	if err != nil {
		return nil, models.WrapError(models.ErrIndexBuild, "open vector database", err)
	}
	// A rebuild replaces the previous collection wholesale; there is no
	// incremental ingestion.
	if err := db.DeleteCollection(collectionName); err != nil {
		return nil, models.WrapError(models.ErrIndexBuild, "replace collection", err)
	}
	col, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, models.WrapError(models.ErrIndexBuild, "create collection", err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:        chunk.ChunkID,
			Content:   chunk.Text,
			Embedding: vectors[i],
			Metadata: map[string]string{
				"page":  strconv.Itoa(chunk.SourcePage),
				"chars": strconv.Itoa(chunk.CharCount),
				"seq":   strconv.Itoa(i),
			},
		}
	}
	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, models.WrapError(models.ErrIndexBuild, "store documents", err)
	}

	meta := collectionMeta{
		Collection:    collectionName,
		Dimension:     provider.Dimension(),
		EmbeddingMode: provider.Mode(),
		EntryCount:    len(docs),
		DocumentID:    uuid.NewString(),
		SourceName:    opts.SourceName,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if err := writeMeta(persistDir, collectionName, meta); err != nil {
		return nil, models.WrapError(models.ErrIndexBuild, "write collection metadata", err)
	}

	log.Info().Str("collection", collectionName).Str("dir", persistDir).Int("entries", len(docs)).Msg("built collection")
	return &Collection{
		name:       collectionName,
		persistDir: persistDir,
		col:        col,
		dimension:  meta.Dimension,
		mode:       meta.EmbeddingMode,
		count:      meta.EntryCount,
	}, nil
}

// Load reopens an existing collection without recomputing embeddings. A
// missing or unreadable collection yields ErrCollectionNotFound so the
// caller can fall back to Build; a provider mismatch yields ErrValidation
// because querying it would compare vectors from different spaces.
func Load(collectionName, persistDir string, provider embedding.Provider) (*Collection, error) {
	meta, err := readMeta(persistDir, collectionName)
	if err != nil {
		return nil, models.WrapError(models.ErrCollectionNotFound, fmt.Sprintf("load collection %s at %s", collectionName, persistDir), err)
	}
	if meta.EmbeddingMode != provider.Mode() {
		return nil, models.WrapError(models.ErrValidation,
			fmt.Sprintf("load collection: built with %s embeddings, session uses %s, rebuild required", meta.EmbeddingMode, provider.Mode()), nil)
	}
	if meta.Dimension != provider.Dimension() {
		return nil, models.WrapError(models.ErrValidation,
			fmt.Sprintf("load collection: dimension %d does not match provider dimension %d, rebuild required", meta.Dimension, provider.Dimension()), nil)
	}

	db, err := chromem.NewPersistentDB(persistDir, compress)
	if err != nil {
		return nil, models.WrapError(models.ErrCollectionNotFound, "open vector database", err)
	}
	col := db.GetCollection(collectionName, nil)
	if col == nil {
		return nil, models.WrapError(models.ErrCollectionNotFound, fmt.Sprintf("load collection %s at %s", collectionName, persistDir), nil)
	}
	count := col.Count()
	if count == 0 || count != meta.EntryCount {
		return nil, models.WrapError(models.ErrCollectionNotFound,
			fmt.Sprintf("load collection: stored %d entries, metadata says %d", count, meta.EntryCount), nil)
	}

	log.Info().Str("collection", collectionName).Str("dir", persistDir).Int("entries", count).Msg("loaded collection")
	return &Collection{
		name:       collectionName,
		persistDir: persistDir,
		col:        col,
		dimension:  meta.Dimension,
		mode:       meta.EmbeddingMode,
		count:      count,
	}, nil
}

// embedChunks fans out embed calls; each one is independent and the write
// side is append-only, so no coordination is needed beyond the error group.
func embedChunks(ctx context.Context, chunks []models.Chunk, provider embedding.Provider, opts BuildOptions) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	limiter := rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Concurrency)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			vector, err := provider.Embed(ctx, chunk.Text)
			if err != nil {
				return fmt.Errorf("embed chunk %s: %w", chunk.ChunkID, err)
			}
			if len(vector) != provider.Dimension() {
				return models.WrapError(models.ErrValidation,
					fmt.Sprintf("embed chunk %s: got dimension %d, provider declares %d", chunk.ChunkID, len(vector), provider.Dimension()), nil)
			}
			vectors[i] = vector
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
