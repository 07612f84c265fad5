package rag

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/embedding"
	"docqa/internal/extractor"
	"docqa/internal/index"
	"docqa/internal/llm"
	"docqa/internal/models"
	"docqa/internal/normalize"
	"docqa/internal/prompt"
	"docqa/internal/retriever"
)

// State of a session. Transitions only move forward: a built or loaded
// collection is never mutated; rebuilding requires a new IngestAndBuild.
type State int

const (
	StateUninitialized State = iota
	StateIndexed
	StateQueryReady
)

func (s State) String() string {
	switch s {
	case StateIndexed:
		return "indexed"
	case StateQueryReady:
		return "query-ready"
	default:
		return "uninitialized"
	}
}

// Session orchestrates ingestion, indexing and querying for one document.
// It owns the provider configuration and the active collection handle.
type Session struct {
	cfg       *config.Config
	provider  embedding.Provider
	generator llm.Generator
	chunks    *chunker.Chunker
	builder   *prompt.Builder

	state      State
	collection *index.Collection
	topK       int
}

func NewSession(cfg *config.Config, provider embedding.Provider, generator llm.Generator) (*Session, error) {
	chunks, err := chunker.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	return &Session{
		cfg:       cfg,
		provider:  provider,
		generator: generator,
		chunks:    chunks,
		builder:   prompt.NewBuilder(cfg.RAG.AnswerLanguage, cfg.RAG.NotFoundPhrase),
		state:     StateUninitialized,
	}, nil
}

// IngestAndBuild extracts the document, normalizes and filters its pages,
// chunks the survivors and builds the collection. On failure the session
// stays Uninitialized.
func (s *Session) IngestAndBuild(ctx context.Context, filePath string) error {
	pages, err := extractor.Pages(filePath)
	if err != nil {
		return err
	}
	return s.BuildFromPages(ctx, pages)
}

// BuildFromPages normalizes and filters already extracted pages, chunks the
// survivors and builds the collection.
func (s *Session) BuildFromPages(ctx context.Context, pages []models.Page) error {
	var chunks []models.Chunk
	kept := 0
	for _, page := range pages {
		normalized := normalize.Normalize(page.Text)
		if normalize.TooShort(normalized, models.MinPageChars) {
			log.Debug().Int("page", page.Number).Int("chars", len(normalized)).Msg("dropping short page")
			continue
		}
		kept++
		chunks = append(chunks, s.chunks.Split(normalized, page.SourceName, page.Number)...)
	}
	if len(chunks) == 0 {
		return models.WrapError(models.ErrNoValidContent, "ingest: no page passed the quality filter", nil)
	}
	log.Info().Int("pages", len(pages)).Int("kept", kept).Int("chunks", len(chunks)).Msg("ingested document")

	collection, err := index.Build(ctx, chunks, s.provider, s.cfg.Storage.Collection, s.cfg.Storage.Dir, index.BuildOptions{
		Concurrency:   s.cfg.Embed.Concurrency,
		RatePerSecond: s.cfg.Embed.RatePerSecond,
		SourceName:    pages[0].SourceName,
	})
	if err != nil {
		return err
	}

	s.collection = collection
	s.state = StateIndexed
	return nil
}

// LoadExisting opens a previously built collection without re-embedding.
// On failure the session stays Uninitialized and the caller may fall back
// to IngestAndBuild.
func (s *Session) LoadExisting(ctx context.Context, collectionName string) error {
	if collectionName == "" {
		collectionName = s.cfg.Storage.Collection
	}
	collection, err := index.Load(collectionName, s.cfg.Storage.Dir, s.provider)
	if err != nil {
		return err
	}
	s.collection = collection
	s.state = StateIndexed
	return nil
}

// ConfigureRetrieval fixes the top-k contract and makes the session
// query-ready.
func (s *Session) ConfigureRetrieval(topK int) error {
	if s.state == StateUninitialized {
		return models.WrapError(models.ErrNotReady, "configure retrieval: no collection, ingest or load first", nil)
	}
	if topK <= 0 {
		return models.WrapError(models.ErrValidation, fmt.Sprintf("configure retrieval: topK %d must be positive", topK), nil)
	}
	s.topK = topK
	s.state = StateQueryReady
	return nil
}

// Query retrieves the top-k chunks for the question, builds a grounded
// prompt, generates and cleans the answer. The session stays QueryReady.
func (s *Session) Query(ctx context.Context, question string) (*models.Answer, error) {
	if s.state != StateQueryReady {
		return nil, models.WrapError(models.ErrNotReady, fmt.Sprintf("query: session is %s, call ConfigureRetrieval first", s.state), nil)
	}

	retrieve := retriever.New(s.provider, s.collection)
	retrieved, err := retrieve.Retrieve(ctx, question, s.topK)
	if err != nil {
		return nil, err
	}

	promptText := s.builder.Build(question, retrieved)
	raw, err := s.generator.Generate(ctx, promptText, llm.ParamsFromConfig(&s.cfg.Gen))
	if err != nil {
		return nil, err
	}

	return &models.Answer{
		Text:    prompt.Postprocess(raw),
		Sources: retrieved,
	}, nil
}

// Stats reports the collection and retrieval configuration.
func (s *Session) Stats() (models.SessionStats, error) {
	if s.state == StateUninitialized {
		return models.SessionStats{}, models.WrapError(models.ErrNotReady, "stats: no collection", nil)
	}
	return models.SessionStats{
		IndexStats:   s.collection.Stats(),
		ChunkSize:    s.chunks.Size,
		ChunkOverlap: s.chunks.Overlap,
		TopK:         s.topK,
	}, nil
}

// State exposes the current lifecycle state.
func (s *Session) State() State {
	return s.state
}
