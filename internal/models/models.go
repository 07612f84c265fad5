package models

// Page is the text of a single document page after extraction.
type Page struct {
	Text       string
	Number     int
	SourceName string
	CharCount  int
}

// Chunk is a bounded span of normalized text, the unit of embedding and retrieval.
type Chunk struct {
	Text       string
	ChunkID    string
	SourcePage int
	CharCount  int
}

// ScoredChunk is a retrieved chunk with its similarity score.
type ScoredChunk struct {
	Chunk Chunk
	Score float32
}

// Answer is the final generated response plus the chunks it was grounded in.
type Answer struct {
	Text    string
	Sources []ScoredChunk
}

// IndexStats describes a persisted collection.
type IndexStats struct {
	EntryCount     int
	CollectionName string
	PersistDir     string
	Dimension      int
	EmbeddingMode  string
}

// SessionStats extends index stats with the session's retrieval configuration.
type SessionStats struct {
	IndexStats
	ChunkSize    int
	ChunkOverlap int
	TopK         int
}
