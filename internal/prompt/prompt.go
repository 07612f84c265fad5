package prompt

import (
	"fmt"
	"strings"

	"docqa/internal/models"
)

// Builder assembles the generation prompt. The template is deterministic:
// grounding instruction first, retrieved context in retrieval order, the
// question last. An empty retrieval still yields a valid prompt that elicits
// the not-found response.
type Builder struct {
	Language       string
	NotFoundPhrase string
}

func NewBuilder(language, notFoundPhrase string) *Builder {
	if language == "" {
		language = models.DefaultAnswerLanguage
	}
	if notFoundPhrase == "" {
		notFoundPhrase = models.DefaultNotFoundPhrase
	}
	return &Builder{Language: language, NotFoundPhrase: notFoundPhrase}
}

func (b *Builder) Build(question string, retrieved []models.ScoredChunk) string {
	var context strings.Builder
	for i, scored := range retrieved {
		context.WriteString(fmt.Sprintf("[%d] (page %d) %s\n\n", i+1, scored.Chunk.SourcePage, scored.Chunk.Text))
	}

	return fmt.Sprintf(`You are an assistant answering questions about a single document.
Use ONLY the context below to answer. Do not use outside knowledge.
If the context does not contain the answer, reply exactly: %s
Answer in %s.

Context:
%s
Question: %s
`, b.NotFoundPhrase, b.Language, context.String(), question)
}
