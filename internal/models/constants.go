package models

const (
	// MinPageChars is the quality filter against extraction noise: pages
	// shorter than this after normalization are dropped, not reported.
	MinPageChars = 50

	DefaultChunkSize    = 1000 // characters
	DefaultChunkOverlap = 150  // characters
	DefaultTopK         = 5

	DefaultCollectionName = "docqa_collection"
	DefaultPersistDir     = "./docqa-index"

	DefaultNotFoundPhrase = "The answer is not found in the document."
	DefaultAnswerLanguage = "English"

	ThinkTag = `(?s)<think>.*?</think>`
)

// ControlTokens are template artifacts a generation backend may echo back.
var ControlTokens = []string{
	"<|im_start|>", "<|im_end|>", "<|assistant|>", "<|user|>", "<|system|>",
	"<|endoftext|>", "<s>", "</s>", "[INST]", "[/INST]",
}
