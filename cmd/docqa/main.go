package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docqa/internal/config"
	"docqa/internal/embedding"
	"docqa/internal/llm"
	"docqa/internal/models"
	"docqa/internal/rag"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	filePath := flag.String("file", "", "Path to the document to ingest and index")
	collection := flag.String("collection", "", "Collection name to load instead of ingesting")
	query := flag.String("query", "", "Single question to answer, skips the interactive loop")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// .env is optional, the environment may already carry the credential.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	if cfg.Embed.Provider == embedding.ModeRemote && cfg.Embed.APIKey() == "" {
		log.Fatal().Msgf("Missing credential: set %s in the environment or a .env file, "+
			"or switch embed_llm.provider to local", cfg.Embed.APIKeyEnv)
	}

	provider, err := embedding.NewProvider(&cfg.Embed)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedding provider")
	}
	generator, err := llm.NewGenerator(&cfg.Gen)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing generator")
	}

	session, err := rag.NewSession(cfg, provider, generator)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating session")
	}

	ctx := context.Background()
	if *filePath != "" {
		if err := session.IngestAndBuild(ctx, *filePath); err != nil {
			log.Fatal().Err(err).Msg("Error building index")
		}
	} else {
		if err := session.LoadExisting(ctx, *collection); err != nil {
			if errors.Is(err, models.ErrCollectionNotFound) {
				log.Fatal().Err(err).Msg("No existing collection, provide a document with -file")
			}
			log.Fatal().Err(err).Msg("Error loading collection")
		}
	}

	if err := session.ConfigureRetrieval(cfg.RAG.TopK); err != nil {
		log.Fatal().Err(err).Msg("Error configuring retrieval")
	}

	if *query != "" {
		answer(ctx, session, *query)
		return
	}

	runLoop(ctx, session)
}

func runLoop(ctx context.Context, session *rag.Session) {
	fmt.Println("Commands: ask <question> | stats | quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "quit":
			return
		case line == "stats":
			printStats(session)
		case strings.HasPrefix(line, "ask "):
			answer(ctx, session, strings.TrimSpace(strings.TrimPrefix(line, "ask ")))
		default:
			fmt.Println("Unknown command. Use: ask <question> | stats | quit")
		}
	}
}

func printStats(session *rag.Session) {
	stats, err := session.Stats()
	if err != nil {
		log.Error().Err(err).Msg("Error reading stats")
		return
	}
	fmt.Printf("collection: %s (%s)\n", stats.CollectionName, stats.PersistDir)
	fmt.Printf("entries: %d, dimension: %d, embedding mode: %s\n", stats.EntryCount, stats.Dimension, stats.EmbeddingMode)
	fmt.Printf("chunk size: %d, overlap: %d, top-k: %d\n", stats.ChunkSize, stats.ChunkOverlap, stats.TopK)
}

func answer(ctx context.Context, session *rag.Session, question string) {
	result, err := session.Query(ctx, question)
	if err != nil {
		if errors.Is(err, models.ErrTransient) {
			log.Error().Err(err).Msg("Query failed, the operation may be retried")
			return
		}
		log.Error().Err(err).Msg("Error querying")
		return
	}
	fmt.Printf("\n%s\n\n", result.Text)
	for i, source := range result.Sources {
		log.Debug().Int("rank", i+1).Str("chunk", source.Chunk.ChunkID).Float32("score", source.Score).Msg("source")
	}
}
