package cli

import (
	"context"

	"github.com/lectern-dev/lectern/pkg/adapter"
	"github.com/lectern-dev/lectern/pkg/repository"
	"github.com/lectern-dev/lectern/pkg/usecase/answer"
	"github.com/lectern-dev/lectern/pkg/usecase/ingest"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// config holds configuration values shared across commands
type config struct {
	// Index
	databaseDSN  string
	memoryIndex  bool
	embeddingDim int

	// LLM
	geminiProject   string
	geminiLocation  string
	generativeModel string
	embeddingModel  string

	// Query behavior
	maxResults int
	maxHistory int
	toolRounds int

	// Ingestion
	chunkSize    int
	chunkOverlap int
}

func indexFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "PostgreSQL DSN for the pgvector index",
			Sources:     cli.EnvVars("LECTERN_DATABASE_DSN"),
			Destination: &cfg.databaseDSN,
		},
		&cli.BoolFlag{
			Name:        "memory",
			Usage:       "Use an in-memory index instead of PostgreSQL",
			Sources:     cli.EnvVars("LECTERN_MEMORY_INDEX"),
			Destination: &cfg.memoryIndex,
		},
		&cli.IntFlag{
			Name:        "embedding-dim",
			Usage:       "Embedding vector dimension",
			Value:       768,
			Sources:     cli.EnvVars("LECTERN_EMBEDDING_DIM"),
			Destination: &cfg.embeddingDim,
		},
	}
}

func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "generative-model",
			Usage:       "Model ID for answer generation",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("LECTERN_GENERATIVE_MODEL"),
			Destination: &cfg.generativeModel,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Model ID for embeddings",
			Value:       "gemini-embedding-001",
			Sources:     cli.EnvVars("LECTERN_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
	}
}

func queryFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "max-results",
			Usage:       "Maximum passages returned per search",
			Value:       5,
			Sources:     cli.EnvVars("LECTERN_MAX_RESULTS"),
			Destination: &cfg.maxResults,
		},
		&cli.IntFlag{
			Name:        "max-history",
			Usage:       "Exchanges kept per session",
			Value:       2,
			Sources:     cli.EnvVars("LECTERN_MAX_HISTORY"),
			Destination: &cfg.maxHistory,
		},
		&cli.IntFlag{
			Name:        "tool-rounds",
			Usage:       "Tool-use rounds allowed per query",
			Value:       1,
			Sources:     cli.EnvVars("LECTERN_TOOL_ROUNDS"),
			Destination: &cfg.toolRounds,
		},
	}
}

func ingestFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "chunk-size",
			Usage:       "Chunk size in characters",
			Value:       800,
			Sources:     cli.EnvVars("LECTERN_CHUNK_SIZE"),
			Destination: &cfg.chunkSize,
		},
		&cli.IntFlag{
			Name:        "chunk-overlap",
			Usage:       "Chunk overlap in characters",
			Value:       100,
			Sources:     cli.EnvVars("LECTERN_CHUNK_OVERLAP"),
			Destination: &cfg.chunkOverlap,
		},
	}
}

// newGemini creates the LLM adapter
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation,
		adapter.WithGenerativeModel(cfg.generativeModel),
		adapter.WithEmbeddingModel(cfg.embeddingModel),
	)
}

// newIndex creates the semantic index, pgvector-backed unless --memory
func (cfg *config) newIndex(ctx context.Context, embedder repository.Embedder) (repository.Index, error) {
	if cfg.memoryIndex {
		return repository.NewMemory(embedder,
			repository.WithMemoryMaxResults(cfg.maxResults)), nil
	}
	if cfg.databaseDSN == "" {
		return nil, goerr.New("database DSN is required (or pass --memory)")
	}
	return repository.NewPgVector(ctx, cfg.databaseDSN, embedder,
		repository.WithDimension(cfg.embeddingDim),
		repository.WithMaxResults(cfg.maxResults),
	)
}

// newAssistant wires the full query path
func (cfg *config) newAssistant(ctx context.Context) (*answer.Assistant, error) {
	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}
	index, err := cfg.newIndex(ctx, gemini)
	if err != nil {
		return nil, err
	}
	return answer.New(index, gemini,
		answer.WithMaxHistory(cfg.maxHistory),
		answer.WithToolRounds(cfg.toolRounds),
	)
}

// newIngester wires the ingestion path
func (cfg *config) newIngester(ctx context.Context) (*ingest.Ingester, error) {
	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}
	index, err := cfg.newIndex(ctx, gemini)
	if err != nil {
		return nil, err
	}
	return ingest.New(index, ingest.WithChunking(cfg.chunkSize, cfg.chunkOverlap)), nil
}
