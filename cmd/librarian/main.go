// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	librarian "github.com/poiesic/librarian"
	"github.com/poiesic/librarian/ai"
	"github.com/poiesic/librarian/ai/openai"
	"github.com/poiesic/librarian/core"
	"github.com/poiesic/librarian/reembed"
	"github.com/poiesic/librarian/server"
	"github.com/poiesic/librarian/storage/badger"
)

func main() {
	app := &cli.App{
		Name:  "librarian",
		Usage: "Multi-mode semantic retrieval over a document corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the query API over HTTP",
				Action: serveCommand,
				Flags: append(libraryFlags(),
					&cli.StringFlag{
						Name:  "host",
						Usage: "Listen host",
						Value: "127.0.0.1",
					},
					&cli.IntFlag{
						Name:  "port",
						Usage: "Listen port",
						Value: 8080,
					},
					&cli.DurationFlag{
						Name:  "query-timeout",
						Usage: "Per-request query deadline",
						Value: 10 * time.Second,
					},
				),
			},
			{
				Name:      "query",
				Usage:     "Run a single query against the corpus",
				ArgsUsage: "<query text>",
				Action:    queryCommand,
				Flags: append(libraryFlags(),
					&cli.StringFlag{
						Name:    "mode",
						Aliases: []string{"m"},
						Usage:   "Retrieval mode (foundation, lateral, factcheck)",
						Value:   "foundation",
					},
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results",
						Value:   core.DefaultTopK,
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Fail instead of degrading when the corpus is too small",
					},
					&cli.Float64Flag{
						Name:  "min-confidence",
						Usage: "Factcheck support threshold (0 uses the engine default)",
					},
				),
			},
			{
				Name:   "seed",
				Usage:  "Ingest fragments from a JSONL file, or a small built-in corpus",
				Action: seedCommand,
				Flags: append(libraryFlags(),
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "JSONL file with one fragment per line (omit to use the built-in corpus)",
					},
				),
			},
			{
				Name:   "reembed",
				Usage:  "Regenerate embeddings for every stored chunk with the configured model",
				Action: reembedCommand,
				Flags: append(libraryFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Chunks per embedding batch",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Progress report frequency in chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Embedding retry attempts per batch",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay between embedding retries",
						Value: time.Second,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func libraryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:     "embedding-model",
			Usage:    "Embedding model name",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "dimension",
			Usage: "Embedding dimension",
			Value: 384,
		},
	}
}

func openLibrary(c *cli.Context) (*librarian.Library, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithDimension(c.Int("dimension")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	lib, err := librarian.NewLibrary(c.String("db"), librarian.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	return lib, nil
}

func serveCommand(c *cli.Context) error {
	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	cfg := server.DefaultConfig()
	cfg.Host = c.String("host")
	cfg.Port = c.Int("port")
	cfg.QueryTimeout = c.Duration("query-timeout")

	srv, err := server.New(cfg, lib)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}

func queryCommand(c *cli.Context) error {
	queryText := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if queryText == "" {
		return fmt.Errorf("query text is required")
	}

	mode, err := core.ParseRetrievalMode(c.String("mode"))
	if err != nil {
		return err
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	result, err := lib.Query(context.Background(), &core.QueryRequest{
		Text:          queryText,
		Mode:          mode,
		TopK:          c.Int("top-k"),
		Strict:        c.Bool("strict"),
		MinConfidence: float32(c.Float64("min-confidence")),
	})
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

func printResult(result *core.RetrievalResult) {
	fmt.Printf("Mode: %s  Confidence: %0.3f  Degraded: %v\n",
		result.Mode, result.Confidence, result.Degraded)

	for i, hit := range result.Chunks {
		fmt.Printf("%d: '%s' (%s)[%0.3f]\n", i, hit.Chunk.Label(), hit.Chunk.Id, hit.Relevance)
	}

	for _, conn := range result.LateralConnections {
		fmt.Printf("  %s --[%s %0.3f]--> %s\n", conn.From, conn.Dimension, conn.Strength, conn.To)
	}

	if v := result.FactVerification; v != nil {
		fmt.Printf("Verdict: %s (confidence %0.3f, %d supporting chunks)\n",
			v.Verdict, v.Confidence, len(v.SupportingChunks))
	}
}

// reembedCommand opens the store directly rather than through the library so
// that it can run when the stored dimension no longer matches the model.
func reembedCommand(c *cli.Context) error {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithDimension(c.Int("dimension")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	provider, err := openai.NewProvider(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}
	defer provider.Close()

	cfg := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := badger.NewChunkRepository(backend)
	return reembed.NewReembedder(store, provider.Embedder(), cfg, os.Stderr).Run(ctx)
}

func seedCommand(c *cli.Context) error {
	fragments := seedFragments()
	if path := c.String("file"); path != "" {
		var err error
		fragments, err = loadFragments(path)
		if err != nil {
			return err
		}
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	ids, err := lib.Ingest(context.Background(), fragments...)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Ingested %d fragments into %s\n", len(ids), c.String("db"))
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
