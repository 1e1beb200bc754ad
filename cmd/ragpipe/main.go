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
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/ragpipe"
	"github.com/poiesic/ragpipe/ai"
	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/extract/tesseract"
	"github.com/poiesic/ragpipe/monitor"
	"github.com/poiesic/ragpipe/query"
	"github.com/poiesic/ragpipe/storage/badger"
	"github.com/poiesic/ragpipe/vectorstore/qdrant"
)

func main() {
	app := &cli.App{
		Name:  "ragpipe",
		Usage: "Document ingestion and retrieval-augmented question answering",
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
				Name:      "ingest",
				Usage:     "Ingest documents into the vector store",
				ArgsUsage: "FILE [FILE...]",
				Action:    ingestCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:     "department",
						Usage:    "Department the documents belong to",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "ocr",
						Usage: "Enable OCR for images and scanned PDFs",
					},
					&cli.StringFlag{
						Name:  "ocr-languages",
						Usage: "Comma-separated Tesseract language codes",
						Value: "eng",
					},
				),
			},
			{
				Name:      "query",
				Usage:     "Answer a question against ingested documents",
				ArgsUsage: "QUESTION",
				Action:    queryCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:     "department",
						Usage:    "Department to search in",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of chunks to retrieve",
						Value: query.DefaultTopK,
					},
				),
			},
			{
				Name:   "documents",
				Usage:  "List ingested document metadata",
				Action: documentsCommand,
				Flags: []cli.Flag{
					dbFlag(),
				},
			},
			{
				Name:   "history",
				Usage:  "Show recent query history",
				Action: historyCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of records to show",
						Value: 20,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
	}
}

// engineFlags are shared by every command that needs the full engine.
func engineFlags() []cli.Flag {
	return []cli.Flag{
		dbFlag(),
		&cli.StringFlag{
			Name:  "qdrant",
			Usage: "Qdrant gRPC address",
			Value: qdrant.DefaultAddress,
		},
		&cli.StringFlag{
			Name:  "collection",
			Usage: "Qdrant collection name",
			Value: qdrant.DefaultCollection,
		},
		&cli.StringFlag{
			Name:  "ai-host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "generation-model",
			Usage: "Generation model name",
			Value: "qwen2.5:3b",
		},
		&cli.Float64Flag{
			Name:  "temperature",
			Usage: "Generation sampling temperature",
			Value: 0.7,
		},
		&cli.Float64Flag{
			Name:  "top-p",
			Usage: "Generation nucleus sampling parameter",
			Value: 0.95,
		},
	}
}

// newEngine builds the engine from command flags.
func newEngine(ctx context.Context, c *cli.Context, extra ...ragpipe.EngineOption) (*ragpipe.Engine, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGenerationModel(c.String("generation-model")),
		ai.WithSampling(c.Float64("temperature"), c.Float64("top-p")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := []ragpipe.EngineOption{
		ragpipe.WithAIConfig(aiConfig),
		ragpipe.WithQdrant(c.String("qdrant"), c.String("collection")),
		ragpipe.WithMonitor(monitor.NewSlogMonitor(slog.Default())),
	}
	opts = append(opts, extra...)

	return ragpipe.NewEngine(ctx, c.String("db"), opts...)
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file path is required")
	}
	ctx := context.Background()

	var extra []ragpipe.EngineOption
	if c.Bool("ocr") {
		languages := strings.Split(c.String("ocr-languages"), ",")
		ocr, err := tesseract.New(languages...)
		if err != nil {
			return fmt.Errorf("failed to initialize OCR: %w", err)
		}
		defer ocr.Close()
		extra = append(extra, ragpipe.WithOCR(ocr))
	}

	engine, err := newEngine(ctx, c, extra...)
	if err != nil {
		return err
	}
	defer engine.Close()

	pipeline, err := engine.NewIngestPipeline()
	if err != nil {
		return err
	}

	department := c.String("department")
	failures := 0
	for _, path := range c.Args().Slice() {
		result, err := pipeline.Ingest(ctx, path, department)
		if err != nil {
			return err
		}
		if result.Status == core.IngestStatusSuccess {
			fmt.Printf("%s: %d chunks (document %d)\n",
				path, result.ChunkCount, result.DocumentID)
		} else {
			failures++
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, result.ErrorMessage)
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d documents failed", failures, c.NArg())
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a question is required")
	}
	ctx := context.Background()

	engine, err := newEngine(ctx, c)
	if err != nil {
		return err
	}
	defer engine.Close()

	pipeline, err := engine.NewQueryPipeline(query.WithTopK(c.Int("top-k")))
	if err != nil {
		return err
	}

	question := strings.Join(c.Args().Slice(), " ")
	result, err := pipeline.Query(ctx, question, c.String("department"))
	if err != nil {
		return err
	}

	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, source := range result.Sources {
			fmt.Printf("  %s (score %.3f)\n", source.DocumentName, source.RelevanceScore)
		}
	}
	fmt.Fprintf(os.Stderr, "\nanswered in %s\n", result.ProcessingTime.Round(time.Millisecond))
	return nil
}

func documentsCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	records, err := repo.ListDocuments(ctx)
	if err != nil {
		return err
	}
	for _, record := range records {
		fmt.Printf("%-12d %-40s %-15s %4d chunks  %s\n",
			record.Id, record.Filename, record.Department,
			record.ChunkCount, record.UpdatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(os.Stderr, "%d documents\n", len(records))
	return nil
}

func historyCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewHistoryRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	records, err := repo.GetRecentQueryRecords(ctx, c.Int("limit"))
	if err != nil {
		return err
	}
	for _, record := range records {
		fmt.Printf("[%s] %s\n  Q: %s\n  A: %s\n",
			record.CreatedAt.Format("2006-01-02 15:04"), record.Model,
			record.Query, record.Answer)
	}
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
