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


package ragpipe

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/ragpipe/ai"
	"github.com/poiesic/ragpipe/ai/openai"
	"github.com/poiesic/ragpipe/chunk"
	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/extract"
	"github.com/poiesic/ragpipe/ingest"
	"github.com/poiesic/ragpipe/monitor"
	"github.com/poiesic/ragpipe/query"
	"github.com/poiesic/ragpipe/storage"
	"github.com/poiesic/ragpipe/storage/badger"
	"github.com/poiesic/ragpipe/vectorstore"
	"github.com/poiesic/ragpipe/vectorstore/qdrant"
)

// Engine wires the storage backend, vector store, AI provider, and
// pipelines into one handle. It is created once per process and shared;
// the pipelines it hands out are safe for concurrent use.
type Engine struct {
	backend   *badger.Backend
	documents storage.DocumentRepository
	history   storage.HistoryRepository
	store     vectorstore.Store
	provider  ai.Provider
	ocr       extract.OCR
	monitor   monitor.Monitor
	probe     ai.MemoryProbe
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider   ai.Provider
	aiConfig   *ai.Config
	store      vectorstore.Store
	qdrantAddr string
	collection string
	ocr        extract.OCR
	probe      ai.MemoryProbe
	monitor    monitor.Monitor
	logger     *slog.Logger
	inMemoryDB bool
}

// WithProvider injects a pre-built AI provider, bypassing the default
// OpenAI-compatible client. Used for alternative backends and tests.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithVectorStore injects a pre-built vector store, bypassing the default
// Qdrant connection. Used for in-process stores and tests.
func WithVectorStore(store vectorstore.Store) EngineOption {
	return func(o *engineOptions) {
		o.store = store
	}
}

// WithQdrant sets the Qdrant gRPC address and collection name.
func WithQdrant(address, collection string) EngineOption {
	return func(o *engineOptions) {
		o.qdrantAddr = address
		o.collection = collection
	}
}

// WithOCR enables OCR for image files and PDF scans.
func WithOCR(ocr extract.OCR) EngineOption {
	return func(o *engineOptions) {
		o.ocr = ocr
	}
}

// WithMemoryProbe sets the accelerator probe used for batch sizing and
// response flagging.
func WithMemoryProbe(probe ai.MemoryProbe) EngineOption {
	return func(o *engineOptions) {
		o.probe = probe
	}
}

// WithMonitor sets the pipeline event monitor shared by both pipelines.
func WithMonitor(m monitor.Monitor) EngineOption {
	return func(o *engineOptions) {
		o.monitor = m
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithInMemoryDB keeps the metadata store in memory. Used in tests.
func WithInMemoryDB() EngineOption {
	return func(o *engineOptions) {
		o.inMemoryDB = true
	}
}

// NewEngine opens the metadata store at dbPath, connects the vector store
// and AI provider, and verifies that the collection's vector dimension
// matches the configured embedding model. A dimension mismatch fails
// construction: silently writing vectors of the wrong width would corrupt
// retrieval for every existing document.
func NewEngine(ctx context.Context, dbPath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig:   ai.DefaultConfig(),
		qdrantAddr: qdrant.DefaultAddress,
		collection: qdrant.DefaultCollection,
		probe:      ai.DefaultMemoryProbe,
		monitor:    &monitor.NoopMonitor{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(dbPath, options.inMemoryDB)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}

	documents, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	history, err := badger.NewHistoryRepository(backend)
	if err != nil {
		documents.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			history.Close()
			documents.Close()
			backend.Close()
			return nil, err
		}
	}

	store := options.store
	if store == nil {
		store, err = qdrant.NewStore(options.qdrantAddr,
			qdrant.WithCollection(options.collection),
			qdrant.WithLogger(options.logger))
		if err != nil {
			provider.Close()
			history.Close()
			documents.Close()
			backend.Close()
			return nil, fmt.Errorf("connect vector store: %w", err)
		}
	}

	engine := &Engine{
		backend:   backend,
		documents: documents,
		history:   history,
		store:     store,
		provider:  provider,
		ocr:       options.ocr,
		monitor:   options.monitor,
		probe:     options.probe,
		logger:    options.logger,
	}

	if err := engine.ensureCollection(ctx); err != nil {
		engine.Close()
		return nil, err
	}
	return engine, nil
}

// ensureCollection probes the embedding model for its output dimension and
// creates or verifies the vector collection against it.
func (e *Engine) ensureCollection(ctx context.Context) error {
	vector, err := e.provider.Embedder().EmbedText(ctx, "dimension probe")
	if err != nil {
		return fmt.Errorf("probe embedding dimension: %w", err)
	}
	if err := e.store.EnsureCollection(ctx, len(vector)); err != nil {
		return fmt.Errorf("ensure vector collection: %w", err)
	}
	e.logger.Debug("vector collection ready", "dimension", len(vector))
	return nil
}

// Close releases all backends. Safe to call after a partial failure.
func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if err := e.store.Close(); err != nil {
		e.logger.Error("error closing vector store", "err", err)
	}
	if err := e.history.Close(); err != nil {
		e.logger.Error("error closing history repository", "err", err)
		return err
	}
	if err := e.documents.Close(); err != nil {
		e.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (e *Engine) DocumentRepository() storage.DocumentRepository {
	return e.documents
}

func (e *Engine) HistoryRepository() storage.HistoryRepository {
	return e.history
}

func (e *Engine) VectorStore() vectorstore.Store {
	return e.store
}

// NewIngestPipeline builds an ingestion pipeline over the engine's
// backends. Extra options are applied after the engine defaults.
func (e *Engine) NewIngestPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	loaderOpts := []extract.Option{extract.WithLogger(e.logger)}
	if e.ocr != nil {
		loaderOpts = append(loaderOpts, extract.WithOCR(e.ocr))
	}
	loader, err := extract.NewLoader(loaderOpts...)
	if err != nil {
		return nil, err
	}

	chunker, err := chunk.NewChunker()
	if err != nil {
		return nil, err
	}

	batcher, err := ingest.NewBatcher(e.provider.Embedder(),
		ingest.WithMemoryProbe(e.probe),
		ingest.WithBatcherLogger(e.logger))
	if err != nil {
		return nil, err
	}

	base := []ingest.Option{
		ingest.WithMonitor(e.monitor),
		ingest.WithLogger(e.logger),
	}
	return ingest.NewPipeline(loader, chunker, batcher, e.store, e.documents,
		append(base, opts...)...)
}

// NewQueryPipeline builds a query pipeline over the engine's backends.
// Extra options are applied after the engine defaults.
func (e *Engine) NewQueryPipeline(opts ...query.Option) (*query.Pipeline, error) {
	base := []query.Option{
		query.WithMemoryProbe(e.probe),
		query.WithMonitor(e.monitor),
		query.WithLogger(e.logger),
	}
	return query.NewPipeline(e.provider.Embedder(), e.provider.Generator(),
		e.store, e.history, append(base, opts...)...)
}

// Ingest processes one document through a fresh ingestion pipeline.
func (e *Engine) Ingest(ctx context.Context, filePath, department string) (*core.IngestResult, error) {
	pipeline, err := e.NewIngestPipeline()
	if err != nil {
		return nil, err
	}
	return pipeline.Ingest(ctx, filePath, department)
}

// Query answers one query through a fresh query pipeline.
func (e *Engine) Query(ctx context.Context, queryText, department string) (*core.QueryResult, error) {
	pipeline, err := e.NewQueryPipeline()
	if err != nil {
		return nil, err
	}
	return pipeline.Query(ctx, queryText, department)
}
