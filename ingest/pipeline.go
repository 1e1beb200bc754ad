package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/ragpipe/chunk"
	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/extract"
	"github.com/poiesic/ragpipe/monitor"
	"github.com/poiesic/ragpipe/storage"
	"github.com/poiesic/ragpipe/vectorstore"
)

// Stage names reported to the monitor.
const (
	pipelineName           = "ingest"
	stageLoading           = "loading"
	stageChunking          = "chunking"
	stageEmbedding         = "embedding"
	stageWriting           = "writing"
	stageRecordingMetadata = "recording_metadata"
)

// Pipeline orchestrates the ingestion of one document: load, chunk, embed,
// write vectors, record metadata. Stages run strictly in sequence; a
// Pipeline is safe for concurrent Ingest calls.
type Pipeline struct {
	loader    *extract.Loader
	chunker   *chunk.Chunker
	batcher   *Batcher
	store     vectorstore.Store
	documents storage.DocumentRepository
	monitor   monitor.Monitor
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithMonitor sets the pipeline event monitor.
// Default is a no-op monitor.
func WithMonitor(m monitor.Monitor) Option {
	return func(p *Pipeline) error {
		if m == nil {
			m = &monitor.NoopMonitor{}
		}
		p.monitor = m
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline. The documents repository may
// be nil, in which case metadata recording is skipped entirely.
func NewPipeline(
	loader *extract.Loader,
	chunker *chunk.Chunker,
	batcher *Batcher,
	store vectorstore.Store,
	documents storage.DocumentRepository,
	opts ...Option,
) (*Pipeline, error) {
	if loader == nil {
		return nil, ErrLoaderRequired
	}
	if chunker == nil {
		return nil, ErrChunkerRequired
	}
	if batcher == nil {
		return nil, ErrEmbedderRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}

	p := &Pipeline{
		loader:    loader,
		chunker:   chunker,
		batcher:   batcher,
		store:     store,
		documents: documents,
		monitor:   &monitor.NoopMonitor{},
		logger:    slog.Default().With("component", "ingest"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Ingest processes the document at filePath under the given department.
// Failures are reported in the result's Status and ErrorMessage; the error
// return is reserved for invalid arguments.
func (p *Pipeline) Ingest(ctx context.Context, filePath, department string) (*core.IngestResult, error) {
	if filePath == "" {
		return nil, fmt.Errorf("%w: file path is empty", core.ErrInvalidDocumentRecord)
	}
	department = core.NormalizeDepartment(department)
	if department == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidDocumentRecord, core.ErrEmptyDepartment)
	}

	// The source name, not the full path, is the document's natural key:
	// metadata records, vector payloads, and citations all carry it.
	source := filepath.Base(filePath)

	runID := uuid.New().String()
	started := time.Now()
	p.monitor.PipelineStarted(pipelineName, runID, filePath)
	defer func() {
		p.monitor.PipelineFinished(pipelineName, runID, time.Since(started))
	}()

	// Loading
	loaded := runStage(p, runID, stageLoading, func() core.Outcome[*extract.Result] {
		result, err := p.loader.Load(ctx, filePath)
		if err != nil {
			return core.Fatal[*extract.Result](err)
		}
		return core.Ok(result)
	})
	if loaded.Failed() {
		return p.fail(filePath, loaded.Err), nil
	}

	// Chunking
	chunks := runStage(p, runID, stageChunking, func() core.Outcome[[]core.Chunk] {
		cs, err := p.chunker.Split(loaded.Value.Segments, source)
		if err != nil {
			return core.Fatal[[]core.Chunk](err)
		}
		return core.Ok(cs)
	})
	if chunks.Failed() {
		return p.fail(filePath, chunks.Err), nil
	}

	// A document with nothing to ingest short-circuits before embedding.
	if len(chunks.Value) == 0 {
		p.logger.Warn("document produced no chunks, skipping", "path", filePath)
		p.monitor.StageDegraded(pipelineName, runID, stageChunking, "no content")
		return p.fail(filePath, ErrNoContent), nil
	}

	texts := make([]string, len(chunks.Value))
	for i, c := range chunks.Value {
		texts[i] = c.Text
	}

	// Embedding
	vectors := runStage(p, runID, stageEmbedding, func() core.Outcome[[][]float32] {
		vs, err := p.batcher.Embed(ctx, texts)
		if err != nil {
			return core.Fatal[[][]float32](err)
		}
		return core.Ok(vs)
	})
	if vectors.Failed() {
		return p.fail(filePath, vectors.Err), nil
	}

	// Writing. Chunk IDs are fresh per run, so points from a previous
	// ingestion of this source are removed first; re-ingestion replaces a
	// document rather than accumulating stale chunks.
	written := runStage(p, runID, stageWriting, func() core.Outcome[int] {
		if err := p.store.DeleteBySource(ctx, source); err != nil {
			return core.Fatal[int](fmt.Errorf("clear previous vectors: %w", err))
		}
		points := make([]vectorstore.Point, len(chunks.Value))
		for i, c := range chunks.Value {
			points[i] = vectorstore.PointFromChunk(c, vectors.Value[i], department)
		}
		if err := p.store.Upsert(ctx, points); err != nil {
			return core.Fatal[int](err)
		}
		return core.Ok(len(points))
	})
	if written.Failed() {
		return p.fail(filePath, written.Err), nil
	}

	// RecordingMetadata. Vectors are already written, so a failure here is
	// logged and the run still succeeds; the vector store is the source of
	// truth for retrieval.
	documentID := core.IDFromContent(source)
	runStage(p, runID, stageRecordingMetadata, func() core.Outcome[core.ID] {
		if p.documents == nil {
			return core.Degraded(core.ID(0), "no document repository configured", nil)
		}
		record := &core.DocumentRecord{
			Filename:      source,
			Department:    department,
			ChunkCount:    len(chunks.Value),
			FileSizeBytes: fileSize(filePath),
			OCRApplied:    loaded.Value.OCRApplied,
		}
		saved, err := p.documents.SaveDocument(ctx, record)
		if err != nil {
			p.logger.Error("failed to record document metadata", "path", filePath, "err", err)
			return core.Degraded(core.ID(0), "metadata write failed", err)
		}
		return core.Ok(saved.Id)
	})

	return &core.IngestResult{
		Status:     core.IngestStatusSuccess,
		DocumentID: documentID,
		ChunkCount: len(chunks.Value),
	}, nil
}

// runStage wraps one stage with monitor events.
func runStage[T any](p *Pipeline, runID, stage string, fn func() core.Outcome[T]) core.Outcome[T] {
	p.monitor.StageStarted(pipelineName, runID, stage)
	started := time.Now()

	outcome := fn()
	switch outcome.Status {
	case core.StatusFatal:
		p.monitor.StageFailed(pipelineName, runID, stage, outcome.Err)
	case core.StatusDegraded:
		p.monitor.StageDegraded(pipelineName, runID, stage, outcome.Reason)
	default:
		p.monitor.StageCompleted(pipelineName, runID, stage, time.Since(started))
	}
	return outcome
}

// fail builds the structured failure result.
func (p *Pipeline) fail(filePath string, err error) *core.IngestResult {
	p.logger.Error("ingestion failed", "path", filePath, "err", err)
	return &core.IngestResult{
		Status:       core.IngestStatusError,
		DocumentID:   core.IDFromContent(filepath.Base(filePath)),
		ErrorMessage: err.Error(),
	}
}

// fileSize returns the document's size in bytes, zero when unknown.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
