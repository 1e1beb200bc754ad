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

package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/ragpipe/ai"
	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/monitor"
	"github.com/poiesic/ragpipe/storage"
	"github.com/poiesic/ragpipe/vectorstore"
)

// Stage names reported to the monitor.
const (
	pipelineName          = "query"
	stageEmbedding        = "embedding"
	stageSearching        = "searching"
	stageAssembling       = "assembling_context"
	stageBuildingPrompt   = "building_prompt"
	stageGenerating       = "generating"
	stageRecordingHistory = "recording_history"
)

const (
	// DefaultTopK is the number of chunks retrieved per query.
	DefaultTopK = 5

	defaultSearchAttempts = 3
	defaultSearchBackoff  = 250 * time.Millisecond
)

// Pipeline answers one query: embed, search, assemble context, build the
// prompt, generate, record history. Safe for concurrent Query calls.
type Pipeline struct {
	embedder  ai.Embedder
	generator ai.Generator
	store     vectorstore.Store
	history   storage.HistoryRepository
	probe     ai.MemoryProbe
	monitor   monitor.Monitor
	logger    *slog.Logger

	topK            int
	maxContextChars int
	searchAttempts  int
	searchBackoff   time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithTopK sets how many chunks are retrieved per query.
// Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(p *Pipeline) error {
		if k < 1 {
			return fmt.Errorf("top-k must be at least 1, got %d", k)
		}
		p.topK = k
		return nil
	}
}

// WithMaxContextChars bounds the assembled context length.
// Default is DefaultMaxContextChars.
func WithMaxContextChars(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return fmt.Errorf("max context chars must be at least 1, got %d", n)
		}
		p.maxContextChars = n
		return nil
	}
}

// WithSearchRetry sets the vector search retry policy: attempts total
// tries with a fixed backoff between them. Defaults are 3 attempts,
// 250ms apart.
func WithSearchRetry(attempts int, backoff time.Duration) Option {
	return func(p *Pipeline) error {
		if attempts < 1 {
			return fmt.Errorf("search attempts must be at least 1, got %d", attempts)
		}
		p.searchAttempts = attempts
		p.searchBackoff = backoff
		return nil
	}
}

// WithMemoryProbe sets the accelerator probe used to flag responses.
// Default reports no accelerator.
func WithMemoryProbe(probe ai.MemoryProbe) Option {
	return func(p *Pipeline) error {
		if probe == nil {
			probe = ai.DefaultMemoryProbe
		}
		p.probe = probe
		return nil
	}
}

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

// NewPipeline creates a query pipeline. The generator and history
// repository may be nil: a nil generator makes every Query fail fast with
// ErrGeneratorUnavailable, a nil history repository skips recording.
func NewPipeline(
	embedder ai.Embedder,
	generator ai.Generator,
	store vectorstore.Store,
	history storage.HistoryRepository,
	opts ...Option,
) (*Pipeline, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}

	p := &Pipeline{
		embedder:        embedder,
		generator:       generator,
		store:           store,
		history:         history,
		probe:           ai.DefaultMemoryProbe,
		monitor:         &monitor.NoopMonitor{},
		logger:          slog.Default().With("component", "query"),
		topK:            DefaultTopK,
		maxContextChars: DefaultMaxContextChars,
		searchAttempts:  defaultSearchAttempts,
		searchBackoff:   defaultSearchBackoff,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Query answers queryText against documents in the given department.
// A query that reaches generation always returns a result: generation
// failures surface as an error-string answer, history failures as a zero
// HistoryID. The error return covers invalid arguments and the fatal
// cases, a missing generation backend and a failed query embedding.
func (p *Pipeline) Query(ctx context.Context, queryText, department string) (*core.QueryResult, error) {
	queryText = strings.TrimSpace(queryText)
	if queryText == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidQueryRecord, core.ErrEmptyQuery)
	}
	department = core.NormalizeDepartment(department)
	if department == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidQueryRecord, core.ErrEmptyDepartment)
	}
	// Checked before any embedding or search work is spent.
	if p.generator == nil {
		return nil, ErrGeneratorUnavailable
	}

	runID := uuid.New().String()
	started := time.Now()
	p.monitor.PipelineStarted(pipelineName, runID, queryText)
	defer func() {
		p.monitor.PipelineFinished(pipelineName, runID, time.Since(started))
	}()

	// Embedding. The only stage whose failure aborts the query.
	vector := runStage(p, runID, stageEmbedding, func() core.Outcome[[]float32] {
		v, err := p.embedder.EmbedText(ctx, queryText)
		if err != nil {
			return core.Fatal[[]float32](err)
		}
		return core.Ok(v)
	})
	if vector.Failed() {
		p.logger.Error("query embedding failed", "err", vector.Err)
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, vector.Err)
	}

	// Searching. Transient store failures are retried with a fixed
	// backoff; exhaustion degrades to an empty result set so the query
	// still gets an answer from general knowledge.
	hits := runStage(p, runID, stageSearching, func() core.Outcome[[]vectorstore.Hit] {
		return p.search(ctx, vector.Value, department)
	})

	assembled := runStage(p, runID, stageAssembling, func() core.Outcome[AssembledContext] {
		return core.Ok(AssembleContext(hits.Value, p.maxContextChars))
	})

	prompt := runStage(p, runID, stageBuildingPrompt, func() core.Outcome[string] {
		return core.Ok(BuildPrompt(queryText, assembled.Value.Text))
	})

	// Generating. A mid-call model failure degrades to an error-string
	// answer; the run continues so the failure lands in history too.
	answer := runStage(p, runID, stageGenerating, func() core.Outcome[string] {
		raw, err := p.generator.Generate(ctx, prompt.Value)
		if err != nil {
			p.logger.Error("generation failed", "model", p.generator.Model(), "err", err)
			return core.Degraded("Error: "+err.Error(), "generation failed", err)
		}
		return core.Ok(extractAnswer(raw))
	})

	_, accelerated := p.probe()
	elapsed := time.Since(started)

	// RecordingHistory. Always attempted, never fatal.
	historyID := runStage(p, runID, stageRecordingHistory, func() core.Outcome[core.ID] {
		return p.recordHistory(ctx, queryText, answer.Value, department,
			assembled.Value.Sources, elapsed, accelerated)
	})

	return &core.QueryResult{
		Answer:         answer.Value,
		Sources:        assembled.Value.Sources,
		ProcessingTime: time.Since(started),
		Accelerated:    accelerated,
		HistoryID:      historyID.Value,
	}, nil
}

// search runs the vector search with the configured retry policy.
func (p *Pipeline) search(ctx context.Context, vector []float32, department string) core.Outcome[[]vectorstore.Hit] {
	var lastErr error
	for attempt := 1; attempt <= p.searchAttempts; attempt++ {
		hits, err := p.store.Search(ctx, vector, department, p.topK)
		if err == nil {
			return core.Ok(hits)
		}
		lastErr = err
		p.logger.Warn("vector search failed",
			"attempt", attempt, "of", p.searchAttempts, "err", err)

		if attempt < p.searchAttempts {
			select {
			case <-time.After(p.searchBackoff):
			case <-ctx.Done():
				return core.Degraded([]vectorstore.Hit(nil), "search canceled", ctx.Err())
			}
		}
	}
	return core.Degraded([]vectorstore.Hit(nil), "search unavailable", lastErr)
}

// recordHistory persists the query record, best-effort.
func (p *Pipeline) recordHistory(
	ctx context.Context,
	queryText, answer, department string,
	sources []core.SourceCitation,
	elapsed time.Duration,
	accelerated bool,
) core.Outcome[core.ID] {
	if p.history == nil {
		return core.Degraded(core.ID(0), "no history repository configured", nil)
	}

	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		p.logger.Error("failed to serialize citations", "err", err)
		sourcesJSON = []byte("[]")
	}
	record := &core.QueryRecord{
		Query:          queryText,
		Answer:         answer,
		Model:          p.generator.Model(),
		SourcesJSON:    string(sourcesJSON),
		Department:     department,
		ProcessingTime: elapsed,
		Accelerated:    accelerated,
	}
	saved, err := p.history.AddQueryRecords(ctx, record)
	if err != nil {
		p.logger.Error("failed to record query history", "err", err)
		return core.Degraded(core.ID(0), "history write failed", err)
	}
	return core.Ok(saved[0].Id)
}

// extractAnswer strips the echoed prompt from instruction-tuned model
// output. Some backends return the full exchange including the [INST]
// block; the answer is whatever follows the final close marker. Output
// without a marker is already a bare completion.
func extractAnswer(raw string) string {
	const closeMarker = "[/INST]"
	if idx := strings.LastIndex(raw, closeMarker); idx >= 0 {
		if answer := strings.TrimSpace(raw[idx+len(closeMarker):]); answer != "" {
			return answer
		}
	}
	return strings.TrimSpace(raw)
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
