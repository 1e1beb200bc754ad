package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// ID is a unique identifier for stored records.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Document records are keyed this way by filename, so re-ingesting the same
// file always resolves to the same record.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// NewChunkID returns a fresh unique chunk identifier.
// Chunk IDs double as vector store point keys, so they must be unique
// across all documents, not just within one.
func NewChunkID() string {
	return uuid.New().String()
}

// NormalizeDepartment canonicalizes a department tag for storage and filtering.
// Department matching is case-insensitive everywhere, so the lowercase form
// is the only form that ever reaches the vector store or metadata records.
func NormalizeDepartment(department string) string {
	return strings.ToLower(strings.TrimSpace(department))
}

// Chunk is a bounded slice of extracted document text, the atomic unit of
// embedding. Chunks are immutable after creation: they are produced by the
// chunker, consumed once by the embedder, and then persist only as vector
// store points keyed by their ID.
type Chunk struct {
	ID     string // vector store point key (UUID)
	Text   string
	Source string // original filename
	Page   int    // page or position marker within the source
}

// DocumentRecord is the metadata row kept per source document.
// Filename is the natural key: re-ingesting a file updates the existing
// record rather than creating a second one.
type DocumentRecord struct {
	Id            ID // IDFromContent(Filename)
	Filename      string
	Department    string // normalized (lowercase)
	ChunkCount    int
	FileSizeBytes int64
	OCRApplied    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// QueryRecord captures one processed query, successful or not.
// Sources are stored pre-serialized as JSON so the history store needs no
// knowledge of the citation structure.
type QueryRecord struct {
	Id             ID // assigned by the history store sequence
	Query          string
	Answer         string
	Model          string
	SourcesJSON    string
	Department     string // normalized (lowercase)
	ProcessingTime time.Duration
	Accelerated    bool
	CreatedAt      time.Time
}

// SourceCitation is one retrieved chunk reference attached to a query
// response. The snippet is taken from the untruncated chunk text,
// independent of any context-window truncation applied to the prompt.
type SourceCitation struct {
	DocumentID     string  `json:"document_id"`
	DocumentName   string  `json:"document_name"`
	RelevanceScore float32 `json:"relevance_score"`
	ContentSnippet string  `json:"content_snippet"`
}

// IngestStatus is the terminal status of an ingestion run.
type IngestStatus string

const (
	IngestStatusSuccess IngestStatus = "success"
	IngestStatusError   IngestStatus = "error"
)

// IngestResult is the structured outcome of one ingestion run.
type IngestResult struct {
	Status       IngestStatus
	DocumentID   ID
	ChunkCount   int
	ErrorMessage string
}

// QueryResult is the response object for one query run. Queries that reach
// the generation stage always produce a QueryResult; generation failures are
// reflected in Answer rather than surfaced as errors.
type QueryResult struct {
	Answer         string
	Sources        []SourceCitation
	ProcessingTime time.Duration
	Accelerated    bool
	HistoryID      ID // zero when history persistence failed or was skipped
}
