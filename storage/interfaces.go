package storage

import (
	"context"

	"github.com/poiesic/ragpipe/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for per-document ingestion metadata.
type DocumentRepository interface {
	Repository

	// SaveDocument inserts or updates a document record. Records are keyed
	// by IDFromContent(Filename), so saving a record for an already-ingested
	// filename overwrites the existing one and preserves its CreatedAt.
	// UpdatedAt is set automatically.
	SaveDocument(ctx context.Context, record *core.DocumentRecord) (*core.DocumentRecord, error)

	// GetDocument retrieves a single document record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.DocumentRecord, error)

	// GetDocumentByFilename retrieves the record for a source filename.
	// Returns ErrNotFound if the file was never ingested.
	GetDocumentByFilename(ctx context.Context, filename string) (*core.DocumentRecord, error)

	// ListDocuments returns all document records, ordered by filename.
	ListDocuments(ctx context.Context) ([]*core.DocumentRecord, error)

	// DeleteDocument removes a document record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	DeleteDocument(ctx context.Context, id core.ID) error
}

// HistoryRepository provides operations for the processed-query log.
type HistoryRepository interface {
	Repository

	// AddQueryRecords appends query records to the log. IDs are generated
	// from a sequence and CreatedAt is set if zero. Returns the records
	// with IDs and timestamps populated.
	AddQueryRecords(ctx context.Context, records ...*core.QueryRecord) ([]*core.QueryRecord, error)

	// GetQueryRecord retrieves a single query record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetQueryRecord(ctx context.Context, id core.ID) (*core.QueryRecord, error)

	// GetRecentQueryRecords retrieves the N most recent query records,
	// most recent first.
	GetRecentQueryRecords(ctx context.Context, limit int) ([]*core.QueryRecord, error)
}
