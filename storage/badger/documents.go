package badger

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (storage.DocumentRepository, error) {
	return &DocumentRepository{backend: backend}, nil
}

// Close releases nothing; the backend is shared and closed by its owner.
func (r *DocumentRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SaveDocument inserts or updates the record for a source document.
// The ID is always derived from the filename, so re-ingesting a file lands
// on the existing record. CreatedAt survives updates; UpdatedAt does not.
func (r *DocumentRepository) SaveDocument(ctx context.Context, record *core.DocumentRecord) (*core.DocumentRecord, error) {
	record.Id = core.IDFromContent(record.Filename)
	record.Department = core.NormalizeDepartment(record.Department)

	if err := core.ValidateDocumentRecord(record); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(record.Id)

		now := time.Now().UTC()
		existing, err := r.readDocument(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			record.CreatedAt = existing.CreatedAt
		} else {
			record.CreatedAt = now
		}
		record.UpdatedAt = now

		if err := tx.Set(key, storage.MarshalDocumentRecord(record)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)

	return record, err
}

// GetDocument retrieves a document record by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.DocumentRecord, error) {
	var record *core.DocumentRecord

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		record, err = r.readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if record == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)

	return record, err
}

// GetDocumentByFilename retrieves the record for a source filename.
// The record ID is a content hash of the filename, so no index is needed.
func (r *DocumentRepository) GetDocumentByFilename(ctx context.Context, filename string) (*core.DocumentRecord, error) {
	return r.GetDocument(ctx, core.IDFromContent(filename))
}

// ListDocuments returns all document records ordered by filename.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*core.DocumentRecord, error) {
	var records []*core.DocumentRecord

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(docRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.DocumentRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalDocumentRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(records, func(a, b *core.DocumentRecord) int {
		return strings.Compare(a.Filename, b.Filename)
	})
	return records, nil
}

// DeleteDocument removes a document record.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)

		record, err := r.readDocument(tx, key)
		if err != nil {
			return err
		}
		if record == nil {
			return storage.ErrNotFound
		}

		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readDocument reads and deserializes a record, returning nil when absent.
func (r *DocumentRepository) readDocument(tx *badger.Txn, key []byte) (*core.DocumentRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record *core.DocumentRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalDocumentRecord(val)
		return err
	})
	return record, err
}
