package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/ragpipe/core"
	"github.com/poiesic/ragpipe/storage"
)

// HistoryRepository implements storage.HistoryRepository for BadgerDB.
type HistoryRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.HistoryRepository = (*HistoryRepository)(nil)

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(backend *Backend) (storage.HistoryRepository, error) {
	idSeq, err := backend.GetSequence(queryRecordIDSeq)
	if err != nil {
		return nil, err
	}

	return &HistoryRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *HistoryRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *HistoryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddQueryRecords appends query records to the log.
func (r *HistoryRepository) AddQueryRecords(ctx context.Context, records ...*core.QueryRecord) ([]*core.QueryRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			record.Id = core.ID(nextID)

			if record.CreatedAt.IsZero() {
				record.CreatedAt = time.Now().UTC()
			}
			record.Department = core.NormalizeDepartment(record.Department)

			if err := core.ValidateQueryRecord(record); err != nil {
				return err
			}

			key := makeQueryRecordKey(record.Id)
			if err := tx.Set(key, storage.MarshalQueryRecord(record)); err != nil {
				return err
			}

			// Date index for recency scans.
			dateKey := makeQueryDateKey(record.CreatedAt, record.Id)
			if err := tx.Set(dateKey, storage.MarshalID(record.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// GetQueryRecord retrieves a query record by ID.
func (r *HistoryRepository) GetQueryRecord(ctx context.Context, id core.ID) (*core.QueryRecord, error) {
	var record *core.QueryRecord

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeQueryRecordKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			record, err = storage.UnmarshalQueryRecord(val)
			return err
		})
	}, false)

	return record, err
}

// GetRecentQueryRecords retrieves the N most recent query records by walking
// the date index backwards.
func (r *HistoryRepository) GetRecentQueryRecords(ctx context.Context, limit int) ([]*core.QueryRecord, error) {
	var ids []core.ID

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(queryRecordDatePrefix + ":")
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// In reverse mode the iterator must be seeded past the last key in
		// the prefix range.
		seek := append([]byte(queryRecordDatePrefix+":"), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
		for iter.Seek(seek); iter.Valid() && len(ids) < limit; iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				id, err := storage.UnmarshalID(val)
				if err != nil {
					return err
				}
				ids = append(ids, id)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	records := make([]*core.QueryRecord, 0, len(ids))
	for _, id := range ids {
		record, err := r.GetQueryRecord(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
