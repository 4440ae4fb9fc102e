package badger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/bft-labs/bulkload/internal/domain"
	"github.com/bft-labs/bulkload/internal/ports"
)

// DocumentSink stores records as JSON documents in a BadgerDB collection.
// Each chunk is written in a single transaction.
type DocumentSink struct {
	backend    *Backend
	collection string
	seq        *badger.Sequence
}

var (
	_ ports.WriteSink = (*DocumentSink)(nil)
	_ ports.Counter   = (*DocumentSink)(nil)
	_ ports.Truncater = (*DocumentSink)(nil)
)

// NewDocumentSink creates a sink writing to collection.
// Callers must call Close to release the id sequence.
func NewDocumentSink(backend *Backend, collection string) (*DocumentSink, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: badger collection is required", domain.ErrInvalidConfig)
	}
	seq, err := backend.GetSequence(makeSequenceKey(collection))
	if err != nil {
		return nil, fmt.Errorf("get sequence: %w", err)
	}
	return &DocumentSink{
		backend:    backend,
		collection: collection,
		seq:        seq,
	}, nil
}

// Apply inserts records. Records that cannot be encoded are rejected; the
// rest are committed together.
func (s *DocumentSink) Apply(ctx context.Context, op domain.WriteOp, records []domain.Record) domain.ApplyResult {
	if op != domain.OpInsert {
		return domain.TotalFailure(fmt.Errorf("%w: %s", domain.ErrUnsupportedOperation, op))
	}

	var rejections []string
	applied := 0

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for i, rec := range records {
			value, err := json.Marshal(rec)
			if err != nil {
				rejections = append(rejections, fmt.Sprintf("record %d: %v", i, err))
				continue
			}
			id, err := s.seq.Next()
			if err != nil {
				return err
			}
			if err := tx.Set(makeDocumentKey(s.collection, id), value); err != nil {
				return err
			}
			applied++
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return domain.TotalFailure(fmt.Errorf("badger write: %w", err))
	}

	if len(rejections) > 0 {
		return domain.PartialSuccess(applied, rejections)
	}
	return domain.FullSuccess(applied)
}

// Count returns the number of documents in the collection.
func (s *DocumentSink) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makeCollectionPrefix(s.collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			n++
		}
		return nil
	}, false)
	return n, err
}

// Truncate deletes every document in the collection.
func (s *DocumentSink) Truncate(ctx context.Context) error {
	return s.backend.DropPrefix(makeCollectionPrefix(s.collection))
}

// Documents returns the collection's documents in insertion order.
func (s *DocumentSink) Documents(ctx context.Context) ([]domain.Record, error) {
	var out []domain.Record
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeCollectionPrefix(s.collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				var rec domain.Record
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				out = append(out, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	return out, err
}

// Close releases the id sequence.
func (s *DocumentSink) Close() error {
	return s.seq.Release()
}
