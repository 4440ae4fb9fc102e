package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/bft-labs/bulkload/internal/domain"
	"github.com/bft-labs/bulkload/internal/ports"
)

// Sink implements ports.WriteSink with unordered InsertMany calls.
type Sink struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     ports.Logger
}

var (
	_ ports.WriteSink = (*Sink)(nil)
	_ ports.Counter   = (*Sink)(nil)
	_ ports.Truncater = (*Sink)(nil)
)

// Connect opens a client, pings the primary and returns a sink for the
// configured collection.
func Connect(ctx context.Context, cfg Config, logger ports.Logger) (*Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := options.Client().
		ApplyURI(cfg.ConnectionURI()).
		SetServerSelectionTimeout(cfg.Timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect %s: %w", cfg.Redacted(), err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping %s: %w", cfg.Redacted(), err)
	}

	logger.Info("connected to mongodb",
		ports.String("uri", cfg.Redacted()),
		ports.String("database", cfg.Database),
		ports.String("collection", cfg.Collection),
	)

	return &Sink{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		logger:     logger,
	}, nil
}

// Apply inserts records without ordering so one bad document does not stop
// the rest of the chunk.
func (s *Sink) Apply(ctx context.Context, op domain.WriteOp, records []domain.Record) domain.ApplyResult {
	if op != domain.OpInsert {
		return domain.TotalFailure(fmt.Errorf("%w: %s", domain.ErrUnsupportedOperation, op))
	}
	if len(records) == 0 {
		return domain.FullSuccess(0)
	}

	docs := make([]interface{}, len(records))
	for i, r := range records {
		docs[i] = r
	}

	_, err := s.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return domain.FullSuccess(len(docs))
	}

	return classify(err, len(docs))
}

// classify maps an InsertMany error onto an apply result.
func classify(err error, submitted int) domain.ApplyResult {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || len(bwe.WriteErrors) == 0 {
		return domain.TotalFailure(err)
	}

	reasons := make([]string, 0, len(bwe.WriteErrors))
	for _, we := range bwe.WriteErrors {
		reasons = append(reasons, fmt.Sprintf("document %d: code %d: %s", we.Index, we.Code, we.Message))
	}
	return domain.PartialSuccess(submitted-len(bwe.WriteErrors), reasons)
}

// Count returns the number of documents in the collection.
func (s *Sink) Count(ctx context.Context) (int64, error) {
	return s.collection.CountDocuments(ctx, bson.D{})
}

// Truncate deletes every document in the collection.
func (s *Sink) Truncate(ctx context.Context) error {
	res, err := s.collection.DeleteMany(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("mongo truncate: %w", err)
	}
	s.logger.Info("collection truncated", ports.Int64("deleted", res.DeletedCount))
	return nil
}

// Close disconnects the client.
func (s *Sink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
