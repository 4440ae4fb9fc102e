package source

import (
	"context"
	"encoding/json"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bft-labs/bulkload/internal/domain"
	"github.com/bft-labs/bulkload/internal/ports"
)

// IDKey is the exported document id dropped from imported records so the
// target assigns fresh ids.
const IDKey = "_id"

// DefaultJSONDateFields are the fields whose ISO strings are parsed into
// times on import.
var DefaultJSONDateFields = []string{"date_of_admission", "discharge_date", CreatedAtKey}

// isoLayouts are tried in order; the first that parses wins. Values without
// an offset are read as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	DateLayout,
}

// JSONSource implements ports.RecordSource for a JSON array of documents,
// such as a MongoDB export in relaxed extended JSON.
type JSONSource struct {
	open       Opener
	name       string
	workers    int
	dateFields []string
	logger     ports.Logger
}

var _ ports.RecordSource = (*JSONSource)(nil)

// NewJSONSource creates a source reading from open. workers <= 0 uses
// GOMAXPROCS.
func NewJSONSource(name string, open Opener, workers int, logger ports.Logger) *JSONSource {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &JSONSource{
		open:       open,
		name:       name,
		workers:    workers,
		dateFields: DefaultJSONDateFields,
		logger:     logger,
	}
}

// Records decodes every document of the array. Each one loses its _id and
// has its date fields parsed.
func (s *JSONSource) Records(ctx context.Context) ([]domain.Record, error) {
	rc, err := s.open(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", s.name)
	}
	defer rc.Close()

	var raw []json.RawMessage
	if err := json.NewDecoder(rc).Decode(&raw); err != nil {
		if err == io.EOF {
			return []domain.Record{}, nil
		}
		return nil, errors.Wrapf(err, "decode %s", s.name)
	}

	out := make([]domain.Record, len(raw))
	err = convertAll(ctx, len(raw), s.workers, func(i int) error {
		rec, err := s.toRecord(raw[i])
		if err != nil {
			return errors.Wrapf(err, "document %d of %s", i, s.name)
		}
		out[i] = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("records loaded",
		ports.String("source", s.name),
		ports.Int("records", len(out)),
	)
	return out, nil
}

func (s *JSONSource) toRecord(raw json.RawMessage) (domain.Record, error) {
	var doc bson.M
	if err := bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
		return nil, err
	}

	rec := plainValue(doc).(domain.Record)
	delete(rec, IDKey)
	for _, field := range s.dateFields {
		if v, ok := rec[field].(string); ok {
			if t, ok := ParseISOTime(v); ok {
				rec[field] = t
			}
		}
	}
	return rec, nil
}

// ParseISOTime parses an ISO 8601 date or date-time. A trailing Z is UTC.
func ParseISOTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// plainValue replaces BSON wrapper types with plain Go values so every sink
// can encode the record.
func plainValue(v any) any {
	switch x := v.(type) {
	case primitive.M:
		out := make(domain.Record, len(x))
		for k, e := range x {
			out[k] = plainValue(e)
		}
		return out
	case primitive.D:
		out := make(domain.Record, len(x))
		for _, e := range x {
			out[e.Key] = plainValue(e.Value)
		}
		return out
	case primitive.A:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plainValue(e)
		}
		return out
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.ObjectID:
		return x.Hex()
	case int32:
		return int64(x)
	default:
		return v
	}
}
