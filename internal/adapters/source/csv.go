// Package source produces records for a run from CSV or JSON input on local
// disk or an FTP server.
package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"runtime"
	"time"

	"github.com/pkg/errors"

	"github.com/bft-labs/bulkload/internal/domain"
	"github.com/bft-labs/bulkload/internal/ports"
)

// CreatedAtKey is the key stamped on every converted record.
const CreatedAtKey = "created_at"

// Opener returns the raw CSV stream.
type Opener func(ctx context.Context) (io.ReadCloser, error)

// CSVSource implements ports.RecordSource for CSV input with a header row.
// Rows are converted in parallel on an ants pool; output order follows the
// input.
type CSVSource struct {
	open    Opener
	name    string
	workers int
	logger  ports.Logger
	now     func() time.Time
}

var _ ports.RecordSource = (*CSVSource)(nil)

// NewCSVSource creates a source reading from open. workers <= 0 uses
// GOMAXPROCS.
func NewCSVSource(name string, open Opener, workers int, logger ports.Logger) *CSVSource {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &CSVSource{
		open:    open,
		name:    name,
		workers: workers,
		logger:  logger,
		now:     time.Now,
	}
}

// Records reads and converts every row.
func (s *CSVSource) Records(ctx context.Context) ([]domain.Record, error) {
	rc, err := s.open(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", s.name)
	}
	defer rc.Close()

	reader := csv.NewReader(bufio.NewReader(rc))
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return []domain.Record{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read header of %s", s.name)
	}
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = NormalizeKey(h)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", s.name)
	}

	records, err := s.convert(ctx, keys, rows)
	if err != nil {
		return nil, err
	}

	s.logger.Info("records loaded",
		ports.String("source", s.name),
		ports.Int("records", len(records)),
		ports.Int("columns", len(keys)),
	)
	return records, nil
}

func (s *CSVSource) convert(ctx context.Context, keys []string, rows [][]string) ([]domain.Record, error) {
	out := make([]domain.Record, len(rows))
	stamp := s.now()
	err := convertAll(ctx, len(rows), s.workers, func(i int) error {
		out[i] = toRecord(keys, rows[i], stamp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func toRecord(keys []string, row []string, stamp time.Time) domain.Record {
	rec := make(domain.Record, len(keys)+1)
	for i, key := range keys {
		if key == "" || i >= len(row) {
			continue
		}
		rec[key] = ConvertValue(row[i])
	}
	rec[CreatedAtKey] = stamp
	return rec
}
