package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/bft-labs/bulkload/internal/domain"
	"github.com/bft-labs/bulkload/internal/ports"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Sink implements ports.WriteSink by inserting each record as a JSON
// document row.
type Sink struct {
	db       *sql.DB
	exec     execer
	table    string
	keyField string
	logger   ports.Logger
}

var (
	_ ports.WriteSink = (*Sink)(nil)
	_ ports.Counter   = (*Sink)(nil)
	_ ports.Truncater = (*Sink)(nil)
)

// Open connects to MySQL and creates the document table if missing.
func Open(ctx context.Context, cfg Config, logger ports.Logger) (*Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "ping mysql %s", cfg.Addr)
	}

	s := &Sink{
		db:       db,
		exec:     db,
		table:    cfg.Table,
		keyField: cfg.KeyField,
		logger:   logger,
	}
	if _, err := db.ExecContext(ctx, s.createTableSQL()); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "create table %s", cfg.Table)
	}

	logger.Info("connected to mysql",
		ports.String("addr", cfg.Addr),
		ports.String("database", cfg.Database),
		ports.String("table", cfg.Table),
	)
	return s, nil
}

func (s *Sink) createTableSQL() string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` ("+
		"`id` BIGINT AUTO_INCREMENT PRIMARY KEY, "+
		"`natural_key` VARCHAR(255) NULL UNIQUE, "+
		"`doc` JSON NOT NULL, "+
		"`created_at` TIMESTAMP DEFAULT CURRENT_TIMESTAMP)", s.table)
}

// Apply inserts records with INSERT IGNORE. When a key field is configured,
// rows the server skips are counted as already applied: a replayed chunk
// finds its natural keys present. Other skipped rows are reported as
// rejections.
func (s *Sink) Apply(ctx context.Context, op domain.WriteOp, records []domain.Record) domain.ApplyResult {
	if op != domain.OpInsert {
		return domain.TotalFailure(fmt.Errorf("%w: %s", domain.ErrUnsupportedOperation, op))
	}

	stmt := s.buildInsert(records)
	if stmt.rows == 0 {
		if len(records) == 0 {
			return domain.FullSuccess(0)
		}
		return domain.PartialSuccess(0, stmt.rejections)
	}

	res, err := s.exec.ExecContext(ctx, stmt.query, stmt.args...)
	if err != nil {
		return domain.TotalFailure(errors.Wrap(err, "mysql insert"))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.TotalFailure(errors.Wrap(err, "mysql rows affected"))
	}

	applied := int(affected)
	rejections := stmt.rejections
	if skipped := stmt.rows - applied; skipped > 0 {
		existing := min(skipped, stmt.keyed)
		if existing > 0 {
			s.logger.Info("natural keys already present",
				ports.String("table", s.table),
				ports.Int("rows", existing),
			)
			applied += existing
			skipped -= existing
		}
		if skipped > 0 {
			rejections = append(rejections, fmt.Sprintf("%d rows ignored by server", skipped))
		}
	}
	if applied == len(records) {
		return domain.FullSuccess(applied)
	}
	return domain.PartialSuccess(applied, rejections)
}

type insertStmt struct {
	query      string
	args       []any
	rows       int
	keyed      int
	rejections []string
}

// buildInsert encodes records into one multi-row statement. Records that
// cannot be encoded are left out and reported.
func (s *Sink) buildInsert(records []domain.Record) insertStmt {
	var (
		b    strings.Builder
		stmt = insertStmt{args: make([]any, 0, len(records)*2)}
	)

	fmt.Fprintf(&b, "INSERT IGNORE INTO `%s` (`natural_key`, `doc`) VALUES ", s.table)
	for i, rec := range records {
		doc, err := json.Marshal(rec)
		if err != nil {
			stmt.rejections = append(stmt.rejections, fmt.Sprintf("record %d: %v", i, err))
			continue
		}
		if stmt.rows > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?)")
		key := s.naturalKey(rec)
		if key != nil {
			stmt.keyed++
		}
		stmt.args = append(stmt.args, key, string(doc))
		stmt.rows++
	}
	stmt.query = b.String()
	return stmt
}

func (s *Sink) naturalKey(rec domain.Record) any {
	if s.keyField == "" {
		return nil
	}
	v, ok := rec[s.keyField]
	if !ok || v == nil {
		return nil
	}
	return fmt.Sprint(v)
}

// Count returns the number of rows in the table.
func (s *Sink) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM `%s`", s.table)).Scan(&n)
	return n, errors.Wrap(err, "mysql count")
}

// Truncate deletes every row in the table.
func (s *Sink) Truncate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE `%s`", s.table))
	return errors.Wrap(err, "mysql truncate")
}

// Close closes the connection pool.
func (s *Sink) Close() error {
	return s.db.Close()
}
