// Package mysql writes record chunks as JSON documents into a MySQL table.
package mysql

import (
	"regexp"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"github.com/bft-labs/bulkload/internal/domain"
)

// Default connection values.
const (
	DefaultAddr     = "127.0.0.1:3306"
	DefaultUser     = "root"
	DefaultDatabase = "healthcare_db"
	DefaultTable    = "patients"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds the connection parameters of a MySQL sink.
type Config struct {
	Addr     string
	User     string
	Password string
	Database string
	Table    string

	// KeyField names the record field used as a unique natural key.
	// Re-applied records with the same key are ignored. Empty disables it.
	KeyField string

	Timeout time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Addr:     DefaultAddr,
		User:     DefaultUser,
		Database: DefaultDatabase,
		Table:    DefaultTable,
		Timeout:  10 * time.Second,
	}
}

// Validate checks the config for required fields.
func (c Config) Validate() error {
	if c.Addr == "" || c.User == "" || c.Database == "" {
		return errors.Wrap(domain.ErrInvalidConfig, "mysql addr, user and database are required")
	}
	if !identifier.MatchString(c.Table) {
		return errors.Wrapf(domain.ErrInvalidConfig, "invalid mysql table name %q", c.Table)
	}
	return nil
}

// DSN formats the driver data source name.
func (c Config) DSN() string {
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = c.Addr
	mc.User = c.User
	mc.Passwd = c.Password
	mc.DBName = c.Database
	mc.ParseTime = true
	mc.Timeout = c.Timeout
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}
