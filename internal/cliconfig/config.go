package cliconfig

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	httpsink "github.com/bft-labs/bulkload/internal/adapters/http"
	"github.com/bft-labs/bulkload/internal/adapters/mongo"
	"github.com/bft-labs/bulkload/internal/adapters/mysql"
	"github.com/bft-labs/bulkload/internal/adapters/source"
	"github.com/bft-labs/bulkload/internal/app"
	"github.com/bft-labs/bulkload/internal/domain"
	"github.com/bft-labs/bulkload/internal/report"
)

// Sink and checkpoint backend names.
const (
	SinkMongo  = "mongo"
	SinkMySQL  = "mysql"
	SinkBadger = "badger"
	SinkHTTP   = "http"

	BackendFile   = "file"
	BackendBadger = "badger"
)

// Config holds CLI configuration for bulkload.
type Config struct {
	Operation   string
	Input       string
	InputFormat string

	// ChunkSize of zero picks a size from the record count
	ChunkSize    int
	MaxChunkSize int
	AutoChunk    bool

	Resume   bool
	Reset    bool
	Truncate bool

	StateDir          string
	StateFile         string
	CheckpointBackend string
	BadgerDir         string

	Sink       string
	WriteOp    string
	RetryDelay time.Duration

	// ValidateCount compares the sink's document count with the input size
	// after a complete run
	ValidateCount bool

	Report   string
	LogLevel string
	Workers  int

	Mongo mongo.Config
	MySQL mysql.Config
	HTTP  httpsink.Config
	FTP   source.FTPConfig
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		InputFormat:       source.FormatCSV,
		ChunkSize:         app.DefaultMaxChunkSize,
		MaxChunkSize:      app.DefaultMaxChunkSize,
		Resume:            true,
		StateDir:          ".",
		CheckpointBackend: BackendFile,
		Sink:              SinkMongo,
		WriteOp:           domain.OpInsert.String(),
		RetryDelay:        app.DefaultRetryDelay,
		ValidateCount:     true,
		Report:            string(report.FormatText),
		LogLevel:          zerolog.InfoLevel.String(),
		Mongo:             mongo.DefaultConfig(),
		MySQL:             mysql.DefaultConfig(),
		HTTP:              httpsink.Config{Timeout: httpsink.DefaultTimeout},
		FTP:               source.FTPConfig{Timeout: 30 * time.Second},
	}
}

// Validate checks the configuration for errors and sets derived defaults.
// It covers everything the status and reset commands need.
func (c *Config) Validate() error {
	if c.Operation == "" {
		c.Operation = c.defaultOperation()
	}
	if c.Operation == "" {
		return fmt.Errorf("%w: operation is required (or input)", domain.ErrInvalidConfig)
	}

	if c.StateDir == "" {
		c.StateDir = "."
	}

	switch c.CheckpointBackend {
	case "", BackendFile:
		c.CheckpointBackend = BackendFile
	case BackendBadger:
	default:
		return fmt.Errorf("%w: unknown checkpoint backend %q", domain.ErrInvalidConfig, c.CheckpointBackend)
	}

	if c.BadgerDir == "" {
		c.BadgerDir = filepath.Join(c.StateDir, "badger")
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log level %q", domain.ErrInvalidConfig, c.LogLevel)
	}

	return nil
}

// ValidateRun validates the configuration for a load run.
func (c *Config) ValidateRun() error {
	if c.Input == "" {
		return fmt.Errorf("%w: input is required", domain.ErrInvalidConfig)
	}
	if err := c.Validate(); err != nil {
		return err
	}

	switch c.InputFormat {
	case "", source.FormatCSV, source.FormatJSON:
	default:
		return fmt.Errorf("%w: unsupported input format %q", domain.ErrInvalidConfig, c.InputFormat)
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("%w: got %d", domain.ErrInvalidChunkSize, c.ChunkSize)
	}
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = app.DefaultMaxChunkSize
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry delay must not be negative", domain.ErrInvalidConfig)
	}
	if _, err := domain.ParseWriteOp(c.WriteOp); err != nil {
		return err
	}
	if _, err := report.ParseFormat(c.Report); err != nil {
		return err
	}

	switch c.Sink {
	case SinkMongo:
		return c.Mongo.Validate()
	case SinkMySQL:
		return c.MySQL.Validate()
	case SinkHTTP:
		return c.HTTP.Validate()
	case SinkBadger:
		return nil
	default:
		return fmt.Errorf("%w: unknown sink %q", domain.ErrInvalidConfig, c.Sink)
	}
}

// LoaderChunkSize returns the chunk size handed to the loader.
// Zero selects a size from the record count.
func (c *Config) LoaderChunkSize() int {
	if c.AutoChunk {
		return 0
	}
	return c.ChunkSize
}

// operationFromInput derives an operation name from the input's base name:
// "data/patients.csv" becomes "patients".
// defaultOperation names the operation when none is configured. CSV loads
// are named after the input file; JSON imports after their target, as
// import_<collection>.
func (c *Config) defaultOperation() string {
	if c.InputFormat != source.FormatJSON {
		return operationFromInput(c.Input)
	}
	target := operationFromInput(c.Input)
	switch c.Sink {
	case SinkMongo:
		target = c.Mongo.Collection
	case SinkMySQL:
		target = c.MySQL.Table
	}
	if target == "" {
		return ""
	}
	return "import_" + target
}

func operationFromInput(input string) string {
	if input == "" {
		return ""
	}
	if i := strings.LastIndex(input, "/"); i >= 0 {
		input = input[i+1:]
	}
	return strings.TrimSuffix(input, filepath.Ext(input))
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
