package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Operation         string `toml:"operation"`
	Input             string `toml:"input"`
	InputFormat       string `toml:"input_format"`
	ChunkSize         int    `toml:"chunk_size"`
	MaxChunkSize      int    `toml:"max_chunk_size"`
	AutoChunk         *bool  `toml:"auto_chunk"`
	Resume            *bool  `toml:"resume"`
	StateDir          string `toml:"state_dir"`
	StateFile         string `toml:"state_file"`
	CheckpointBackend string `toml:"checkpoint_backend"`
	BadgerDir         string `toml:"badger_dir"`
	Sink              string `toml:"sink"`
	WriteOp           string `toml:"write_op"`
	RetryDelay        string `toml:"retry_delay"`
	Validate          *bool  `toml:"validate"`
	Report            string `toml:"report"`
	LogLevel          string `toml:"log_level"`
	Workers           int    `toml:"workers"`

	Mongo FileMongoConfig `toml:"mongo"`
	MySQL FileMySQLConfig `toml:"mysql"`
	HTTP  FileHTTPConfig  `toml:"http"`
	FTP   FileFTPConfig   `toml:"ftp"`
}

// FileMongoConfig is the [mongo] table.
type FileMongoConfig struct {
	URI        string `toml:"uri"`
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	Username   string `toml:"username"`
	Password   string `toml:"password"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
	Timeout    string `toml:"timeout"`
}

// FileMySQLConfig is the [mysql] table.
type FileMySQLConfig struct {
	Addr     string `toml:"addr"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	Table    string `toml:"table"`
	KeyField string `toml:"key_field"`
}

// FileHTTPConfig is the [http] table.
type FileHTTPConfig struct {
	URL     string `toml:"url"`
	AuthKey string `toml:"auth_key"`
	Timeout string `toml:"timeout"`
}

// FileFTPConfig is the [ftp] table.
type FileFTPConfig struct {
	Addr     string `toml:"addr"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Timeout  string `toml:"timeout"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.bulkload/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".bulkload", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("operation", fc.Operation, &cfg.Operation)
	s.setString("input", fc.Input, &cfg.Input)
	s.setString("input-format", fc.InputFormat, &cfg.InputFormat)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("state-file", fc.StateFile, &cfg.StateFile)
	s.setString("checkpoint-backend", fc.CheckpointBackend, &cfg.CheckpointBackend)
	s.setString("badger-dir", fc.BadgerDir, &cfg.BadgerDir)
	s.setString("sink", fc.Sink, &cfg.Sink)
	s.setString("write-op", fc.WriteOp, &cfg.WriteOp)
	s.setString("report", fc.Report, &cfg.Report)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	s.setInt("chunk-size", fc.ChunkSize, &cfg.ChunkSize)
	s.setInt("max-chunk-size", fc.MaxChunkSize, &cfg.MaxChunkSize)
	s.setInt("workers", fc.Workers, &cfg.Workers)

	if err := s.setDuration("retry-delay", fc.RetryDelay, &cfg.RetryDelay); err != nil {
		return err
	}

	s.setBool("auto-chunk", fc.AutoChunk, &cfg.AutoChunk)
	s.setBool("resume", fc.Resume, &cfg.Resume)
	s.setBool("validate", fc.Validate, &cfg.ValidateCount)

	s.setString("mongo-uri", fc.Mongo.URI, &cfg.Mongo.URI)
	s.setString("mongo-host", fc.Mongo.Host, &cfg.Mongo.Host)
	s.setInt("mongo-port", fc.Mongo.Port, &cfg.Mongo.Port)
	s.setString("mongo-username", fc.Mongo.Username, &cfg.Mongo.Username)
	s.setString("mongo-password", fc.Mongo.Password, &cfg.Mongo.Password)
	s.setString("mongo-database", fc.Mongo.Database, &cfg.Mongo.Database)
	s.setString("mongo-collection", fc.Mongo.Collection, &cfg.Mongo.Collection)
	if err := s.setDuration("mongo-timeout", fc.Mongo.Timeout, &cfg.Mongo.Timeout); err != nil {
		return err
	}

	s.setString("mysql-addr", fc.MySQL.Addr, &cfg.MySQL.Addr)
	s.setString("mysql-user", fc.MySQL.User, &cfg.MySQL.User)
	s.setString("mysql-password", fc.MySQL.Password, &cfg.MySQL.Password)
	s.setString("mysql-database", fc.MySQL.Database, &cfg.MySQL.Database)
	s.setString("mysql-table", fc.MySQL.Table, &cfg.MySQL.Table)
	s.setString("mysql-key-field", fc.MySQL.KeyField, &cfg.MySQL.KeyField)

	s.setString("http-url", fc.HTTP.URL, &cfg.HTTP.URL)
	s.setString("http-auth-key", fc.HTTP.AuthKey, &cfg.HTTP.AuthKey)
	if err := s.setDuration("http-timeout", fc.HTTP.Timeout, &cfg.HTTP.Timeout); err != nil {
		return err
	}

	s.setString("ftp-addr", fc.FTP.Addr, &cfg.FTP.Addr)
	s.setString("ftp-user", fc.FTP.User, &cfg.FTP.User)
	s.setString("ftp-password", fc.FTP.Password, &cfg.FTP.Password)
	if err := s.setDuration("ftp-timeout", fc.FTP.Timeout, &cfg.FTP.Timeout); err != nil {
		return err
	}

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
