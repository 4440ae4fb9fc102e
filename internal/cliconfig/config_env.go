package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables
// (BULKLOAD_*, plus the MONGO_* connection variables).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("operation", os.Getenv("BULKLOAD_OPERATION"), &cfg.Operation)
	s.setString("input", os.Getenv("BULKLOAD_INPUT"), &cfg.Input)
	s.setString("input-format", os.Getenv("BULKLOAD_INPUT_FORMAT"), &cfg.InputFormat)
	s.setString("state-dir", os.Getenv("BULKLOAD_STATE_DIR"), &cfg.StateDir)
	s.setString("state-file", os.Getenv("BULKLOAD_STATE_FILE"), &cfg.StateFile)
	s.setString("checkpoint-backend", os.Getenv("BULKLOAD_CHECKPOINT_BACKEND"), &cfg.CheckpointBackend)
	s.setString("badger-dir", os.Getenv("BULKLOAD_BADGER_DIR"), &cfg.BadgerDir)
	s.setString("sink", os.Getenv("BULKLOAD_SINK"), &cfg.Sink)
	s.setString("write-op", os.Getenv("BULKLOAD_WRITE_OP"), &cfg.WriteOp)
	s.setString("report", os.Getenv("BULKLOAD_REPORT"), &cfg.Report)
	s.setString("log-level", os.Getenv("BULKLOAD_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setIntFromString("chunk-size", os.Getenv("BULKLOAD_CHUNK_SIZE"), &cfg.ChunkSize); err != nil {
		return err
	}
	if err := s.setIntFromString("max-chunk-size", os.Getenv("BULKLOAD_MAX_CHUNK_SIZE"), &cfg.MaxChunkSize); err != nil {
		return err
	}
	if err := s.setIntFromString("workers", os.Getenv("BULKLOAD_WORKERS"), &cfg.Workers); err != nil {
		return err
	}
	if err := s.setDuration("retry-delay", os.Getenv("BULKLOAD_RETRY_DELAY"), &cfg.RetryDelay); err != nil {
		return err
	}

	s.setBoolFromString("auto-chunk", os.Getenv("BULKLOAD_AUTO_CHUNK"), &cfg.AutoChunk)
	s.setBoolFromString("resume", os.Getenv("BULKLOAD_RESUME"), &cfg.Resume)
	s.setBoolFromString("validate", os.Getenv("BULKLOAD_VALIDATE"), &cfg.ValidateCount)

	s.setString("mongo-uri", os.Getenv("MONGO_URI"), &cfg.Mongo.URI)
	s.setString("mongo-host", os.Getenv("MONGO_HOST"), &cfg.Mongo.Host)
	if err := s.setIntFromString("mongo-port", os.Getenv("MONGO_PORT"), &cfg.Mongo.Port); err != nil {
		return err
	}
	s.setString("mongo-username", os.Getenv("MONGO_USERNAME"), &cfg.Mongo.Username)
	s.setString("mongo-password", os.Getenv("MONGO_PASSWORD"), &cfg.Mongo.Password)
	s.setString("mongo-database", os.Getenv("MONGO_DATABASE"), &cfg.Mongo.Database)
	s.setString("mongo-collection", os.Getenv("MONGO_COLLECTION"), &cfg.Mongo.Collection)

	s.setString("mysql-addr", os.Getenv("BULKLOAD_MYSQL_ADDR"), &cfg.MySQL.Addr)
	s.setString("mysql-user", os.Getenv("BULKLOAD_MYSQL_USER"), &cfg.MySQL.User)
	s.setString("mysql-password", os.Getenv("BULKLOAD_MYSQL_PASSWORD"), &cfg.MySQL.Password)
	s.setString("mysql-database", os.Getenv("BULKLOAD_MYSQL_DATABASE"), &cfg.MySQL.Database)
	s.setString("mysql-table", os.Getenv("BULKLOAD_MYSQL_TABLE"), &cfg.MySQL.Table)

	s.setString("http-url", os.Getenv("BULKLOAD_HTTP_URL"), &cfg.HTTP.URL)
	s.setString("http-auth-key", os.Getenv("BULKLOAD_HTTP_AUTH_KEY"), &cfg.HTTP.AuthKey)

	s.setString("ftp-addr", os.Getenv("BULKLOAD_FTP_ADDR"), &cfg.FTP.Addr)
	s.setString("ftp-user", os.Getenv("BULKLOAD_FTP_USER"), &cfg.FTP.User)
	s.setString("ftp-password", os.Getenv("BULKLOAD_FTP_PASSWORD"), &cfg.FTP.Password)

	return nil
}
