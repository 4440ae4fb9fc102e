package main

import (
	"context"
	"fmt"
	"time"

	badgerAdapter "github.com/bft-labs/bulkload/internal/adapters/badger"
	"github.com/bft-labs/bulkload/internal/adapters/fs"
	httpsink "github.com/bft-labs/bulkload/internal/adapters/http"
	"github.com/bft-labs/bulkload/internal/adapters/mongo"
	"github.com/bft-labs/bulkload/internal/adapters/mysql"
	"github.com/bft-labs/bulkload/internal/cliconfig"
	"github.com/bft-labs/bulkload/internal/ports"
)

const closeTimeout = 10 * time.Second

// components builds the checkpoint store and sink selected by the config
// and releases them in reverse order.
type components struct {
	cfg     cliconfig.Config
	logger  ports.Logger
	backend *badgerAdapter.Backend
	closers []func() error
}

func newComponents(cfg cliconfig.Config, logger ports.Logger) *components {
	return &components{cfg: cfg, logger: logger}
}

// badgerBackend opens the embedded database once; the checkpoint store and
// the document sink share it.
func (c *components) badgerBackend() (*badgerAdapter.Backend, error) {
	if c.backend != nil {
		return c.backend, nil
	}
	b, err := badgerAdapter.OpenBackend(c.cfg.BadgerDir, false, c.logger)
	if err != nil {
		return nil, fmt.Errorf("open badger %s: %w", c.cfg.BadgerDir, err)
	}
	c.backend = b
	c.closers = append(c.closers, b.Close)
	return b, nil
}

// fileStore returns the JSON file checkpoint store.
func (c *components) fileStore() *fs.CheckpointFileStore {
	if c.cfg.StateFile != "" {
		return fs.NewCheckpointFileStoreAt(c.cfg.StateFile)
	}
	return fs.NewCheckpointFileStore(c.cfg.StateDir)
}

// checkpointStore returns the configured checkpoint store.
func (c *components) checkpointStore() (ports.CheckpointStore, error) {
	switch c.cfg.CheckpointBackend {
	case cliconfig.BackendBadger:
		b, err := c.badgerBackend()
		if err != nil {
			return nil, err
		}
		return badgerAdapter.NewCheckpointStore(b), nil
	default:
		return c.fileStore(), nil
	}
}

// sink connects the configured write sink.
func (c *components) sink(ctx context.Context) (ports.WriteSink, error) {
	switch c.cfg.Sink {
	case cliconfig.SinkMongo:
		s, err := mongo.Connect(ctx, c.cfg.Mongo, c.logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
			defer cancel()
			return s.Close(ctx)
		})
		return s, nil

	case cliconfig.SinkMySQL:
		s, err := mysql.Open(ctx, c.cfg.MySQL, c.logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, s.Close)
		return s, nil

	case cliconfig.SinkHTTP:
		s, err := httpsink.NewSink(nil, c.cfg.HTTP, c.cfg.Operation, c.logger)
		if err != nil {
			return nil, err
		}
		return s, nil

	case cliconfig.SinkBadger:
		b, err := c.badgerBackend()
		if err != nil {
			return nil, err
		}
		s, err := badgerAdapter.NewDocumentSink(b, c.cfg.Operation)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, s.Close)
		return s, nil

	default:
		return nil, fmt.Errorf("unknown sink %q", c.cfg.Sink)
	}
}

// Close releases everything opened, last opened first.
func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.logger.Warn("close failed", ports.Err(err))
		}
	}
	c.closers = nil
	c.backend = nil
}
