package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/bulkload/internal/adapters/fs"
	logAdapter "github.com/bft-labs/bulkload/internal/adapters/log"
	"github.com/bft-labs/bulkload/internal/adapters/source"
	"github.com/bft-labs/bulkload/internal/cliconfig"
	"github.com/bft-labs/bulkload/internal/domain"
	"github.com/bft-labs/bulkload/internal/ports"
	"github.com/bft-labs/bulkload/internal/report"
	"github.com/bft-labs/bulkload/pkg/bulkload"
)

const helpDescription = `
Load large CSV exports into MongoDB, MySQL or an embedded badger store in
resumable chunks.

Highlights:
  - Fixed-size chunks, each retried once after a short backoff.
  - A checkpoint is saved after every chunk; a chunk that fails twice pauses
    the run and the next run with the same --operation resumes from it.
  - Ctrl-C stops after the current chunk with the checkpoint kept.
  - Configure via file ($HOME/.bulkload/config.toml), env (BULKLOAD_*, MONGO_*) or flags.
`

var exampleUsage = strings.TrimSpace(`
  bulkload run --input csv/healthcare_dataset.csv --operation migration
  bulkload run --input ftp://etl@files.internal/exports/patients.csv --sink mysql --auto-chunk
  bulkload status --operation migration --watch
  bulkload reset --operation migration
`)

// Exit codes for a finished run.
const (
	exitPaused      = 2
	exitInterrupted = 130
)

// runStatusError carries a non-completed run status to the exit code.
type runStatusError struct {
	status domain.RunStatus
}

func (e runStatusError) Error() string {
	return "run " + string(e.status)
}

func exitCode(err error) int {
	var rse runStatusError
	if errors.As(err, &rse) {
		switch rse.status {
		case domain.StatusPaused:
			return exitPaused
		case domain.StatusInterrupted:
			return exitInterrupted
		}
	}
	return 1
}

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger(cfg.LogLevel)

	root := &cobra.Command{
		Use:           "bulkload",
		Short:         "Resumable chunked bulk loading into document stores",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// loadConfig applies file and env config under the flags, validates, and
	// rebuilds the logger at the configured level.
	loadConfig := func(cmd *cobra.Command) error {
		cfgFile := cfgPath
		if cfgFile == "" {
			cfgFile = cliconfig.DefaultConfigPath()
		}

		// Build set of changed flags
		changed := map[string]bool{}
		cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

		if cfgFile != "" && cliconfig.FileExists(cfgFile) {
			fc, err := cliconfig.LoadFileConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
				return err
			}
		}

		// Env overrides file config; flags override both
		if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
			return err
		}

		if err := cfg.Validate(); err != nil {
			return err
		}
		log = cliconfig.Logger(cfg.LogLevel)
		return nil
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Load records into the configured sink, resuming from the saved checkpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			if err := cfg.ValidateRun(); err != nil {
				return err
			}
			log.Info().Interface("config", maskSecrets(cfg)).Msg("configuration")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runLoad(ctx, cfg, log)
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the saved checkpoint of an operation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			watch, _ := cmd.Flags().GetBool("watch")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return showStatus(ctx, cfg, log, watch)
		},
	}
	statusCmd.Flags().Bool("watch", false, "follow checkpoint updates (file backend only)")

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the saved checkpoint so the next run starts from the first record",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			logger := logAdapter.NewZerologAdapterWithLogger(log)
			c := newComponents(cfg, logger)
			defer c.Close()

			store, err := c.checkpointStore()
			if err != nil {
				return err
			}
			if err := store.Clear(context.Background(), cfg.Operation); err != nil {
				return fmt.Errorf("clear checkpoint: %w", err)
			}
			log.Info().Str("operation", cfg.Operation).Msg("checkpoint cleared")
			return nil
		},
	}

	// Flags shared by every command
	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.bulkload/config.toml)")
	pf.StringVar(&cfg.Operation, "operation", "", "operation name keying the checkpoint (default: input file base name, or import_<collection> for json)")
	pf.StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "directory for batch_state_<operation>.json files")
	pf.StringVar(&cfg.StateFile, "state-file", "", "explicit checkpoint file path (overrides state-dir)")
	pf.StringVar(&cfg.CheckpointBackend, "checkpoint-backend", cfg.CheckpointBackend, "checkpoint store: file or badger")
	pf.StringVar(&cfg.BadgerDir, "badger-dir", "", "badger database directory (default: <state-dir>/badger)")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	pf.StringVar(&cfg.Report, "report", cfg.Report, "output format: text, json or yaml")

	// Run flags
	rf := runCmd.Flags()
	rf.StringVar(&cfg.Input, "input", "", "CSV input: a file path or ftp://[user@]host[:port]/path URL")
	rf.StringVar(&cfg.InputFormat, "input-format", cfg.InputFormat, "input format (csv|json)")
	rf.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "records per chunk (0 picks a size from the record count)")
	rf.IntVar(&cfg.MaxChunkSize, "max-chunk-size", cfg.MaxChunkSize, "upper bound for automatic chunk sizes")
	rf.BoolVar(&cfg.AutoChunk, "auto-chunk", cfg.AutoChunk, "pick the chunk size from the record count")
	rf.BoolVar(&cfg.Resume, "resume", cfg.Resume, "resume from the saved checkpoint")
	rf.BoolVar(&cfg.Reset, "reset", cfg.Reset, "clear the saved checkpoint before running")
	rf.BoolVar(&cfg.Truncate, "truncate", cfg.Truncate, "empty the target before a run that starts from the first record")
	rf.StringVar(&cfg.Sink, "sink", cfg.Sink, "write sink: mongo, mysql, badger or http")
	rf.StringVar(&cfg.WriteOp, "write-op", cfg.WriteOp, "write operation (insert)")
	rf.DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "delay before retrying a failed chunk")
	rf.BoolVar(&cfg.ValidateCount, "validate", cfg.ValidateCount, "compare the sink's document count with the input after a complete run")
	rf.IntVar(&cfg.Workers, "workers", cfg.Workers, "CSV conversion workers (default: number of CPUs)")

	rf.StringVar(&cfg.Mongo.URI, "mongo-uri", "", "MongoDB connection URI (overrides host/port/credentials)")
	rf.StringVar(&cfg.Mongo.Host, "mongo-host", cfg.Mongo.Host, "MongoDB host")
	rf.IntVar(&cfg.Mongo.Port, "mongo-port", cfg.Mongo.Port, "MongoDB port")
	rf.StringVar(&cfg.Mongo.Username, "mongo-username", cfg.Mongo.Username, "MongoDB user")
	rf.StringVar(&cfg.Mongo.Password, "mongo-password", cfg.Mongo.Password, "MongoDB password")
	rf.StringVar(&cfg.Mongo.Database, "mongo-database", cfg.Mongo.Database, "MongoDB database")
	rf.StringVar(&cfg.Mongo.Collection, "mongo-collection", cfg.Mongo.Collection, "MongoDB collection")
	rf.DurationVar(&cfg.Mongo.Timeout, "mongo-timeout", cfg.Mongo.Timeout, "MongoDB connect timeout")

	rf.StringVar(&cfg.MySQL.Addr, "mysql-addr", cfg.MySQL.Addr, "MySQL address host:port")
	rf.StringVar(&cfg.MySQL.User, "mysql-user", cfg.MySQL.User, "MySQL user")
	rf.StringVar(&cfg.MySQL.Password, "mysql-password", cfg.MySQL.Password, "MySQL password")
	rf.StringVar(&cfg.MySQL.Database, "mysql-database", cfg.MySQL.Database, "MySQL database")
	rf.StringVar(&cfg.MySQL.Table, "mysql-table", cfg.MySQL.Table, "MySQL table")
	rf.StringVar(&cfg.MySQL.KeyField, "mysql-key-field", cfg.MySQL.KeyField, "record field used as the unique natural key (optional)")

	rf.StringVar(&cfg.HTTP.URL, "http-url", "", "ingest endpoint receiving one JSON POST per chunk")
	rf.StringVar(&cfg.HTTP.AuthKey, "http-auth-key", "", "bearer token for the ingest endpoint")
	rf.DurationVar(&cfg.HTTP.Timeout, "http-timeout", cfg.HTTP.Timeout, "ingest request timeout")

	rf.StringVar(&cfg.FTP.User, "ftp-user", "", "FTP user (default: from the URL, else anonymous)")
	rf.StringVar(&cfg.FTP.Password, "ftp-password", "", "FTP password")
	rf.DurationVar(&cfg.FTP.Timeout, "ftp-timeout", cfg.FTP.Timeout, "FTP dial and transfer timeout")

	root.AddCommand(runCmd, statusCmd, resetCmd)

	if err := root.Execute(); err != nil {
		code := exitCode(err)
		if code == 1 {
			log.Error().Err(err).Msg("bulkload")
		}
		os.Exit(code)
	}
}

// runLoad executes one load run and renders its report.
func runLoad(ctx context.Context, cfg cliconfig.Config, log zerolog.Logger) error {
	logger := logAdapter.NewZerologAdapterWithLogger(log)

	c := newComponents(cfg, logger)
	defer c.Close()

	store, err := c.checkpointStore()
	if err != nil {
		return err
	}
	sink, err := c.sink(ctx)
	if err != nil {
		return err
	}

	loader, err := bulkload.New(bulkload.Config{
		Operation:    cfg.Operation,
		ChunkSize:    cfg.LoaderChunkSize(),
		MaxChunkSize: cfg.MaxChunkSize,
		RetryDelay:   cfg.RetryDelay,
		StateDir:     cfg.StateDir,
	}, sink, bulkload.WithLogger(logger), bulkload.WithCheckpointStore(store))
	if err != nil {
		return err
	}

	if cfg.Reset {
		if err := loader.Reset(ctx); err != nil {
			return err
		}
	}

	if cfg.Truncate {
		if err := truncateIfFresh(ctx, loader, cfg.Resume); err != nil {
			return err
		}
	}

	src, err := source.Open(cfg.Input, cfg.InputFormat, cfg.FTP, cfg.Workers, logger)
	if err != nil {
		return err
	}

	op, err := domain.ParseWriteOp(cfg.WriteOp)
	if err != nil {
		return err
	}
	opts := []bulkload.RunOption{
		bulkload.WithResume(cfg.Resume),
		bulkload.WithWriteOp(op),
	}
	if cfg.ValidateCount {
		if _, ok := sink.(ports.Counter); ok {
			opts = append(opts, bulkload.WithCountValidation())
		} else {
			log.Info().Str("sink", cfg.Sink).Msg("sink cannot count documents, skipping validation")
		}
	}

	stats, err := loader.Load(ctx, src, opts...)
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(cfg.Report)
	if err != nil {
		return err
	}
	if err := report.Render(os.Stdout, stats, format); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if format != report.FormatText {
		if hint := report.ResumeHint(stats); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
	}

	if stats.Status != domain.StatusCompleted {
		return runStatusError{status: stats.Status}
	}
	return nil
}

// truncateIfFresh empties the sink unless the run resumes from a saved
// checkpoint, which would drop the chunks already applied.
func truncateIfFresh(ctx context.Context, loader *bulkload.Loader, resume bool) error {
	if resume {
		cp, err := loader.Checkpoint(ctx)
		if err != nil {
			return fmt.Errorf("load checkpoint: %w", err)
		}
		if cp != nil && cp.LastProcessedIndex > 0 {
			return fmt.Errorf("%w: --truncate with a saved checkpoint at index %d; use --reset or --resume=false",
				domain.ErrInvalidConfig, cp.LastProcessedIndex)
		}
	}
	return loader.Truncate(ctx)
}

// showStatus prints the checkpoint, and with watch follows it until ctx ends.
func showStatus(ctx context.Context, cfg cliconfig.Config, log zerolog.Logger, watch bool) error {
	logger := logAdapter.NewZerologAdapterWithLogger(log)
	format, err := report.ParseFormat(cfg.Report)
	if err != nil {
		return err
	}

	c := newComponents(cfg, logger)
	defer c.Close()

	if !watch {
		store, err := c.checkpointStore()
		if err != nil {
			return err
		}
		cp, err := store.Load(ctx, cfg.Operation)
		if err != nil {
			return fmt.Errorf("load checkpoint: %w", err)
		}
		return report.RenderCheckpoint(os.Stdout, cfg.Operation, cp, format)
	}

	if cfg.CheckpointBackend != cliconfig.BackendFile {
		return fmt.Errorf("%w: --watch needs the file checkpoint backend", domain.ErrInvalidConfig)
	}

	store := c.fileStore()
	if err := os.MkdirAll(filepath.Dir(store.Path(cfg.Operation)), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	watcher := fs.NewCheckpointWatcher(store, cfg.Operation, logger)
	return watcher.Run(ctx, func(cp *domain.Checkpoint) {
		if err := report.RenderCheckpoint(os.Stdout, cfg.Operation, cp, format); err != nil {
			log.Warn().Err(err).Msg("render checkpoint")
		}
	})
}

// maskSecrets returns cfg with passwords hidden for logging.
func maskSecrets(cfg cliconfig.Config) cliconfig.Config {
	if cfg.Mongo.Password != "" {
		cfg.Mongo.Password = "*****"
	}
	if cfg.Mongo.URI != "" {
		cfg.Mongo.URI = cfg.Mongo.Redacted()
	}
	if cfg.MySQL.Password != "" {
		cfg.MySQL.Password = "*****"
	}
	if cfg.FTP.Password != "" {
		cfg.FTP.Password = "*****"
	}
	if cfg.HTTP.AuthKey != "" {
		cfg.HTTP.AuthKey = "*****"
	}
	if strings.HasPrefix(cfg.Input, "ftp://") {
		cfg.Input = source.RedactLocation(cfg.Input)
	}
	return cfg
}
