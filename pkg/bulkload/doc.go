// Package bulkload provides an embeddable, resumable bulk loader.
//
// A Loader reads ordered records from a source, splits them into fixed-size
// chunks and applies each chunk to a write sink. Every chunk is retried once
// after a short backoff. A chunk that fails twice pauses the run and leaves a
// checkpoint at its start, so re-running with the same operation name picks
// up exactly where the failure happened.
//
// # Basic Usage
//
//	cfg := bulkload.DefaultConfig()
//	cfg.Operation = "patients"
//
//	loader, err := bulkload.New(cfg, sink, bulkload.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	stats, err := loader.Run(ctx, records)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if stats.Status == bulkload.StatusPaused {
//	    // re-run later to resume
//	}
//
// # Checkpoints
//
// By default checkpoints are JSON files named batch_state_<operation>.json
// under [Config.StateDir]. Use [WithCheckpointStore] to keep them elsewhere.
// A completed run clears its checkpoint.
//
// # Event Handling
//
// Implement [EventHandler] (embedding [BaseEventHandler] for no-op defaults)
// and pass it with [WithEventHandler] to observe state changes and per-chunk
// outcomes. Handlers are called synchronously from the running goroutine.
//
// # Concurrency
//
// Only one run per operation name may be active at a time. Two concurrent
// runs sharing a name overwrite each other's checkpoint.
package bulkload
