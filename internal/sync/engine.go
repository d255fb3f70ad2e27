// Package sync pushes pending person records to the remote sink and tracks
// which ones it has accepted. It also hosts retention (purge) and the
// pending/synchronized status projection.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	stdsync "sync"
	"time"

	"github.com/marcus/roster/internal/models"
)

// Engine runs one synchronization attempt per Synchronize call. It never
// retries; repetition is up to the caller.
type Engine struct {
	gate  *Gate
	store EngineStore
	sink  Sink

	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Recorder is optional.
	Recorder Recorder

	// mu keeps overlapping calls from pushing the same snapshot twice.
	mu stdsync.Mutex
}

// NewEngine wires the engine to its collaborators.
func NewEngine(gate *Gate, store EngineStore, sink Sink) *Engine {
	return &Engine{gate: gate, store: store, sink: sink}
}

// Synchronize pushes every record pending at call time in a single batch.
//
// Skipped, RemoteRejected and PartialFailure are reported through the
// returned Outcome. The error is non-nil only when the local store could not
// be read, in which case nothing was sent.
func (e *Engine) Synchronize(ctx context.Context) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := e.logger()
	rec := e.recorder()

	result, err := e.gate.CanSync(ctx)
	if err != nil {
		rec.ObserveSyncError(err)
		return Outcome{}, err
	}
	if result != Allowed {
		o := Skipped(result)
		log.Debug("sync: skipped", "reason", result)
		rec.ObserveSync(o, 0)
		return o, nil
	}

	people, err := e.store.ListPending(ctx)
	if err != nil {
		err = fmt.Errorf("snapshot pending: %w", err)
		rec.ObserveSyncError(err)
		return Outcome{}, err
	}
	if len(people) == 0 {
		o := Skipped(NoPendingRecords)
		log.Debug("sync: pending drained before snapshot")
		rec.ObserveSync(o, 0)
		return o, nil
	}

	// Only this exact set is ever marked; records inserted while the push is
	// in flight wait for the next call.
	ids := models.IDs(people)
	batch := Payload(people)

	log.Debug("sync: pushing batch", "count", len(batch))
	start := time.Now()
	err = e.sink.Push(ctx, batch)
	elapsed := time.Since(start)

	if err != nil {
		o := Outcome{Kind: OutcomeRemoteRejected, Err: err}
		log.Warn("sync: remote rejected batch", "count", len(batch), "err", err)
		rec.ObserveSync(o, elapsed)
		return o, nil
	}

	// The sink has the batch; record that even if the caller gave up meanwhile.
	if _, err := e.store.MarkSynchronized(context.WithoutCancel(ctx), ids); err != nil {
		o := Outcome{Kind: OutcomePartialFailure, Count: len(ids), Err: err}
		log.Error("sync: batch accepted but not marked; records will be resent",
			"count", len(ids), "first_id", ids[0], "last_id", ids[len(ids)-1], "err", err)
		rec.ObserveSync(o, elapsed)
		return o, nil
	}

	o := Outcome{Kind: OutcomeOK, Count: len(ids)}
	log.Info("sync: batch accepted", "count", len(ids), "duration", elapsed)
	rec.ObserveSync(o, elapsed)
	return o, nil
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Engine) recorder() Recorder {
	if e.Recorder != nil {
		return e.Recorder
	}
	return nopRecorder{}
}
