package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marcus/roster/internal/models"
)

// GateResult is the answer of the sync gate.
type GateResult int

const (
	Allowed GateResult = iota
	NoPendingRecords
	Offline
)

func (r GateResult) String() string {
	switch r {
	case Allowed:
		return "allowed"
	case NoPendingRecords:
		return "no_pending_records"
	case Offline:
		return "offline"
	default:
		return fmt.Sprintf("gate_result(%d)", int(r))
	}
}

// OutcomeKind classifies the result of one Synchronize call.
type OutcomeKind int

const (
	// OutcomeOK: the sink accepted the batch and every record in it was marked.
	OutcomeOK OutcomeKind = iota
	// OutcomeSkipped: nothing was sent; Reason says why. Not an error.
	OutcomeSkipped
	// OutcomeRemoteRejected: the push failed; local state is unchanged.
	OutcomeRemoteRejected
	// OutcomePartialFailure: the sink accepted the batch but the records could
	// not be marked, so they will be sent again next time.
	OutcomePartialFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRemoteRejected:
		return "remote_rejected"
	case OutcomePartialFailure:
		return "partial_failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the result of one Synchronize call.
type Outcome struct {
	Kind   OutcomeKind
	Count  int        // records pushed (OK and PartialFailure)
	Reason GateResult // set when Kind is OutcomeSkipped
	Err    error      // set when Kind is RemoteRejected or PartialFailure
}

// Skipped returns a no-op outcome.
func Skipped(reason GateResult) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason}
}

// Failed reports whether the outcome needs the caller's attention.
func (o Outcome) Failed() bool {
	return o.Kind == OutcomeRemoteRejected || o.Kind == OutcomePartialFailure
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeOK:
		return fmt.Sprintf("ok(%d)", o.Count)
	case OutcomeSkipped:
		return fmt.Sprintf("skipped(%s)", o.Reason)
	default:
		return fmt.Sprintf("%s(%v)", o.Kind, o.Err)
	}
}

// MarshalJSON renders the outcome for --json output and the agent API.
func (o Outcome) MarshalJSON() ([]byte, error) {
	v := struct {
		Outcome string `json:"outcome"`
		Count   int    `json:"count"`
		Reason  string `json:"reason,omitempty"`
		Error   string `json:"error,omitempty"`
	}{Outcome: o.Kind.String(), Count: o.Count}
	if o.Kind == OutcomeSkipped {
		v.Reason = o.Reason.String()
	}
	if o.Err != nil {
		v.Error = o.Err.Error()
	}
	return json.Marshal(v)
}

// PurgeKind classifies the result of a purge.
type PurgeKind int

const (
	Purged PurgeKind = iota
	NothingToPurge
)

func (k PurgeKind) String() string {
	if k == NothingToPurge {
		return "nothing_to_purge"
	}
	return "purged"
}

// PurgeOutcome is the result of PurgeSynchronized.
type PurgeOutcome struct {
	Kind  PurgeKind
	Count int64
}

func (p PurgeOutcome) String() string {
	if p.Kind == NothingToPurge {
		return p.Kind.String()
	}
	return fmt.Sprintf("purged(%d)", p.Count)
}

// MarshalJSON renders the purge result for --json output and the agent API.
func (p PurgeOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Result string `json:"result"`
		Count  int64  `json:"count"`
	}{p.Kind.String(), p.Count})
}

// Snapshot is the pending/synchronized split of the store at one moment.
type Snapshot struct {
	Pending      int64 `json:"pending"`
	Synchronized int64 `json:"synchronized"`
}

// Connectivity reports whether the network is reachable.
type Connectivity interface {
	Reachable(ctx context.Context) bool
}

// Sink accepts or rejects a whole batch.
type Sink interface {
	Push(ctx context.Context, batch []models.Contact) error
}

// PendingCounter is what the gate needs from the store.
type PendingCounter interface {
	CountPending(ctx context.Context) (int64, error)
}

// EngineStore is what the engine needs from the store.
type EngineStore interface {
	ListPending(ctx context.Context) ([]models.Person, error)
	MarkSynchronized(ctx context.Context, ids []int64) (int64, error)
}

// Purger is what the retention engine needs from the store.
type Purger interface {
	DeleteSynchronized(ctx context.Context) (int64, error)
}

// Counter is what the status reporter needs from the store. Both counts
// must come from one consistent read.
type Counter interface {
	Counts(ctx context.Context) (pending, synchronized int64, err error)
}

// Recorder observes sync and purge results, e.g. for metrics.
type Recorder interface {
	ObserveSync(o Outcome, push time.Duration)
	ObserveSyncError(err error)
	ObservePurge(p PurgeOutcome)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSync(Outcome, time.Duration) {}
func (nopRecorder) ObserveSyncError(error)             {}
func (nopRecorder) ObservePurge(PurgeOutcome)          {}
