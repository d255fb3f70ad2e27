package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/roster/internal/models"
)

// memStore is an in-memory store used to drive the engine without SQLite.
type memStore struct {
	mu        stdsync.Mutex
	people    []models.Person
	nextID    int64
	markErr   error
	listErr   error
	markCalls int
}

func (s *memStore) add(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.nextID++
		s.people = append(s.people, models.Person{
			ID:        s.nextID,
			Contact:   models.Contact{FirstName: "Ana", LastName: "Diaz", DocumentID: "1", PhoneNumber: "2", Email: "a@b.co"},
			CreatedAt: time.Now().UTC(),
		})
	}
}

func (s *memStore) CountPending(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return 0, s.listErr
	}
	var n int64
	for _, p := range s.people {
		if !p.IsSynchronized {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountSynchronized(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.people {
		if p.IsSynchronized {
			n++
		}
	}
	return n, nil
}

func (s *memStore) Counts(context.Context) (pending, synced int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return 0, 0, s.listErr
	}
	for _, p := range s.people {
		if p.IsSynchronized {
			synced++
		} else {
			pending++
		}
	}
	return pending, synced, nil
}

func (s *memStore) ListPending(context.Context) ([]models.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Person
	for _, p := range s.people {
		if !p.IsSynchronized {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) MarkSynchronized(_ context.Context, ids []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markCalls++
	if s.markErr != nil {
		return 0, s.markErr
	}
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var n int64
	for i := range s.people {
		if want[s.people[i].ID] && !s.people[i].IsSynchronized {
			s.people[i].IsSynchronized = true
			n++
		}
	}
	return n, nil
}

func (s *memStore) DeleteSynchronized(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.people[:0]
	var n int64
	for _, p := range s.people {
		if p.IsSynchronized {
			n++
			continue
		}
		kept = append(kept, p)
	}
	s.people = kept
	return n, nil
}

type fakeNet struct {
	up    bool
	calls int
}

func (f *fakeNet) Reachable(context.Context) bool {
	f.calls++
	return f.up
}

type fakeSink struct {
	err     error
	batches [][]models.Contact
	// during runs inside Push, before it returns.
	during func()
}

func (f *fakeSink) Push(_ context.Context, batch []models.Contact) error {
	f.batches = append(f.batches, batch)
	if f.during != nil {
		f.during()
	}
	return f.err
}

type fakeRecorder struct {
	outcomes []Outcome
	errs     []error
	purges   []PurgeOutcome
}

func (r *fakeRecorder) ObserveSync(o Outcome, _ time.Duration) { r.outcomes = append(r.outcomes, o) }
func (r *fakeRecorder) ObserveSyncError(err error)             { r.errs = append(r.errs, err) }
func (r *fakeRecorder) ObservePurge(p PurgeOutcome)            { r.purges = append(r.purges, p) }

func newEngine(store *memStore, net *fakeNet, sink *fakeSink) *Engine {
	return NewEngine(NewGate(store, net), store, sink)
}

func TestSynchronize_EmptyStoreSkips(t *testing.T) {
	store := &memStore{}
	net := &fakeNet{up: true}
	sink := &fakeSink{}

	out, err := newEngine(store, net, sink).Synchronize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Skipped(NoPendingRecords), out)
	assert.Empty(t, sink.batches)
	assert.Zero(t, net.calls, "probe must not be consulted when nothing is pending")
}

func TestSynchronize_OfflineSkips(t *testing.T) {
	store := &memStore{}
	store.add(3)
	net := &fakeNet{up: false}
	sink := &fakeSink{}

	out, err := newEngine(store, net, sink).Synchronize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Skipped(Offline), out)
	assert.False(t, out.Failed())
	assert.Empty(t, sink.batches)
	assert.Equal(t, 1, net.calls)

	pending, _ := store.CountPending(context.Background())
	assert.EqualValues(t, 3, pending)
}

func TestSynchronize_AcceptedMarksBatch(t *testing.T) {
	store := &memStore{}
	store.add(2)
	sink := &fakeSink{}
	rec := &fakeRecorder{}
	engine := newEngine(store, &fakeNet{up: true}, sink)
	engine.Recorder = rec

	out, err := engine.Synchronize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Outcome{Kind: OutcomeOK, Count: 2}, out)
	require.Len(t, sink.batches, 1)
	assert.Len(t, sink.batches[0], 2)

	pending, _ := store.ListPending(context.Background())
	assert.Empty(t, pending)
	synced, _ := store.CountSynchronized(context.Background())
	assert.EqualValues(t, 2, synced)

	require.Len(t, rec.outcomes, 1)
	assert.Equal(t, OutcomeOK, rec.outcomes[0].Kind)
}

func TestSynchronize_RemoteRejectedLeavesStore(t *testing.T) {
	store := &memStore{}
	store.add(2)
	boom := errors.New("503 service unavailable")
	sink := &fakeSink{err: boom}

	out, err := newEngine(store, &fakeNet{up: true}, sink).Synchronize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeRemoteRejected, out.Kind)
	assert.ErrorIs(t, out.Err, boom)
	assert.True(t, out.Failed())
	assert.Zero(t, store.markCalls)

	pending, _ := store.CountPending(context.Background())
	assert.EqualValues(t, 2, pending)
}

func TestSynchronize_MarkFailureIsPartial(t *testing.T) {
	store := &memStore{markErr: errors.New("disk full")}
	store.add(4)

	out, err := newEngine(store, &fakeNet{up: true}, &fakeSink{}).Synchronize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomePartialFailure, out.Kind)
	assert.Equal(t, 4, out.Count)
	assert.EqualError(t, out.Err, "disk full")

	pending, _ := store.CountPending(context.Background())
	assert.EqualValues(t, 4, pending)
}

func TestSynchronize_StoreErrorIsReturned(t *testing.T) {
	store := &memStore{listErr: errors.New("locked")}
	rec := &fakeRecorder{}
	engine := newEngine(store, &fakeNet{up: true}, &fakeSink{})
	engine.Recorder = rec

	_, err := engine.Synchronize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
	assert.Len(t, rec.errs, 1)
}

func TestSynchronize_InsertDuringPushStaysPending(t *testing.T) {
	store := &memStore{}
	store.add(2)
	sink := &fakeSink{during: func() { store.add(1) }}

	out, err := newEngine(store, &fakeNet{up: true}, sink).Synchronize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)

	pending, _ := store.ListPending(context.Background())
	require.Len(t, pending, 1)
	assert.EqualValues(t, 3, pending[0].ID)
}

func TestSynchronize_CanceledAfterPushStillMarks(t *testing.T) {
	store := &memStore{}
	store.add(1)
	ctx, cancel := context.WithCancel(context.Background())
	sink := &fakeSink{during: cancel}

	out, err := newEngine(store, &fakeNet{up: true}, sink).Synchronize(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, out.Kind)
}

func TestSynchronize_SecondCallSkips(t *testing.T) {
	store := &memStore{}
	store.add(2)
	sink := &fakeSink{}
	engine := newEngine(store, &fakeNet{up: true}, sink)

	_, err := engine.Synchronize(context.Background())
	require.NoError(t, err)
	out, err := engine.Synchronize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Skipped(NoPendingRecords), out)
	assert.Len(t, sink.batches, 1)
}

func TestPayloadDropsLocalFields(t *testing.T) {
	people := []models.Person{{
		ID:             7,
		Contact:        models.Contact{FirstName: "Luz", Email: "luz@x.co"},
		CreatedAt:      time.Now(),
		IsSynchronized: true,
	}}
	batch := Payload(people)
	require.Len(t, batch, 1)
	assert.Equal(t, models.Contact{FirstName: "Luz", Email: "luz@x.co"}, batch[0])
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		out  Outcome
		want string
	}{
		{Outcome{Kind: OutcomeOK, Count: 3}, "ok(3)"},
		{Skipped(Offline), "skipped(offline)"},
		{Skipped(NoPendingRecords), "skipped(no_pending_records)"},
		{Outcome{Kind: OutcomeRemoteRejected, Err: errors.New("x")}, "remote_rejected(x)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.out.String())
	}
}
