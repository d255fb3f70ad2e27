package sync

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurgeSynchronized(t *testing.T) {
	store := &memStore{}
	store.add(3)
	_, err := store.MarkSynchronized(context.Background(), []int64{1, 2})
	require.NoError(t, err)

	rec := &fakeRecorder{}
	r := NewRetention(store)
	r.Recorder = rec

	out, err := r.PurgeSynchronized(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PurgeOutcome{Kind: Purged, Count: 2}, out)

	out, err = r.PurgeSynchronized(context.Background())
	require.NoError(t, err)
	assert.Equal(t, NothingToPurge, out.Kind)

	pending, _ := store.CountPending(context.Background())
	assert.EqualValues(t, 1, pending, "pending records survive purge")
	assert.Len(t, rec.purges, 2)
}

func TestReporterSnapshot(t *testing.T) {
	store := &memStore{}
	store.add(5)
	_, _ = store.MarkSynchronized(context.Background(), []int64{1, 3})

	snap, err := NewReporter(store).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Snapshot{Pending: 3, Synchronized: 2}, snap)

	store.add(1)
	snap, err = NewReporter(store).Snapshot(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 4, snap.Pending)
}

func TestGateOrder(t *testing.T) {
	store := &memStore{}
	net := &fakeNet{up: false}
	g := NewGate(store, net)

	res, err := g.CanSync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, NoPendingRecords, res)

	store.add(1)
	res, err = g.CanSync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Offline, res)

	net.up = true
	res, err = g.CanSync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Allowed, res)
}

func TestOutcomeJSON(t *testing.T) {
	data, err := json.Marshal(Skipped(Offline))
	require.NoError(t, err)
	assert.JSONEq(t, `{"outcome":"skipped","count":0,"reason":"offline"}`, string(data))

	data, err = json.Marshal(Outcome{Kind: OutcomeRemoteRejected, Err: errors.New("HTTP 500")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"outcome":"remote_rejected","count":0,"error":"HTTP 500"}`, string(data))

	data, err = json.Marshal(PurgeOutcome{Kind: Purged, Count: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":"purged","count":2}`, string(data))
}
