package metrics

import (
	"context"
	"errors"
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rostersync "github.com/marcus/roster/internal/sync"
)

type counts struct {
	pending, synced int64
	err             error
	calls           *int
}

func (c counts) Counts(context.Context) (int64, int64, error) {
	if c.calls != nil {
		*c.calls++
	}
	return c.pending, c.synced, c.err
}

func TestObserveSync(t *testing.T) {
	m := New()
	m.ObserveSync(rostersync.Outcome{Kind: rostersync.OutcomeOK, Count: 3}, 20*time.Millisecond)
	m.ObserveSync(rostersync.Skipped(rostersync.Offline), 0)
	m.ObserveSync(rostersync.Outcome{Kind: rostersync.OutcomeRemoteRejected, Err: errors.New("x")}, time.Millisecond)
	m.ObserveSyncError(errors.New("locked"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncAttempts.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncAttempts.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncAttempts.WithLabelValues("remote_rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncAttempts.WithLabelValues(OutcomeStoreError)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsPushed))
}

func TestObservePurge(t *testing.T) {
	m := New()
	m.ObservePurge(rostersync.PurgeOutcome{Kind: rostersync.Purged, Count: 4})
	m.ObservePurge(rostersync.PurgeOutcome{Kind: rostersync.NothingToPurge})
	assert.Equal(t, 4.0, testutil.ToFloat64(m.RecordsPurged))
}

func TestWatchStoreGauges(t *testing.T) {
	m := New()
	m.WatchStore(counts{pending: 2, synced: 5})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "roster_records_pending 2")
	assert.Contains(t, body, "roster_records_synchronized 5")
}

func TestWatchStoreErrorIsNaN(t *testing.T) {
	m := New()
	m.WatchStore(counts{err: errors.New("closed")})

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	found := false
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "roster_records_") {
			found = true
			assert.True(t, math.IsNaN(f.GetMetric()[0].GetGauge().GetValue()))
		}
	}
	assert.True(t, found)
}

func TestWatchStoreReadsCountsOncePerScrape(t *testing.T) {
	m := New()
	calls := 0
	m.WatchStore(counts{pending: 1, synced: 1, calls: &calls})

	_, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
