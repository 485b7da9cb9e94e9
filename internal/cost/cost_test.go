package cost

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// recordingStore captures API call records and serves a canned summary.
type recordingStore struct {
	store.Store

	calls   []model.APICall
	logErr  error
	summary []store.ProviderCost
}

func (r *recordingStore) LogAPICall(_ context.Context, call model.APICall) error {
	if r.logErr != nil {
		return r.logErr
	}
	r.calls = append(r.calls, call)
	return nil
}

func (r *recordingStore) CostSummary(_ context.Context, _ time.Time) ([]store.ProviderCost, error) {
	return r.summary, nil
}

func TestTracker_Log(t *testing.T) {
	t.Parallel()

	rs := &recordingStore{}
	tracker := NewTracker(rs, DefaultRates())

	tracker.Log(context.Background(), "hunter", "domain-search", 0.098, true, "")

	require.Len(t, rs.calls, 1)
	call := rs.calls[0]
	assert.Equal(t, "hunter", call.Provider)
	assert.Equal(t, "domain-search", call.Endpoint)
	assert.InDelta(t, 0.098, call.Cost, 1e-9)
	assert.True(t, call.Success)
	assert.False(t, call.Timestamp.IsZero())
}

func TestTracker_LogSwallowsStoreErrors(t *testing.T) {
	t.Parallel()

	rs := &recordingStore{logErr: eris.New("disk full")}
	tracker := NewTracker(rs, DefaultRates())

	// Must not panic or propagate; enrichment never fails on accounting.
	tracker.Log(context.Background(), "mapsearch", "search", 0.00165, false, "timeout")
	assert.Empty(t, rs.calls)
}

func TestTracker_Summary(t *testing.T) {
	t.Parallel()

	rs := &recordingStore{summary: []store.ProviderCost{
		{Provider: "hunter", Calls: 2, TotalCost: 0.098},
		{Provider: "mapsearch", Calls: 10, Failures: 1, TotalCost: 0.0165},
	}}
	tracker := NewTracker(rs, DefaultRates())

	summary, err := tracker.Summary(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, summary, 2)
	assert.InDelta(t, 0.1145, Total(summary), 1e-9)
}

func TestDefaultRates(t *testing.T) {
	t.Parallel()

	rates := DefaultRates()
	assert.InDelta(t, 0.049, rates.HunterEmail, 1e-9)
	assert.InDelta(t, 0.00165, rates.MapSearchRequest, 1e-9)
}

func TestTotal_Empty(t *testing.T) {
	t.Parallel()

	assert.Zero(t, Total(nil))
}
