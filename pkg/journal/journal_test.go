package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cuemby/cutover/pkg/types"
)

func sampleResult(runID string, startedAt time.Time) types.Result {
	return types.Result{
		RunID:      runID,
		Kind:       types.EndpointKindLoadBalancer,
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(2 * time.Minute),
		NewFleet: types.FleetReport{
			Name:      "web-green",
			Endpoints: []string{"lb-blue"},
			MemberIDs: []string{"i-green1"},
			Baseline: map[string]types.MemberStatus{
				"i-green1": {Lifecycle: types.LifecycleInService, Health: types.HealthHealthy},
			},
		},
		OldFleet: types.FleetReport{
			Name:      "web-blue",
			Endpoints: []string{"lb-green"},
			MemberIDs: []string{"i-blue1"},
			Baseline: map[string]types.MemberStatus{
				"i-blue1": {Lifecycle: types.LifecycleInService, Health: types.HealthHealthy},
			},
		},
	}
}

func TestJournalRoundTrip(t *testing.T) {
	j, err := Open(t.TempDir())
	assert.NoError(t, err)
	defer j.Close()

	want := sampleResult("run-1", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	assert.NoError(t, j.Record(want))

	runs, err := j.List()
	assert.NoError(t, err)
	if assert.Len(t, runs, 1) {
		got := runs[0]
		assert.Equal(t, want.RunID, got.RunID)
		assert.Equal(t, want.NewFleet, got.NewFleet)
		assert.Equal(t, want.OldFleet, got.OldFleet)
		assert.True(t, want.StartedAt.Equal(got.StartedAt))
	}
}

func TestJournalListsRunsChronologically(t *testing.T) {
	j, err := Open(t.TempDir())
	assert.NoError(t, err)
	defer j.Close()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	// Recorded out of order on purpose
	assert.NoError(t, j.Record(sampleResult("run-2", base.Add(time.Hour))))
	assert.NoError(t, j.Record(sampleResult("run-1", base)))

	runs, err := j.List()
	assert.NoError(t, err)
	if assert.Len(t, runs, 2) {
		assert.Equal(t, "run-1", runs[0].RunID)
		assert.Equal(t, "run-2", runs[1].RunID)
	}
}

func TestJournalEmpty(t *testing.T) {
	j, err := Open(t.TempDir())
	assert.NoError(t, err)
	defer j.Close()

	runs, err := j.List()
	assert.NoError(t, err)
	assert.Empty(t, runs)
}
