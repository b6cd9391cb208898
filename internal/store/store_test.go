package store

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tundeakins/ellc"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_AppliesMigrations(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.GreaterOrEqual(t, version, uint(1))
}

func TestRunStore_RoundTrip(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	rs := NewRunStore(db)

	id, err := rs.InsertRun(`{"period": 1}`)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err, "run ids are uuids")

	times := []float64{0, 0.25, 0.5}
	results := []ellc.Result{
		{Flux: 0.8, Flux1: 0.5, Flux2: 0.3, Flags: ellc.FlagEclipse | ellc.FlagStar2Eclipsed},
		{Flux: 1.0, Flux1: 0.6, Flux2: 0.4},
		{Flux: 0.7, Flux1: 0.3, Flux2: 0.4, RV1: 12.5, RV2: -12.5},
	}
	require.NoError(t, rs.InsertObservations(id, times, results))

	run, err := rs.GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, `{"period": 1}`, run.Scenario)
	assert.False(t, run.CreatedAt.IsZero())

	obs, err := rs.Observations(id)
	require.NoError(t, err)
	require.Len(t, obs, 3)
	assert.Equal(t, 0.0, obs[0].Time)
	assert.Equal(t, 0.8, obs[0].Flux)
	assert.Equal(t, int64(ellc.FlagEclipse|ellc.FlagStar2Eclipsed), obs[0].Flags)
	assert.Equal(t, -12.5, obs[2].RV2)
}

func TestRunStore_ListReturnsAllRuns(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	rs := NewRunStore(db)

	id1, err := rs.InsertRun(`{}`)
	require.NoError(t, err)
	id2, err := rs.InsertRun(`{}`)
	require.NoError(t, err)

	runs, err := rs.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	ids := []string{runs[0].ID, runs[1].ID}
	assert.Contains(t, ids, id1)
	assert.Contains(t, ids, id2)
}

func TestInsertObservations_LengthMismatch(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	rs := NewRunStore(db)
	id, err := rs.InsertRun(`{}`)
	require.NoError(t, err)

	err = rs.InsertObservations(id, []float64{0, 1}, []ellc.Result{{}})
	assert.ErrorContains(t, err, "mismatch")
}
