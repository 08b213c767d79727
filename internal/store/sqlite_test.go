package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pv_optimizer/internal/model"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "weather.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLite_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	samples := makeSamples([]float64{100, 200, 300}, startTime, hour)
	require.NoError(t, db.Save(ctx, site, samples))

	got, err := db.Load(ctx, site, 2024)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, samples[0].Timestamp, got[0].Timestamp)
	assert.InDelta(t, 300.0, got[2].DNI, 1e-9)
	assert.InDelta(t, 60.0, got[2].DHI, 1e-9)
	assert.InDelta(t, 240.0, got[2].GHI, 1e-9)
	assert.InDelta(t, 15.0, got[2].Temperature, 1e-9)

	other, err := db.Load(ctx, model.Location{Latitude: 1, Longitude: 1}, 2024)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSQLite_Upsert(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, db.Save(ctx, site, makeSamples([]float64{100, 200}, startTime, hour)))
	require.NoError(t, db.Save(ctx, site, makeSamples([]float64{999}, startTime, hour)))

	st, err := db.Stats(ctx, site)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Samples)
	assert.Equal(t, startTime, st.Range.Start)
	assert.Equal(t, startTime.Add(hour), st.Range.End)

	got, err := db.SamplesInRange(ctx, site, startTime, startTime.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 999.0, got[0].DNI, 1e-9)
}

func TestSQLite_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "weather.db")

	db, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, db.Save(ctx, site, makeSamples([]float64{1, 2, 3, 4}, startTime, hour)))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	st, err := db.Stats(ctx, site)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Samples)
}

func TestSQLite_EmptyStats(t *testing.T) {
	st, err := openTestDB(t).Stats(context.Background(), site)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Samples)
	assert.True(t, st.Range.Start.IsZero())
}
