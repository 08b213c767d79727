package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pv_optimizer/internal/model"
	"pv_optimizer/internal/weather"
)

var testLoc = model.Location{Latitude: 52.23, Longitude: 21.01}

func sampleAt(hour int, ghi float64) model.WeatherSample {
	return model.WeatherSample{
		Timestamp:   time.Date(2023, 6, 1, hour, 0, 0, 0, time.UTC),
		Temperature: 18,
		DNI:         ghi * 0.8,
		DHI:         ghi * 0.2,
		GHI:         ghi,
	}
}

func TestYearsFromFlags(t *testing.T) {
	configured := []int{2021, 2022, 2023}

	assert.Equal(t, configured, yearsFromFlags(configured, 0, 0))
	assert.Equal(t, []int{2019, 2020}, yearsFromFlags(configured, 2019, 2020))
	assert.Equal(t, []int{2018}, yearsFromFlags(configured, 2018, 0))
	assert.Equal(t, []int{2017}, yearsFromFlags(configured, 0, 2017))
	assert.Empty(t, yearsFromFlags(configured, 2020, 2019))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")

	content := "# comment\nTEST_PV_FOO=bar\nTEST_PV_QUOTED=\"52.1\"\n\n# another comment\nTEST_PV_EMPTY=\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o644))

	os.Unsetenv("TEST_PV_FOO")
	os.Unsetenv("TEST_PV_QUOTED")
	os.Unsetenv("TEST_PV_EMPTY")

	loadDotEnv(envPath)

	assert.Equal(t, "bar", os.Getenv("TEST_PV_FOO"))
	assert.Equal(t, "52.1", os.Getenv("TEST_PV_QUOTED"))
	assert.Equal(t, "", os.Getenv("TEST_PV_EMPTY"))

	// Existing env vars are not overwritten
	os.Setenv("TEST_PV_FOO", "original")
	loadDotEnv(envPath)
	assert.Equal(t, "original", os.Getenv("TEST_PV_FOO"))

	os.Unsetenv("TEST_PV_FOO")
	os.Unsetenv("TEST_PV_QUOTED")
	os.Unsetenv("TEST_PV_EMPTY")
}

func TestMergeSamples(t *testing.T) {
	existing := []model.WeatherSample{sampleAt(10, 500), sampleAt(12, 700)}
	fetched := []model.WeatherSample{sampleAt(12, 750), sampleAt(11, 600), sampleAt(13, 650)}

	merged := mergeSamples(testLoc, existing, fetched)
	require.Len(t, merged, 4)
	for i, hour := range []int{10, 11, 12, 13} {
		assert.Equal(t, hour, merged[i].Timestamp.Hour())
	}
	assert.Equal(t, 750.0, merged[2].GHI)
}

func TestMergeSamples_Empty(t *testing.T) {
	assert.Nil(t, mergeSamples(testLoc, nil, nil))
}

func TestWriteAndLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather.csv")
	samples := []model.WeatherSample{sampleAt(10, 500), sampleAt(11, 600)}

	require.NoError(t, writeCSV(path, samples))

	loaded := loadExistingSamples(path)
	require.Len(t, loaded, 2)
	assert.True(t, loaded[0].Timestamp.Equal(samples[0].Timestamp))
	assert.InDelta(t, 600.0, loaded[1].GHI, 1e-6)
}

func TestLoadExistingSamplesMissing(t *testing.T) {
	assert.Nil(t, loadExistingSamples(filepath.Join(t.TempDir(), "missing.csv")))
}

func TestFetchYears(t *testing.T) {
	src := &weather.ClearSkySource{Location: testLoc}

	samples, err := fetchYears(context.Background(), src, []int{2022, 2023})
	require.NoError(t, err)
	assert.Len(t, samples, 2*8760)
}

func TestFetchYearsMissing(t *testing.T) {
	_, err := fetchYears(context.Background(), weather.FromSamples(nil), []int{2020})
	assert.ErrorIs(t, err, model.ErrMissingData)
}
