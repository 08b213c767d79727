package openmeteo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pv_optimizer/internal/model"
)

var madrid = model.Location{Latitude: 40.4168, Longitude: -3.7038}

const archiveBody = `{
  "latitude": 40.4,
  "longitude": -3.7,
  "hourly_units": {"time": "unixtime"},
  "hourly": {
    "time": [1686787200, 1686790800, 1686794400, 1686823200],
    "temperature_2m": [18.5, null, 17.9, 30.1],
    "diffuse_radiation": [0, 0, 12.0, 110.0],
    "direct_normal_irradiance": [0, null, 5.5, 820.0],
    "shortwave_radiation": [0, 0, 14.0, 760.0]
  }
}`

func testOptions(url string) Options {
	return Options{
		BaseURL:      url,
		Timeout:      5 * time.Second,
		Retries:      3,
		RetryWait:    10 * time.Millisecond,
		RetryMaxWait: 20 * time.Millisecond,
	}
}

func juneRange() model.TimeRange {
	return model.TimeRange{
		Start: time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, 6, 16, 0, 0, 0, 0, time.UTC),
	}
}

func TestFetchParsesArchive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/archive", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "40.416800", q.Get("latitude"))
		assert.Equal(t, "-3.703800", q.Get("longitude"))
		assert.Equal(t, "2023-06-15", q.Get("start_date"))
		assert.Equal(t, "2023-06-15", q.Get("end_date"))
		assert.Equal(t, "temperature_2m,diffuse_radiation,direct_normal_irradiance,shortwave_radiation", q.Get("hourly"))
		assert.Equal(t, "unixtime", q.Get("timeformat"))
		assert.Equal(t, "GMT", q.Get("timezone"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(archiveBody))
	}))
	defer srv.Close()

	samples, err := New(testOptions(srv.URL)).Fetch(context.Background(), madrid, juneRange())
	require.NoError(t, err)
	require.Len(t, samples, 4)

	assert.Equal(t, time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), samples[0].Timestamp)
	assert.InDelta(t, 18.5, samples[0].Temperature, 1e-9)

	// Nulls fall back to 20 °C and zero irradiance.
	assert.InDelta(t, 20.0, samples[1].Temperature, 1e-9)
	assert.Equal(t, 0.0, samples[1].DNI)

	last := samples[3]
	assert.Equal(t, time.Date(2023, 6, 15, 10, 0, 0, 0, time.UTC), last.Timestamp)
	assert.InDelta(t, 110.0, last.DHI, 1e-9)
	assert.InDelta(t, 820.0, last.DNI, 1e-9)
	assert.InDelta(t, 760.0, last.GHI, 1e-9)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(archiveBody))
	}))
	defer srv.Close()

	samples, err := New(testOptions(srv.URL)).Fetch(context.Background(), madrid, juneRange())
	require.NoError(t, err)
	assert.Len(t, samples, 4)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": true, "reason": "Parameter 'start_date' is out of allowed range"}`))
	}))
	defer srv.Close()

	_, err := New(testOptions(srv.URL)).Fetch(context.Background(), madrid, juneRange())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Reason, "out of allowed range")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(testOptions(srv.URL)).Fetch(context.Background(), madrid, juneRange())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, int32(4), calls.Load())
}

func TestFetchRejectsNegativeIrradiance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly": {
			"time": [1686787200],
			"temperature_2m": [18.5],
			"diffuse_radiation": [-3],
			"direct_normal_irradiance": [0],
			"shortwave_radiation": [0]}}`))
	}))
	defer srv.Close()

	_, err := New(testOptions(srv.URL)).Fetch(context.Background(), madrid, juneRange())
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestFetchEmptyIsMissingData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly": {"time": [], "temperature_2m": [], "diffuse_radiation": [],
			"direct_normal_irradiance": [], "shortwave_radiation": []}}`))
	}))
	defer srv.Close()

	_, err := New(testOptions(srv.URL)).Fetch(context.Background(), madrid, juneRange())
	assert.ErrorIs(t, err, model.ErrMissingData)
}

func TestFetchMismatchedColumns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly": {"time": [1686787200, 1686790800], "temperature_2m": [1],
			"diffuse_radiation": [0, 0], "direct_normal_irradiance": [0, 0], "shortwave_radiation": [0, 0]}}`))
	}))
	defer srv.Close()

	_, err := New(testOptions(srv.URL)).Fetch(context.Background(), madrid, juneRange())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temperature_2m")
}

func TestFetchInvalidLocation(t *testing.T) {
	_, err := New(testOptions("http://127.0.0.1:1")).Fetch(context.Background(), model.Location{Latitude: 95}, juneRange())
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
