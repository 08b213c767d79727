// Package openmeteo fetches hourly irradiance and temperature from the
// Open-Meteo historical weather archive.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"pv_optimizer/internal/log"
	"pv_optimizer/internal/model"
)

const (
	DefaultBaseURL = "https://archive-api.open-meteo.com"
	archivePath    = "/v1/archive"
	dateLayout     = "2006-01-02"
)

// Options configures the HTTP client.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	Retries      int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
}

func DefaultOptions() Options {
	return Options{
		BaseURL:      DefaultBaseURL,
		Timeout:      30 * time.Second,
		Retries:      4,
		RetryWait:    1 * time.Second,
		RetryMaxWait: 16 * time.Second,
	}
}

// Client implements weather.Provider.
type Client struct {
	http *resty.Client
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(opts.RetryMaxWait).
		SetHeader("Accept", "application/json").
		AddRetryCondition(isRetryable).
		AddRetryHook(func(r *resty.Response, err error) {
			if r == nil {
				log.Warnw("retrying open-meteo request", "error", err)
				return
			}
			log.Warnw("retrying open-meteo request", "attempt", r.Request.Attempt, "status", r.StatusCode(), "error", err)
		})
	return &Client{http: c}
}

// APIError is a non-2xx response from the archive.
type APIError struct {
	StatusCode int
	Reason     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("open-meteo HTTP %d: %s", e.StatusCode, e.Reason)
}

// network errors, rate limiting and server errors are retried
func isRetryable(r *resty.Response, err error) bool {
	if err != nil || r == nil {
		return true
	}
	return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
}

type archiveResponse struct {
	Latitude  float64                    `json:"latitude"`
	Longitude float64                    `json:"longitude"`
	Hourly    map[string]json.RawMessage `json:"hourly"`
	Units     map[string]string          `json:"hourly_units"`
}

type errorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// Fetch returns hourly samples in [r.Start, r.End). Null values become the
// field defaults from model.FieldCatalog.
func (c *Client) Fetch(ctx context.Context, loc model.Location, r model.TimeRange) ([]model.WeatherSample, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if !r.Start.Before(r.End) {
		return nil, &model.MissingDataError{}
	}

	variables := make([]string, len(model.WeatherFields))
	for i, f := range model.WeatherFields {
		variables[i] = model.FieldCatalog[f].Variable
	}

	start := r.Start.UTC()
	lastDay := r.End.UTC().Add(-time.Nanosecond)
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":   fmt.Sprintf("%.6f", loc.Latitude),
			"longitude":  fmt.Sprintf("%.6f", loc.Longitude),
			"start_date": start.Format(dateLayout),
			"end_date":   lastDay.Format(dateLayout),
			"hourly":     strings.Join(variables, ","),
			"timeformat": "unixtime",
			"timezone":   "GMT",
		}).
		Get(archivePath)
	if err != nil {
		return nil, fmt.Errorf("requesting archive: %w", err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp)
	}

	log.Debugw("open-meteo archive fetched", "start", start.Format(dateLayout), "end", lastDay.Format(dateLayout), "bytes", len(resp.Body()))
	return parseArchive(resp.Body(), r)
}

func newAPIError(resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode(), Reason: strings.TrimSpace(string(resp.Body()))}
	var body errorResponse
	if json.Unmarshal(resp.Body(), &body) == nil && body.Reason != "" {
		apiErr.Reason = body.Reason
	}
	return apiErr
}

func parseArchive(data []byte, r model.TimeRange) ([]model.WeatherSample, error) {
	var body archiveResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	var times []int64
	if err := json.Unmarshal(body.Hourly["time"], &times); err != nil {
		return nil, fmt.Errorf("parsing hourly.time: %w", err)
	}

	columns := make(map[model.WeatherField][]*float64, len(model.WeatherFields))
	for _, f := range model.WeatherFields {
		variable := model.FieldCatalog[f].Variable
		raw, ok := body.Hourly[variable]
		if !ok {
			return nil, fmt.Errorf("response missing hourly.%s", variable)
		}
		var values []*float64
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, fmt.Errorf("parsing hourly.%s: %w", variable, err)
		}
		if len(values) != len(times) {
			return nil, fmt.Errorf("hourly.%s has %d values for %d timestamps", variable, len(values), len(times))
		}
		columns[f] = values
	}

	samples := make([]model.WeatherSample, 0, len(times))
	for i, ts := range times {
		t := time.Unix(ts, 0).UTC()
		if t.Before(r.Start) || !t.Before(r.End) {
			continue
		}
		s := model.WeatherSample{Timestamp: t}
		for _, f := range model.WeatherFields {
			v := model.FieldCatalog[f].Default
			if p := columns[f][i]; p != nil {
				v = *p
			}
			s.Set(f, v)
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("sample %s: %w", t.Format(time.RFC3339), err)
		}
		samples = append(samples, s)
	}
	if len(samples) == 0 {
		return nil, &model.MissingDataError{Year: r.Start.UTC().Year()}
	}
	return samples, nil
}
