package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"pv_optimizer/internal/model"
)

// WeatherHeader is the column layout read and written by this package.
var WeatherHeader = []string{"timestamp", "temperature", "dhi", "dni", "ghi"}

// WeatherCSVParser parses hourly weather CSV files.
//
// Expected format:
//
//	timestamp,temperature,dhi,dni,ghi
//	1686787200,18.5,0,0,0
//	2023-06-15T10:00:00Z,30.1,110,820,760
//
// Timestamps are unix seconds or RFC 3339. Rows with NaN values or negative
// irradiance are rejected with the offending line number.
type WeatherCSVParser struct{}

func (p *WeatherCSVParser) Parse(r io.Reader) ([]model.WeatherSample, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if err := validateWeatherHeader(header); err != nil {
		return nil, err
	}

	var samples []model.WeatherSample
	lineNum := 1 // header was line 1

	for {
		lineNum++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", lineNum, err)
		}

		sample, err := parseWeatherRecord(record, lineNum)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}

	return samples, nil
}

func validateWeatherHeader(header []string) error {
	if len(header) < len(WeatherHeader) {
		return fmt.Errorf("expected at least %d columns, got %d", len(WeatherHeader), len(header))
	}

	for i, col := range WeatherHeader {
		if strings.TrimSpace(header[i]) != col {
			return fmt.Errorf("expected column %d to be %q, got %q", i, col, header[i])
		}
	}

	return nil
}

func parseWeatherRecord(record []string, lineNum int) (model.WeatherSample, error) {
	if len(record) < len(WeatherHeader) {
		return model.WeatherSample{}, fmt.Errorf("line %d: expected %d fields, got %d", lineNum, len(WeatherHeader), len(record))
	}

	ts, err := parseTimestamp(strings.TrimSpace(record[0]))
	if err != nil {
		return model.WeatherSample{}, fmt.Errorf("line %d: parsing timestamp %q: %w", lineNum, record[0], err)
	}

	s := model.WeatherSample{Timestamp: ts}
	for i, f := range model.WeatherFields {
		raw := strings.TrimSpace(record[i+1])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.WeatherSample{}, fmt.Errorf("line %d: parsing %s %q: %w", lineNum, f, raw, err)
		}
		s.Set(f, v)
	}

	if err := s.Validate(); err != nil {
		return model.WeatherSample{}, fmt.Errorf("line %d: %w", lineNum, err)
	}
	return s, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return parseUnixTimestamp(s)
}

func parseUnixTimestamp(s string) (time.Time, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, fmt.Errorf("timestamp is not finite")
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
}

// WriteWeatherCSV writes samples in the format WeatherCSVParser reads.
func WriteWeatherCSV(w io.Writer, samples []model.WeatherSample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(WeatherHeader); err != nil {
		return err
	}

	for _, s := range samples {
		row := []string{strconv.FormatInt(s.Timestamp.Unix(), 10)}
		for _, f := range model.WeatherFields {
			row = append(row, strconv.FormatFloat(s.Value(f), 'f', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
