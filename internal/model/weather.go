package model

import (
	"math"
	"time"
)

// WeatherSample is one hourly observation. Irradiance values are W/m².
type WeatherSample struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	DHI         float64   `json:"dhi"`
	DNI         float64   `json:"dni"`
	GHI         float64   `json:"ghi"`
}

// PowerSample is the AC output computed for one WeatherSample.
type PowerSample struct {
	Timestamp time.Time `json:"timestamp"`
	PowerW    float64   `json:"power_w"`
}

// WeatherField identifies one column of a WeatherSample.
type WeatherField string

const (
	FieldTemperature WeatherField = "temperature"
	FieldDHI         WeatherField = "dhi"
	FieldDNI         WeatherField = "dni"
	FieldGHI         WeatherField = "ghi"
)

// WeatherFields lists the fields in CSV column order.
var WeatherFields = []WeatherField{FieldTemperature, FieldDHI, FieldDNI, FieldGHI}

// FieldInfo holds the display name, unit and provider variable for a field.
type FieldInfo struct {
	Name     string
	Unit     string
	Variable string
	// Default replaces a null provider value.
	Default float64
}

// FieldCatalog maps every WeatherField to its metadata.
var FieldCatalog = map[WeatherField]FieldInfo{
	FieldTemperature: {Name: "Ambient Temperature", Unit: "°C", Variable: "temperature_2m", Default: 20},
	FieldDHI:         {Name: "Diffuse Horizontal Irradiance", Unit: "W/m²", Variable: "diffuse_radiation"},
	FieldDNI:         {Name: "Direct Normal Irradiance", Unit: "W/m²", Variable: "direct_normal_irradiance"},
	FieldGHI:         {Name: "Global Horizontal Irradiance", Unit: "W/m²", Variable: "shortwave_radiation"},
}

// Value returns the sample's value for a field.
func (s WeatherSample) Value(f WeatherField) float64 {
	switch f {
	case FieldTemperature:
		return s.Temperature
	case FieldDHI:
		return s.DHI
	case FieldDNI:
		return s.DNI
	case FieldGHI:
		return s.GHI
	}
	return 0
}

// Set assigns a field value.
func (s *WeatherSample) Set(f WeatherField, v float64) {
	switch f {
	case FieldTemperature:
		s.Temperature = v
	case FieldDHI:
		s.DHI = v
	case FieldDNI:
		s.DNI = v
	case FieldGHI:
		s.GHI = v
	}
}

type TimeRange struct {
	Start time.Time
	End   time.Time
}

// YearRange returns [Jan 1 year, Jan 1 year+1) in UTC.
func YearRange(year int) TimeRange {
	return TimeRange{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Validate rejects NaN values and negative irradiance. It runs where samples
// enter the system, never inside the power model.
func (s WeatherSample) Validate() error {
	if math.IsNaN(s.Temperature) || math.IsInf(s.Temperature, 0) {
		return &ValidationError{Field: string(FieldTemperature), Value: s.Temperature, Reason: "must be finite"}
	}
	for _, f := range []WeatherField{FieldDHI, FieldDNI, FieldGHI} {
		v := s.Value(f)
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return &ValidationError{Field: string(f), Value: v, Reason: "must be a finite non-negative irradiance"}
		}
	}
	return nil
}
