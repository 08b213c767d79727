package optimizer

import (
	"fmt"
	"math"

	"pv_optimizer/internal/model"
)

// Strategy selects how a candidate orientation's annual energy is estimated.
type Strategy string

const (
	// StrategyClearSky evaluates one representative clear-sky day per month.
	StrategyClearSky Strategy = "clear-sky"
	// StrategyHistorical replays a full hourly weather series.
	StrategyHistorical Strategy = "historical"
)

// SearchSpec describes the orientation grid. Azimuths cover
// [AzimuthMin, AzimuthMax), tilts cover [TiltMin, TiltMax] inclusive.
type SearchSpec struct {
	AzimuthStep   float64  `json:"azimuth_step" yaml:"azimuth_step"`
	TiltStep      float64  `json:"tilt_step" yaml:"tilt_step"`
	AzimuthMin    float64  `json:"azimuth_min" yaml:"azimuth_min"`
	AzimuthMax    float64  `json:"azimuth_max" yaml:"azimuth_max"`
	TiltMin       float64  `json:"tilt_min" yaml:"tilt_min"`
	TiltMax       float64  `json:"tilt_max" yaml:"tilt_max"`
	Strategy      Strategy `json:"strategy" yaml:"strategy"`
	Workers       int      `json:"workers" yaml:"workers"`
	ProgressEvery int      `json:"progress_every" yaml:"progress_every"`
}

func DefaultSearchSpec() SearchSpec {
	return SearchSpec{
		AzimuthStep:   10,
		TiltStep:      5,
		AzimuthMin:    0,
		AzimuthMax:    360,
		TiltMin:       0,
		TiltMax:       90,
		Strategy:      StrategyClearSky,
		Workers:       1,
		ProgressEvery: 10,
	}
}

func (s SearchSpec) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"azimuth_step", s.AzimuthStep},
		{"tilt_step", s.TiltStep},
		{"azimuth_min", s.AzimuthMin},
		{"azimuth_max", s.AzimuthMax},
		{"tilt_min", s.TiltMin},
		{"tilt_max", s.TiltMax},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return &model.ValidationError{Field: f.name, Value: f.v, Reason: "must be finite"}
		}
	}
	if !(s.AzimuthStep > 0) {
		return &model.ValidationError{Field: "azimuth_step", Value: s.AzimuthStep, Reason: "must be positive"}
	}
	if !(s.TiltStep > 0) {
		return &model.ValidationError{Field: "tilt_step", Value: s.TiltStep, Reason: "must be positive"}
	}
	if s.AzimuthMin < 0 || s.AzimuthMax > 360 || !(s.AzimuthMin < s.AzimuthMax) {
		return &model.ValidationError{Field: "azimuth_min", Value: s.AzimuthMin, Reason: "azimuth range must satisfy 0 <= min < max <= 360"}
	}
	if s.TiltMin < 0 || s.TiltMax > 90 || s.TiltMin > s.TiltMax {
		return &model.ValidationError{Field: "tilt_min", Value: s.TiltMin, Reason: "tilt range must satisfy 0 <= min <= max <= 90"}
	}
	if s.Workers < 0 {
		return &model.ValidationError{Field: "workers", Value: float64(s.Workers), Reason: "must not be negative"}
	}
	switch s.Strategy {
	case StrategyClearSky, StrategyHistorical:
	default:
		return fmt.Errorf("%w: unknown strategy %q", model.ErrInvalidInput, s.Strategy)
	}
	return nil
}

// Candidates returns the grid in evaluation order: azimuth ascending in the
// outer loop, tilt ascending in the inner loop.
func (s SearchSpec) Candidates() []model.PanelOrientation {
	azimuths := steps(s.AzimuthMin, s.AzimuthMax, s.AzimuthStep, false)
	tilts := steps(s.TiltMin, s.TiltMax, s.TiltStep, true)

	out := make([]model.PanelOrientation, 0, len(azimuths)*len(tilts))
	for _, az := range azimuths {
		for _, tilt := range tilts {
			out = append(out, model.PanelOrientation{Azimuth: az, Tilt: tilt})
		}
	}
	return out
}

// steps walks from lo toward hi by step. Values are computed by
// multiplication so large grids do not accumulate rounding drift.
// Non-finite or non-positive input yields no values.
func steps(lo, hi, step float64, inclusive bool) []float64 {
	const eps = 1e-9
	if !(step > 0) || math.IsInf(step, 0) || math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil
	}
	var out []float64
	for i := 0; ; i++ {
		v := lo + float64(i)*step
		if inclusive && v > hi+eps {
			break
		}
		if !inclusive && v >= hi-eps {
			break
		}
		out = append(out, math.Min(v, hi))
	}
	return out
}
