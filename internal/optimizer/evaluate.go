package optimizer

import (
	"time"

	"pv_optimizer/internal/model"
	"pv_optimizer/internal/solar"
)

// ReferenceYear supplies the representative days of the clear-sky strategy.
const ReferenceYear = 2023

const hoursPerYear = 8760

// Evaluator estimates annual energy in Wh for one orientation.
// Implementations must be safe for concurrent use.
type Evaluator interface {
	AnnualEnergy(o model.PanelOrientation) float64
}

type weightedSample struct {
	sun    solar.Position
	sample model.WeatherSample
	weight float64
}

// replay sums weighted AC power over precomputed samples.
type replay struct {
	model   *solar.Model
	samples []weightedSample
	scale   float64
}

func (r *replay) AnnualEnergy(o model.PanelOrientation) float64 {
	var total float64
	for i := range r.samples {
		ws := &r.samples[i]
		if !ws.sun.Up() {
			continue
		}
		total += r.model.PowerAt(ws.sun, o, ws.sample) * ws.weight
	}
	return total * r.scale
}

// NewClearSkyEvaluator samples the 15th of every month of ReferenceYear
// hourly under clear-sky irradiance and scales each day by the days in
// its month. Search treats diffuse light as fully usable.
func NewClearSkyEvaluator(m *solar.Model) (Evaluator, error) {
	sys := m.System()
	sys.DiffuseEfficiency = 1.0
	searchModel, err := m.WithSystem(sys)
	if err != nil {
		return nil, err
	}

	loc := searchModel.Location()
	calc := searchModel.Calculator()
	samples := make([]weightedSample, 0, 12*24)
	for month := time.January; month <= time.December; month++ {
		day := time.Date(ReferenceYear, month, 15, 0, 0, 0, 0, time.UTC)
		weight := float64(daysIn(ReferenceYear, month))
		for _, s := range solar.ClearSkyDay(calc, loc, day) {
			samples = append(samples, weightedSample{
				sun:    calc.Position(loc, s.Timestamp),
				sample: s,
				weight: weight,
			})
		}
	}
	return &replay{model: searchModel, samples: samples, scale: 1}, nil
}

// NewHistoricalEvaluator replays hourly samples. The estimate is the mean
// hourly power times the hours in a year, so multi-year series are
// normalized to one year.
func NewHistoricalEvaluator(m *solar.Model, series []model.WeatherSample) (Evaluator, error) {
	if len(series) == 0 {
		return nil, &model.MissingDataError{}
	}
	samples := make([]weightedSample, len(series))
	for i, s := range series {
		samples[i] = weightedSample{sun: m.SunAt(s.Timestamp), sample: s, weight: 1}
	}
	return &replay{model: m, samples: samples, scale: hoursPerYear / float64(len(series))}, nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
