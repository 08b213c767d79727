// Package history reduces multi-year hourly power series into monthly,
// yearly, peak-day and typical-day summaries.
package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"pv_optimizer/internal/model"
	"pv_optimizer/internal/solar"
	"pv_optimizer/internal/weather"
)

// HoursPerMonth rescales a month's mean hourly power to a monthly energy.
const HoursPerMonth = 730

type yearMonth struct {
	year  int
	month time.Month
}

// Aggregator accumulates hourly AC power. Accumulators persist across
// years so data can be fed one year at a time. Each sample is assumed to
// represent one hour, so W and Wh are interchangeable per sample.
// Not safe for concurrent use.
type Aggregator struct {
	model       *solar.Model
	orientation model.PanelOrientation

	daily      map[time.Time]float64
	monthSum   [13]float64
	monthCount [13]int
	hourSum    [24]float64
	hourCount  [24]int
	yearly     map[int]float64
	yearMonth  map[yearMonth]float64
	samples    int
}

func New(m *solar.Model, o model.PanelOrientation) (*Aggregator, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil power model", model.ErrInvalidInput)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &Aggregator{
		model:       m,
		orientation: o,
		daily:       make(map[time.Time]float64),
		yearly:      make(map[int]float64),
		yearMonth:   make(map[yearMonth]float64),
	}, nil
}

// Add computes the power for one weather sample and accumulates it.
func (a *Aggregator) Add(s model.WeatherSample) model.PowerSample {
	ps := model.PowerSample{Timestamp: s.Timestamp.UTC(), PowerW: a.model.Power(a.orientation, s)}
	a.AddPower(ps)
	return ps
}

// AddPower accumulates an already computed power sample.
func (a *Aggregator) AddPower(ps model.PowerSample) {
	ts := ps.Timestamp.UTC()
	w := ps.PowerW

	a.daily[startOfDay(ts)] += w
	a.monthSum[ts.Month()] += w
	a.monthCount[ts.Month()]++
	a.hourSum[ts.Hour()] += w
	a.hourCount[ts.Hour()]++
	a.yearly[ts.Year()] += w
	a.yearMonth[yearMonth{ts.Year(), ts.Month()}] += w
	a.samples++
}

// AddYear accumulates a batch of samples and returns their power values.
func (a *Aggregator) AddYear(samples []model.WeatherSample) []model.PowerSample {
	out := make([]model.PowerSample, len(samples))
	for i, s := range samples {
		out[i] = a.Add(s)
	}
	return out
}

func (a *Aggregator) Samples() int { return a.samples }

// YearTotalWh returns the raw energy accumulated for a year.
func (a *Aggregator) YearTotalWh(year int) float64 { return a.yearly[year] }

// MonthlyRaw returns the raw Wh accumulated per month of one year.
func (a *Aggregator) MonthlyRaw(year int) map[time.Month]float64 {
	out := make(map[time.Month]float64)
	for k, wh := range a.yearMonth {
		if k.year == year {
			out[k.month] = wh
		}
	}
	return out
}

// DailyTotals returns every day's energy, oldest first.
func (a *Aggregator) DailyTotals() []model.DayTotal {
	out := make([]model.DayTotal, 0, len(a.daily))
	for day, wh := range a.daily {
		out = append(out, model.DayTotal{Date: day, EnergyWh: wh})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Profile returns the mean power per UTC hour across all days.
func (a *Aggregator) Profile() solar.HourlyProfile {
	return solar.ProfileFromSums(a.hourSum, a.hourCount)
}

// Result freezes the accumulators into a summary. The earliest day wins
// a tie for peak production. PeakDay stays zero when no day produced energy.
func (a *Aggregator) Result() (model.HistoricalAnalysisResult, error) {
	if a.samples == 0 {
		return model.HistoricalAnalysisResult{}, &model.MissingDataError{}
	}

	res := model.HistoricalAnalysisResult{
		MonthlyAverageKWh: make(map[int]float64),
		YearlyTotalKWh:    make(map[int]float64, len(a.yearly)),
		Samples:           a.samples,
		Days:              len(a.daily),
	}

	for m := 1; m <= 12; m++ {
		if a.monthCount[m] == 0 {
			continue
		}
		res.MonthlyAverageKWh[m] = a.monthSum[m] / float64(a.monthCount[m]) * HoursPerMonth / 1000
	}

	years := make([]int, 0, len(a.yearly))
	for y := range a.yearly {
		years = append(years, y)
	}
	sort.Ints(years)
	totals := make([]float64, len(years))
	for i, y := range years {
		totals[i] = a.yearly[y] / 1000
		res.YearlyTotalKWh[y] = totals[i]
	}
	res.AverageAnnualKWh = stat.Mean(totals, nil)
	res.TotalKWh = floats.Sum(totals)

	for _, d := range a.DailyTotals() {
		if d.EnergyWh > res.PeakDay.EnergyWh {
			res.PeakDay = d
		}
	}

	res.TypicalDay = a.Profile().TypicalDay()
	return res, nil
}

// Progress phase messages.
const phaseAnalyzing = "Analyzing historical data..."

func fetchingPhase(year int) string { return fmt.Sprintf("Fetching data for year %d...", year) }

// Aggregate consumes a year sequence incrementally and returns the summary.
// The first unavailable year aborts the run. progress may be nil.
func Aggregate(ctx context.Context, seq *weather.Sequence, m *solar.Model, o model.PanelOrientation, progress func(string)) (model.HistoricalAnalysisResult, error) {
	agg, err := New(m, o)
	if err != nil {
		return model.HistoricalAnalysisResult{}, err
	}
	report := func(msg string) {
		if progress != nil {
			progress(msg)
		}
	}

	err = seq.Each(ctx, func(year int) { report(fetchingPhase(year)) }, func(_ int, samples []model.WeatherSample) error {
		agg.AddYear(samples)
		return nil
	})
	if err != nil {
		return model.HistoricalAnalysisResult{}, err
	}

	report(phaseAnalyzing)
	return agg.Result()
}

// AggregateSeries summarizes an in-memory series.
func AggregateSeries(samples []model.WeatherSample, m *solar.Model, o model.PanelOrientation) (model.HistoricalAnalysisResult, error) {
	agg, err := New(m, o)
	if err != nil {
		return model.HistoricalAnalysisResult{}, err
	}
	agg.AddYear(samples)
	return agg.Result()
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
