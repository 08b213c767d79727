package model

import "time"

// OptimizationResult is the outcome of one orientation search.
type OptimizationResult struct {
	Azimuth float64 `json:"azimuth"`
	Tilt    float64 `json:"tilt"`
	// AnnualEnergyWh is the estimated yearly yield at the best orientation.
	AnnualEnergyWh float64 `json:"annual_energy_wh"`
	// BaselineEnergyWh is the same estimate for the horizontal baseline.
	BaselineEnergyWh float64 `json:"baseline_energy_wh"`
	// ImprovementPct is (best - baseline) / baseline * 100, 0 when the baseline is 0.
	ImprovementPct float64 `json:"improvement_pct"`
	Evaluated      int     `json:"evaluated"`
	Strategy       string  `json:"strategy"`
}

// Orientation returns the best orientation as a value.
func (r OptimizationResult) Orientation() PanelOrientation {
	return PanelOrientation{Azimuth: r.Azimuth, Tilt: r.Tilt}
}

// AnnualEnergyKWh converts the best estimate to kWh.
func (r OptimizationResult) AnnualEnergyKWh() float64 { return r.AnnualEnergyWh / 1000 }

// DayTotal is the energy produced on one UTC calendar day.
type DayTotal struct {
	Date     time.Time `json:"date"`
	EnergyWh float64   `json:"energy_wh"`
}

// TypicalDay is the mean AC power per UTC hour across all analyzed days.
type TypicalDay struct {
	HourlyW [24]float64 `json:"hourly_w"`
	// Shape is HourlyW normalized so the peak hour is 1.0.
	Shape    [24]float64 `json:"shape"`
	PeakHour int         `json:"peak_hour"`
}

// HistoricalAnalysisResult summarizes a multi-year power series.
type HistoricalAnalysisResult struct {
	// MonthlyAverageKWh is keyed by month 1..12; months without samples are absent.
	MonthlyAverageKWh map[int]float64 `json:"monthly_average_kwh"`
	// YearlyTotalKWh is keyed by calendar year.
	YearlyTotalKWh   map[int]float64 `json:"yearly_total_kwh"`
	AverageAnnualKWh float64         `json:"average_annual_kwh"`
	// TotalKWh is the energy across every ingested sample.
	TotalKWh   float64    `json:"total_kwh"`
	PeakDay    DayTotal   `json:"peak_day"`
	TypicalDay TypicalDay `json:"typical_day"`
	Samples    int        `json:"samples"`
	Days       int        `json:"days"`
	// Savings is set by callers that know the plant economics.
	Savings *CostSavings `json:"savings,omitempty"`
}
