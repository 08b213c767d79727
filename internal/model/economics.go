package model

import "math"

// Cost assumptions used when the plant does not override them.
const (
	DefaultElectricityRate = 0.12 // currency per kWh
	DefaultCostPerKW       = 1000 // currency per installed kWp
	LifetimeYears          = 25
	// CO2TonnesPerKWh is the grid emission factor used for avoided CO₂.
	CO2TonnesPerKWh = 0.0004
)

// Economics holds the money side of a plant. Zero values fall back to the
// defaults above. A bill amount and its consumption, when both are set,
// take precedence over ElectricityRate.
type Economics struct {
	ElectricityRate float64 `json:"electricity_rate,omitempty" yaml:"electricity_rate"`
	BillAmount      float64 `json:"bill_amount,omitempty" yaml:"bill_amount"`
	BillKWh         float64 `json:"bill_kwh,omitempty" yaml:"bill_kwh"`
	CostPerKW       float64 `json:"cost_per_kw,omitempty" yaml:"cost_per_kw"`
	// SystemCost overrides CostPerKW × capacity.
	SystemCost float64 `json:"system_cost,omitempty" yaml:"system_cost"`
}

func (e Economics) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"electricity_rate", e.ElectricityRate},
		{"bill_amount", e.BillAmount},
		{"bill_kwh", e.BillKWh},
		{"cost_per_kw", e.CostPerKW},
		{"system_cost", e.SystemCost},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return &ValidationError{Field: f.name, Value: f.v, Reason: "must be a finite non-negative amount"}
		}
	}
	return nil
}

// Rate returns the electricity price per kWh.
func (e Economics) Rate() float64 {
	if e.BillAmount > 0 && e.BillKWh > 0 {
		return e.BillAmount / e.BillKWh
	}
	if e.ElectricityRate > 0 {
		return e.ElectricityRate
	}
	return DefaultElectricityRate
}

// InstallCost returns the system cost for a DC capacity in watts.
func (e Economics) InstallCost(capacityW float64) float64 {
	if e.SystemCost > 0 {
		return e.SystemCost
	}
	perKW := e.CostPerKW
	if perKW == 0 {
		perKW = DefaultCostPerKW
	}
	return perKW * capacityW / 1000
}

// CostSavings estimates what the annual production is worth.
type CostSavings struct {
	RatePerKWh          float64 `json:"rate_per_kwh"`
	SystemCost          float64 `json:"system_cost"`
	AnnualProductionKWh float64 `json:"annual_production_kwh"`
	AnnualSavings       float64 `json:"annual_savings"`
	MonthlySavings      float64 `json:"monthly_savings"`
	// PaybackYears is zero when the plant never pays back.
	PaybackYears       float64 `json:"payback_years"`
	LifetimeNetSavings float64 `json:"lifetime_net_savings"`
	CO2AvoidedTonnes   float64 `json:"co2_avoided_tonnes"`
}

// PaysBack reports whether PaybackYears is meaningful.
func (s CostSavings) PaysBack() bool { return s.PaybackYears > 0 }
