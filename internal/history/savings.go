package history

import (
	"fmt"
	"math"

	"pv_optimizer/internal/model"
)

// Savings values the average annual production of res at rate per kWh
// against an installation costing systemCost.
func Savings(res model.HistoricalAnalysisResult, rate, systemCost float64) (model.CostSavings, error) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return model.CostSavings{}, &model.ValidationError{Field: "electricity_rate", Value: rate, Reason: "must be a finite non-negative amount"}
	}
	if math.IsNaN(systemCost) || math.IsInf(systemCost, 0) || systemCost < 0 {
		return model.CostSavings{}, fmt.Errorf("%w: system cost %g", model.ErrInvalidInput, systemCost)
	}

	annual := res.AverageAnnualKWh * rate
	s := model.CostSavings{
		RatePerKWh:          rate,
		SystemCost:          systemCost,
		AnnualProductionKWh: res.AverageAnnualKWh,
		AnnualSavings:       annual,
		MonthlySavings:      annual / 12,
		LifetimeNetSavings:  annual*model.LifetimeYears - systemCost,
		CO2AvoidedTonnes:    res.AverageAnnualKWh * model.CO2TonnesPerKWh,
	}
	if annual > 0 {
		s.PaybackYears = systemCost / annual
	}
	return s, nil
}

// PlantSavings values res with the plant's own rate and installation cost.
func PlantSavings(res model.HistoricalAnalysisResult, p model.Plant) (model.CostSavings, error) {
	return Savings(res, p.Economics.Rate(), p.Economics.InstallCost(p.System.CapacityW))
}
