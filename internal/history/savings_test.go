package history

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pv_optimizer/internal/model"
)

func TestSavings(t *testing.T) {
	res := model.HistoricalAnalysisResult{AverageAnnualKWh: 6000}

	s, err := Savings(res, 0.15, 5000)
	require.NoError(t, err)
	assert.InDelta(t, 900.0, s.AnnualSavings, 1e-9)
	assert.InDelta(t, 75.0, s.MonthlySavings, 1e-9)
	assert.InDelta(t, 5000.0/900.0, s.PaybackYears, 1e-9)
	assert.True(t, s.PaysBack())
	assert.InDelta(t, 900.0*25-5000, s.LifetimeNetSavings, 1e-9)
	assert.InDelta(t, 2.4, s.CO2AvoidedTonnes, 1e-9)
	assert.Equal(t, 6000.0, s.AnnualProductionKWh)
}

func TestSavingsWithoutProduction(t *testing.T) {
	s, err := Savings(model.HistoricalAnalysisResult{}, 0.12, 5000)
	require.NoError(t, err)
	assert.False(t, s.PaysBack())
	assert.Equal(t, -5000.0, s.LifetimeNetSavings)
}

func TestSavingsRejectsBadInput(t *testing.T) {
	res := model.HistoricalAnalysisResult{AverageAnnualKWh: 1000}
	for _, tc := range []struct{ rate, cost float64 }{
		{-0.1, 1000},
		{math.NaN(), 1000},
		{0.1, math.Inf(1)},
		{0.1, -1},
	} {
		_, err := Savings(res, tc.rate, tc.cost)
		assert.ErrorIs(t, err, model.ErrInvalidInput, "rate %v cost %v", tc.rate, tc.cost)
	}
}

func TestPlantSavingsUsesBillRate(t *testing.T) {
	p := model.Plant{
		System:    model.SystemParameters{CapacityW: 4000},
		Economics: model.Economics{ElectricityRate: 0.5, BillAmount: 90, BillKWh: 450},
	}
	s, err := PlantSavings(model.HistoricalAnalysisResult{AverageAnnualKWh: 5000}, p)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, s.RatePerKWh, 1e-12)
	assert.InDelta(t, 4000.0, s.SystemCost, 1e-9)
	assert.InDelta(t, 1000.0, s.AnnualSavings, 1e-9)
}
