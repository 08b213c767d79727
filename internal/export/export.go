// Package export writes analysis results as CSV reports.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"pv_optimizer/internal/model"
)

const dateLayout = "2006-01-02"

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// WriteHourly writes one row per sample with the computed power. Hourly
// samples make W and Wh equal.
func WriteHourly(w io.Writer, samples []model.WeatherSample, power []model.PowerSample) error {
	if len(samples) != len(power) {
		return fmt.Errorf("hourly export: %d samples but %d power values", len(samples), len(power))
	}

	cw := csv.NewWriter(w)
	header := []string{"timestamp", "date", "hour", "temperature_c", "dni_w_m2", "dhi_w_m2", "ghi_w_m2", "power_w", "energy_wh"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, s := range samples {
		ts := s.Timestamp.UTC()
		p := formatFloat(power[i].PowerW, 2)
		if err := cw.Write([]string{
			ts.Format(time.RFC3339),
			ts.Format(dateLayout),
			strconv.Itoa(ts.Hour()),
			formatFloat(s.Temperature, 1),
			formatFloat(s.DNI, 1),
			formatFloat(s.DHI, 1),
			formatFloat(s.GHI, 1),
			p,
			p,
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteDaily writes the per-day totals.
func WriteDaily(w io.Writer, days []model.DayTotal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "energy_wh", "energy_kwh"}); err != nil {
		return err
	}
	for _, d := range days {
		if err := cw.Write([]string{
			d.Date.Format(dateLayout),
			formatFloat(d.EnergyWh, 2),
			formatFloat(d.EnergyWh/1000, 3),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMonthly writes the twelve monthly averages followed by the yearly
// totals. Months without data are written with an empty value.
func WriteMonthly(w io.Writer, res model.HistoricalAnalysisResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"period", "label", "energy_kwh"}); err != nil {
		return err
	}
	for m := 1; m <= 12; m++ {
		value := ""
		if kwh, ok := res.MonthlyAverageKWh[m]; ok {
			value = formatFloat(kwh, 1)
		}
		if err := cw.Write([]string{"month", time.Month(m).String()[:3], value}); err != nil {
			return err
		}
	}
	for _, year := range sortedYears(res.YearlyTotalKWh) {
		if err := cw.Write([]string{"year", strconv.Itoa(year), formatFloat(res.YearlyTotalKWh[year], 1)}); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{"average", "annual", formatFloat(res.AverageAnnualKWh, 1)}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteParameters records the plant the report was computed for.
func WriteParameters(w io.Writer, p model.Plant) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"parameter", "value", "unit"},
		{"latitude", formatFloat(p.Location.Latitude, 4), "degrees"},
		{"longitude", formatFloat(p.Location.Longitude, 4), "degrees"},
		{"panel_azimuth", formatFloat(p.Orientation.Azimuth, 1), "degrees"},
		{"panel_tilt", formatFloat(p.Orientation.Tilt, 1), "degrees"},
		{"capacity", formatFloat(p.System.CapacityW, 0), "W"},
		{"panel_area", formatFloat(p.System.PanelArea, 2), "m2"},
		{"panel_efficiency", formatFloat(p.System.PanelEfficiency, 3), "fraction"},
		{"temperature_coefficient", formatFloat(p.System.TempCoefficient, 4), "1/degC"},
		{"inverter_efficiency", formatFloat(p.System.InverterEfficiency, 3), "fraction"},
		{"inverter_limit", formatFloat(p.System.InverterLimitW, 0), "W"},
		{"albedo", formatFloat(p.System.Albedo, 2), "fraction"},
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteSavings writes the cost-savings estimate. A plant that never pays
// back gets an empty payback value.
func WriteSavings(w io.Writer, s model.CostSavings) error {
	payback := ""
	if s.PaysBack() {
		payback = formatFloat(s.PaybackYears, 1)
	}
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"metric", "value", "unit"},
		{"electricity_rate", formatFloat(s.RatePerKWh, 4), "per kWh"},
		{"system_cost", formatFloat(s.SystemCost, 0), "currency"},
		{"annual_production", formatFloat(s.AnnualProductionKWh, 0), "kWh"},
		{"annual_savings", formatFloat(s.AnnualSavings, 2), "currency"},
		{"monthly_savings", formatFloat(s.MonthlySavings, 2), "currency"},
		{"payback_period", payback, "years"},
		{"lifetime_net_savings", formatFloat(s.LifetimeNetSavings, 0), "currency"},
		{"co2_avoided", formatFloat(s.CO2AvoidedTonnes, 2), "t/year"},
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func sortedYears(m map[int]float64) []int {
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
