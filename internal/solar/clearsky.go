package solar

import (
	"math"
	"time"

	"pv_optimizer/internal/model"
)

// ClearSkyTemperature is the ambient temperature assumed for synthetic samples.
const ClearSkyTemperature = 20.0

// Irradiance holds the three irradiance components in W/m².
type Irradiance struct {
	DNI float64
	DHI float64
	GHI float64
}

// ClearSky estimates cloudless irradiance from sun elevation in degrees
// using an air-mass exponential attenuation. Zero below the horizon.
func ClearSky(elevation float64) Irradiance {
	if elevation <= 0 {
		return Irradiance{}
	}
	sinEl := math.Sin(degToRad(elevation))
	dni := 900 * math.Exp(-0.13/sinEl)
	dhi := 100 * sinEl
	return Irradiance{DNI: dni, DHI: dhi, GHI: dni*sinEl + dhi}
}

// ClearSkySample builds a synthetic weather sample for one instant.
func ClearSkySample(calc Calculator, loc model.Location, t time.Time) model.WeatherSample {
	irr := ClearSky(calc.Position(loc, t).Elevation)
	return model.WeatherSample{
		Timestamp:   t.UTC(),
		Temperature: ClearSkyTemperature,
		DHI:         irr.DHI,
		DNI:         irr.DNI,
		GHI:         irr.GHI,
	}
}

// ClearSkyDay returns 24 hourly samples for the UTC day containing date.
func ClearSkyDay(calc Calculator, loc model.Location, date time.Time) []model.WeatherSample {
	d := date.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	samples := make([]model.WeatherSample, 24)
	for h := 0; h < 24; h++ {
		samples[h] = ClearSkySample(calc, loc, start.Add(time.Duration(h)*time.Hour))
	}
	return samples
}

// ClearSkyYear returns hourly samples for every hour of a UTC calendar year.
func ClearSkyYear(calc Calculator, loc model.Location, year int) []model.WeatherSample {
	r := model.YearRange(year)
	hours := int(r.End.Sub(r.Start) / time.Hour)
	samples := make([]model.WeatherSample, 0, hours)
	for t := r.Start; t.Before(r.End); t = t.Add(time.Hour) {
		samples = append(samples, ClearSkySample(calc, loc, t))
	}
	return samples
}
