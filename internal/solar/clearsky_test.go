package solar

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pv_optimizer/internal/model"
)

func TestClearSky(t *testing.T) {
	assert.Equal(t, Irradiance{}, ClearSky(0))
	assert.Equal(t, Irradiance{}, ClearSky(-5))

	irr := ClearSky(90)
	assert.InDelta(t, 900*math.Exp(-0.13), irr.DNI, 1e-9)
	assert.InDelta(t, 100.0, irr.DHI, 1e-9)
	assert.InDelta(t, irr.DNI+100, irr.GHI, 1e-9)

	low := ClearSky(10)
	assert.Less(t, low.DNI, irr.DNI)
}

func TestClearSkyDay(t *testing.T) {
	loc := model.Location{Latitude: 40}
	day := ClearSkyDay(Simple{}, loc, time.Date(2023, 3, 15, 17, 30, 0, 0, time.UTC))
	assert.Len(t, day, 24)
	assert.Equal(t, time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC), day[0].Timestamp)
	assert.Equal(t, 0.0, day[0].DNI)
	assert.Greater(t, day[12].DNI, 0.0)
	for _, s := range day {
		assert.Equal(t, ClearSkyTemperature, s.Temperature)
	}
}

func TestClearSkyYear(t *testing.T) {
	loc := model.Location{Latitude: 40}
	assert.Len(t, ClearSkyYear(Simple{}, loc, 2023), 8760)
	assert.Len(t, ClearSkyYear(Simple{}, loc, 2024), 8784)
}
