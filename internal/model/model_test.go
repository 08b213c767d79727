package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationValidate(t *testing.T) {
	assert.NoError(t, Location{Latitude: 37.7749, Longitude: -122.4194}.Validate())
	assert.NoError(t, Location{Latitude: -90, Longitude: 180}.Validate())

	for _, loc := range []Location{
		{Latitude: 91},
		{Latitude: -90.5},
		{Longitude: 181},
		{Latitude: math.NaN()},
	} {
		err := loc.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInput))
	}
}

func TestOrientationValidate(t *testing.T) {
	assert.NoError(t, PanelOrientation{Azimuth: 0, Tilt: 90}.Validate())
	assert.Error(t, PanelOrientation{Azimuth: 360, Tilt: 10}.Validate())
	assert.Error(t, PanelOrientation{Azimuth: 180, Tilt: -1}.Validate())
}

func TestSystemParametersValidate(t *testing.T) {
	p := DefaultSystemParameters()
	require.NoError(t, p.Validate())

	bad := p
	bad.Albedo = 1.2
	err := bad.Validate()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "albedo", ve.Field)
	assert.ErrorIs(t, err, ErrInvalidInput)

	bad = p
	bad.PanelEfficiency = -0.1
	assert.ErrorIs(t, bad.Validate(), ErrInvalidInput)

	bad = p
	bad.PanelArea = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidInput)

	bad = p
	bad.TempCoefficient = 0.004
	require.ErrorAs(t, bad.Validate(), &ve)
	assert.Equal(t, "temp_coefficient", ve.Field)

	bad = p
	bad.TempCoefficient = 0
	assert.NoError(t, bad.Validate())
}

func TestShadingAttenuation(t *testing.T) {
	var nilProfile *ShadingProfile
	assert.Equal(t, 0.0, nilProfile.Attenuation(5, 100))

	s := &ShadingProfile{}
	s.Elevation[10] = 20 // 100°-110°
	s.Opacity[10] = 0.75

	assert.Equal(t, 10, s.Bucket(105))
	assert.Equal(t, 0, s.Bucket(359.9+0.1))
	assert.InDelta(t, 0.75, s.Attenuation(15, 105), 1e-9)
	assert.Equal(t, 0.0, s.Attenuation(25, 105))
	assert.Equal(t, 0.0, s.Attenuation(15, 95))
	require.NoError(t, s.Validate())

	s.Opacity[3] = 2
	assert.ErrorIs(t, s.Validate(), ErrInvalidInput)
}

func TestHorizontalBaseline(t *testing.T) {
	assert.Equal(t, PanelOrientation{Azimuth: 180}, HorizontalBaseline(Location{Latitude: 40}))
	assert.Equal(t, PanelOrientation{Azimuth: 0}, HorizontalBaseline(Location{Latitude: -33.9}))
}

func TestErrCanceledMatchesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := fmt.Errorf("year 2023: %w", ctx.Err())
	assert.ErrorIs(t, err, ErrCanceled)
}

func TestMissingDataError(t *testing.T) {
	err := &MissingDataError{Year: 2021}
	assert.ErrorIs(t, err, ErrMissingData)
	assert.NotErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "2021")
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, -0.0045, TemperatureCoefficientForLatitude(5))
	assert.Equal(t, -0.0040, TemperatureCoefficientForLatitude(-40))
	assert.Equal(t, -0.0035, TemperatureCoefficientForLatitude(70))

	assert.InDelta(t, 25.0, PanelAreaFor(5000, 0.2), 1e-9)
	assert.Equal(t, 0.0, PanelAreaFor(5000, 0))

	assert.Equal(t, "S", CompassDirection(180))
	assert.Equal(t, "N", CompassDirection(359))
	assert.Equal(t, "NE", CompassDirection(40))
	assert.Equal(t, "W", CompassDirection(-90))

	assert.Equal(t, 0.0, NormalizeAzimuth(360))
	assert.InDelta(t, 350.0, NormalizeAzimuth(-10), 1e-9)
}

func TestFieldCatalog(t *testing.T) {
	for _, f := range WeatherFields {
		info, ok := FieldCatalog[f]
		require.True(t, ok, f)
		assert.NotEmpty(t, info.Variable, f)
	}

	var s WeatherSample
	s.Set(FieldDNI, 800)
	assert.Equal(t, 800.0, s.Value(FieldDNI))
	assert.Equal(t, 0.0, s.Value(FieldGHI))
}

func TestWeatherSampleValidate(t *testing.T) {
	assert.NoError(t, WeatherSample{Temperature: -5, DHI: 10, DNI: 0, GHI: 10}.Validate())
	assert.ErrorIs(t, WeatherSample{DNI: -1}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, WeatherSample{GHI: math.NaN()}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, WeatherSample{Temperature: math.Inf(1)}.Validate(), ErrInvalidInput)
}

func TestEconomics(t *testing.T) {
	var e Economics
	require.NoError(t, e.Validate())
	assert.Equal(t, DefaultElectricityRate, e.Rate())
	assert.InDelta(t, 5000.0, e.InstallCost(5000), 1e-9)

	e = Economics{ElectricityRate: 0.3, CostPerKW: 1500}
	assert.Equal(t, 0.3, e.Rate())
	assert.InDelta(t, 6000.0, e.InstallCost(4000), 1e-9)

	e.BillAmount, e.BillKWh = 100, 400
	assert.InDelta(t, 0.25, e.Rate(), 1e-12)

	e.SystemCost = 7200
	assert.Equal(t, 7200.0, e.InstallCost(4000))

	e.BillKWh = -1
	var ve *ValidationError
	require.ErrorAs(t, e.Validate(), &ve)
	assert.Equal(t, "bill_kwh", ve.Field)
}
