package ingest

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pv_optimizer/internal/model"
)

func TestWeatherCSVParser_Parse(t *testing.T) {
	input := `timestamp,temperature,dhi,dni,ghi
1686787200,18.5,0,0,0
2023-06-15T10:00:00Z,30.1,110,820,760
1686826800.5, 29.0, 100, 790.25, 700
`
	samples, err := (&WeatherCSVParser{}).Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), samples[0].Timestamp)
	assert.InDelta(t, 18.5, samples[0].Temperature, 0.001)

	assert.Equal(t, time.Date(2023, 6, 15, 10, 0, 0, 0, time.UTC), samples[1].Timestamp)
	assert.InDelta(t, 110.0, samples[1].DHI, 0.001)
	assert.InDelta(t, 820.0, samples[1].DNI, 0.001)
	assert.InDelta(t, 760.0, samples[1].GHI, 0.001)

	assert.Equal(t, time.Date(2023, 6, 15, 11, 0, 0, 500_000_000, time.UTC), samples[2].Timestamp)
	assert.InDelta(t, 790.25, samples[2].DNI, 0.001)
}

func TestWeatherCSVParser_BadHeader(t *testing.T) {
	_, err := (&WeatherCSVParser{}).Parse(strings.NewReader("time,temp,dhi,dni,ghi\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timestamp")

	_, err = (&WeatherCSVParser{}).Parse(strings.NewReader("timestamp,temperature\n"))
	require.Error(t, err)

	_, err = (&WeatherCSVParser{}).Parse(strings.NewReader(""))
	require.Error(t, err)
}

func TestWeatherCSVParser_RejectsInvalidRows(t *testing.T) {
	cases := map[string]string{
		"negative irradiance": "1686787200,18.5,-1,0,0",
		"NaN":                 "1686787200,18.5,0,NaN,0",
		"bad number":          "1686787200,warm,0,0,0",
		"bad timestamp":       "yesterday,18.5,0,0,0",
	}
	for name, row := range cases {
		t.Run(name, func(t *testing.T) {
			input := "timestamp,temperature,dhi,dni,ghi\n1686783600,10,0,0,0\n" + row + "\n"
			_, err := (&WeatherCSVParser{}).Parse(strings.NewReader(input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "line 3")
		})
	}
}

func TestWeatherCSVParser_NegativeIsInvalidInput(t *testing.T) {
	input := "timestamp,temperature,dhi,dni,ghi\n1686787200,18.5,0,-4,0\n"
	_, err := (&WeatherCSVParser{}).Parse(strings.NewReader(input))
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestWriteWeatherCSVRoundTrip(t *testing.T) {
	in := []model.WeatherSample{
		{Timestamp: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), Temperature: -2.5, DHI: 0, DNI: 0, GHI: 0},
		{Timestamp: time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC), Temperature: 4, DHI: 55.5, DNI: 410, GHI: 230.25},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWeatherCSV(&buf, in))
	assert.True(t, strings.HasPrefix(buf.String(), "timestamp,temperature,dhi,dni,ghi\n1672531200,-2.5,0,0,0\n"))

	var p Parser = &WeatherCSVParser{}
	out, err := p.Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
