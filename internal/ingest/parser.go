package ingest

import (
	"io"

	"pv_optimizer/internal/model"
)

// Parser reads weather data from a source and returns samples.
type Parser interface {
	Parse(r io.Reader) ([]model.WeatherSample, error)
}
