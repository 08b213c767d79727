package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"pv_optimizer/internal/log"
	"pv_optimizer/internal/model"
	"pv_optimizer/internal/openmeteo"
	"pv_optimizer/internal/solar"
	"pv_optimizer/internal/store"
	"pv_optimizer/internal/weather"
)

// Calculator returns the configured sun position model.
func (c *Config) Calculator() solar.Calculator {
	return solar.CalculatorByName(c.Weather.Calculator)
}

// WeatherSources builds the per-location year source: the Open-Meteo archive
// behind the SQLite cache when a cache path is set. The returned func
// closes the cache and must be called when done.
func (c *Config) WeatherSources(ctx context.Context) (func(model.Location) weather.YearSource, func() error, error) {
	provider := openmeteo.New(c.OpenMeteo())
	noop := func() error { return nil }

	if c.Weather.CachePath == "" {
		return func(loc model.Location) weather.YearSource {
			return &weather.ProviderSource{Provider: provider, Location: loc}
		}, noop, nil
	}

	if err := os.MkdirAll(filepath.Dir(c.Weather.CachePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating cache directory: %w", err)
	}
	cache, err := store.OpenSQLite(ctx, c.Weather.CachePath)
	if err != nil {
		return nil, nil, err
	}
	log.Infow("weather cache opened", "path", c.Weather.CachePath)

	return func(loc model.Location) weather.YearSource {
		return &weather.CachedSource{
			Cache:    cache,
			Upstream: &weather.ProviderSource{Provider: provider, Location: loc},
			Location: loc,
		}
	}, cache.Close, nil
}
