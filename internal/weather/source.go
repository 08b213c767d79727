// Package weather supplies hourly weather samples to the optimizer and the
// historical aggregator, one calendar year at a time.
package weather

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pv_optimizer/internal/log"
	"pv_optimizer/internal/model"
	"pv_optimizer/internal/solar"
)

// YearSource returns the hourly samples of one UTC calendar year.
// An empty slice means the year is unavailable.
type YearSource interface {
	Year(ctx context.Context, year int) ([]model.WeatherSample, error)
}

// Provider fetches samples for an arbitrary range from a remote service.
type Provider interface {
	Fetch(ctx context.Context, loc model.Location, r model.TimeRange) ([]model.WeatherSample, error)
}

// Cache persists fetched years per location. Load returns nil, nil on a miss.
type Cache interface {
	Load(ctx context.Context, loc model.Location, year int) ([]model.WeatherSample, error)
	Save(ctx context.Context, loc model.Location, samples []model.WeatherSample) error
}

// ArchiveLag is how far behind real time the provider archive runs.
const ArchiveLag = 48 * time.Hour

// CacheSlack is how far a cached year may end before the archive cutoff
// and still count as a hit.
const CacheSlack = 24 * time.Hour

// AvailableRange clips a year to what the archive can serve at now.
// The range is empty when the year has not started in the archive yet.
func AvailableRange(year int, now time.Time) model.TimeRange {
	r := model.YearRange(year)
	latest := now.UTC().Add(-ArchiveLag).Truncate(24 * time.Hour)
	if latest.Before(r.End) {
		r.End = latest
	}
	return r
}

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}

// ProviderSource adapts a Provider to a YearSource for one location.
type ProviderSource struct {
	Provider Provider
	Location model.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

func (p *ProviderSource) Year(ctx context.Context, year int) ([]model.WeatherSample, error) {
	r := AvailableRange(year, clock(p.Now))
	if !r.Start.Before(r.End) {
		return nil, &model.MissingDataError{Year: year}
	}

	samples, err := p.Provider.Fetch(ctx, p.Location, r)
	if err != nil {
		return nil, fmt.Errorf("fetching %d: %w", year, err)
	}
	return samples, nil
}

// CachedSource consults the cache before the upstream source and writes
// fetched years through to it. A cached year that stops short of what the
// archive can serve now is refetched. Cache failures are logged, never fatal.
type CachedSource struct {
	Cache    Cache
	Upstream YearSource
	Location model.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

func (c *CachedSource) Year(ctx context.Context, year int) ([]model.WeatherSample, error) {
	cached, err := c.Cache.Load(ctx, c.Location, year)
	if err != nil {
		log.Warnw("weather cache load failed", "year", year, "error", err)
	}
	if len(cached) > 0 {
		want := AvailableRange(year, clock(c.Now))
		last := cached[len(cached)-1].Timestamp
		if !last.Add(CacheSlack).Before(want.End) {
			log.Debugw("weather cache hit", "year", year, "samples", len(cached))
			return cached, nil
		}
		log.Infow("weather cache incomplete, refetching", "year", year, "cached_until", last, "available_until", want.End)
	}

	samples, err := c.Upstream.Year(ctx, year)
	if err != nil {
		return nil, err
	}
	if len(samples) > 0 {
		if err := c.Cache.Save(ctx, c.Location, samples); err != nil {
			log.Warnw("weather cache save failed", "year", year, "error", err)
		}
	}
	return samples, nil
}

// SliceSource serves samples that are already in memory.
type SliceSource struct {
	byYear map[int][]model.WeatherSample
}

// FromSamples groups samples by UTC year, sorted by timestamp.
func FromSamples(samples []model.WeatherSample) *SliceSource {
	s := &SliceSource{byYear: make(map[int][]model.WeatherSample)}
	for _, sample := range samples {
		y := sample.Timestamp.UTC().Year()
		s.byYear[y] = append(s.byYear[y], sample)
	}
	for y := range s.byYear {
		year := s.byYear[y]
		sort.Slice(year, func(i, j int) bool { return year[i].Timestamp.Before(year[j].Timestamp) })
	}
	return s
}

// Years returns the years present, ascending.
func (s *SliceSource) Years() []int {
	years := make([]int, 0, len(s.byYear))
	for y := range s.byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func (s *SliceSource) Year(_ context.Context, year int) ([]model.WeatherSample, error) {
	return s.byYear[year], nil
}

// ClearSkySource synthesizes cloudless years.
type ClearSkySource struct {
	Calculator solar.Calculator
	Location   model.Location
}

func (c *ClearSkySource) Year(_ context.Context, year int) ([]model.WeatherSample, error) {
	calc := c.Calculator
	if calc == nil {
		calc = solar.Simple{}
	}
	return solar.ClearSkyYear(calc, c.Location, year), nil
}
