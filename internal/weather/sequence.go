package weather

import (
	"context"
	"fmt"

	"pv_optimizer/internal/model"
)

// Sequence lazily walks a fixed list of years from a YearSource. Nothing is
// fetched until Each runs, and Each can be called again to restart.
type Sequence struct {
	src   YearSource
	years []int
}

func NewSequence(src YearSource, years ...int) *Sequence {
	return &Sequence{src: src, years: append([]int(nil), years...)}
}

// YearsBetween returns every year from first to last inclusive.
func YearsBetween(first, last int) []int {
	if last < first {
		return nil
	}
	years := make([]int, 0, last-first+1)
	for y := first; y <= last; y++ {
		years = append(years, y)
	}
	return years
}

func (s *Sequence) Years() []int { return append([]int(nil), s.years...) }

// Each fetches the years in order and hands each to fn. fetching, when not
// nil, is called before every fetch. The walk stops at the first failure:
// a source error, an empty year (*model.MissingDataError), context
// cancellation, or an error from fn.
func (s *Sequence) Each(ctx context.Context, fetching func(year int), fn func(year int, samples []model.WeatherSample) error) error {
	for _, year := range s.years {
		if err := ctx.Err(); err != nil {
			return err
		}
		if fetching != nil {
			fetching(year)
		}
		samples, err := s.src.Year(ctx, year)
		if err != nil {
			return fmt.Errorf("year %d: %w", year, err)
		}
		if len(samples) == 0 {
			return &model.MissingDataError{Year: year}
		}
		if err := fn(year, samples); err != nil {
			return err
		}
	}
	return nil
}

// Collect loads every year into one slice.
func (s *Sequence) Collect(ctx context.Context) ([]model.WeatherSample, error) {
	var all []model.WeatherSample
	err := s.Each(ctx, nil, func(_ int, samples []model.WeatherSample) error {
		all = append(all, samples...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}
