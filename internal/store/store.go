package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pv_optimizer/internal/model"
)

// LocationKey identifies a site to four decimal places (about 11 m).
func LocationKey(loc model.Location) string {
	return fmt.Sprintf("%.4f,%.4f", loc.Latitude, loc.Longitude)
}

// Store holds weather samples in memory, indexed by location key.
type Store struct {
	mu      sync.RWMutex
	samples map[string][]model.WeatherSample // keyed by location key, sorted by timestamp
}

func New() *Store {
	return &Store{
		samples: make(map[string][]model.WeatherSample),
	}
}

// AddSamples merges samples for a location and keeps them sorted. A sample
// with the same timestamp as an existing one replaces it.
func (s *Store) AddSamples(loc model.Location, samples []model.WeatherSample) {
	if len(samples) == 0 {
		return
	}
	key := LocationKey(loc)

	s.mu.Lock()
	defer s.mu.Unlock()

	byTime := make(map[int64]int, len(s.samples[key]))
	all := s.samples[key]
	for i, existing := range all {
		byTime[existing.Timestamp.Unix()] = i
	}
	for _, sample := range samples {
		sample.Timestamp = sample.Timestamp.UTC()
		if i, ok := byTime[sample.Timestamp.Unix()]; ok {
			all[i] = sample
			continue
		}
		byTime[sample.Timestamp.Unix()] = len(all)
		all = append(all, sample)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Timestamp.Before(all[j].Timestamp)
	})
	s.samples[key] = all
}

// SampleCount returns the number of samples stored for a location.
func (s *Store) SampleCount(loc model.Location) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples[LocationKey(loc)])
}

// TimeRange returns the first and last sample timestamps for a location.
func (s *Store) TimeRange(loc model.Location) (model.TimeRange, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.samples[LocationKey(loc)]
	if len(all) == 0 {
		return model.TimeRange{}, false
	}

	return model.TimeRange{
		Start: all[0].Timestamp,
		End:   all[len(all)-1].Timestamp,
	}, true
}

// SamplesInRange returns samples between start (inclusive) and end (exclusive).
func (s *Store) SamplesInRange(loc model.Location, start, end time.Time) []model.WeatherSample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.samples[LocationKey(loc)]
	if len(all) == 0 {
		return nil
	}

	// Binary search for start index
	startIdx := sort.Search(len(all), func(i int) bool {
		return !all[i].Timestamp.Before(start)
	})

	// Binary search for end index
	endIdx := sort.Search(len(all), func(i int) bool {
		return !all[i].Timestamp.Before(end)
	})

	if startIdx >= endIdx {
		return nil
	}

	result := make([]model.WeatherSample, endIdx-startIdx)
	copy(result, all[startIdx:endIdx])
	return result
}

// Load returns the samples of one UTC year, nil when none are stored.
func (s *Store) Load(_ context.Context, loc model.Location, year int) ([]model.WeatherSample, error) {
	r := model.YearRange(year)
	return s.SamplesInRange(loc, r.Start, r.End), nil
}

// Save stores samples for a location.
func (s *Store) Save(_ context.Context, loc model.Location, samples []model.WeatherSample) error {
	s.AddSamples(loc, samples)
	return nil
}
