package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"pv_optimizer/internal/config"
	"pv_optimizer/internal/ingest"
	"pv_optimizer/internal/log"
	"pv_optimizer/internal/model"
	"pv_optimizer/internal/store"
	"pv_optimizer/internal/weather"
)

func main() {
	configPath := flag.String("config", "", "plant config file (overrides PV_CONFIG)")
	first := flag.Int("first-year", 0, "first year to fetch (default from config)")
	last := flag.Int("last-year", 0, "last year to fetch (default from config)")
	cachePath := flag.String("cache", "", "SQLite cache path (overrides PV_CACHE_PATH and config)")
	output := flag.String("output", "", "also write the samples to this CSV file, merging with its contents")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		panic(err)
	}
	defer log.Sync()

	loadDotEnv(".env")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *cachePath != "" {
		cfg.Weather.CachePath = *cachePath
	}
	years := yearsFromFlags(cfg.Years(), *first, *last)
	if len(years) == 0 {
		log.Fatalf("no years selected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sources, closeCache, err := cfg.WeatherSources(ctx)
	if err != nil {
		log.Fatalf("opening weather sources: %v", err)
	}
	defer closeCache()

	fetched, err := fetchYears(ctx, sources(cfg.Location), years)
	if err != nil {
		log.Fatalf("fetching weather: %v", err)
	}

	if *output == "" {
		return
	}
	existing := loadExistingSamples(*output)
	merged := mergeSamples(cfg.Location, existing, fetched)

	if err := os.MkdirAll(filepath.Dir(*output), 0o755); err != nil {
		log.Fatalf("creating output directory: %v", err)
	}
	if err := writeCSV(*output, merged); err != nil {
		log.Fatalf("writing CSV: %v", err)
	}
	log.Infof("wrote %d samples to %s (was %d, fetched %d)", len(merged), *output, len(existing), len(fetched))
}

// fetchYears walks the years in order, logging per-year counts.
func fetchYears(ctx context.Context, src weather.YearSource, years []int) ([]model.WeatherSample, error) {
	var all []model.WeatherSample
	start := time.Now()
	err := weather.NewSequence(src, years...).Each(ctx,
		func(year int) { log.Infof("fetching %d...", year) },
		func(year int, samples []model.WeatherSample) error {
			log.Infof("  %d: %d samples", year, len(samples))
			all = append(all, samples...)
			return nil
		})
	if err != nil {
		return nil, err
	}
	log.Infow("weather fetched", "years", len(years), "samples", len(all), "elapsed", time.Since(start))
	return all, nil
}

// yearsFromFlags narrows the configured years to the flag bounds.
func yearsFromFlags(configured []int, first, last int) []int {
	if first == 0 && last == 0 {
		return configured
	}
	if first == 0 {
		first = last
	}
	if last == 0 {
		last = first
	}
	return weather.YearsBetween(first, last)
}

// loadDotEnv reads a .env file and sets variables not already in the environment.
func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.Trim(strings.TrimSpace(val), `"`)
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, val)
		}
	}
}

// loadExistingSamples returns the samples already in a CSV file, or nil when
// the file is missing or unreadable.
func loadExistingSamples(path string) []model.WeatherSample {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	samples, err := (&ingest.WeatherCSVParser{}).Parse(f)
	if err != nil {
		log.Warnf("ignoring existing %s: %v", path, err)
		return nil
	}
	return samples
}

// mergeSamples combines two series; fetched samples win on equal timestamps.
func mergeSamples(loc model.Location, existing, fetched []model.WeatherSample) []model.WeatherSample {
	s := store.New()
	s.AddSamples(loc, existing)
	s.AddSamples(loc, fetched)

	tr, ok := s.TimeRange(loc)
	if !ok {
		return nil
	}
	return s.SamplesInRange(loc, tr.Start, tr.End.Add(time.Second))
}

func writeCSV(path string, samples []model.WeatherSample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ingest.WriteWeatherCSV(f, samples); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
