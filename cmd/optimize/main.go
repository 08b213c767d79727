package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"pv_optimizer/internal/config"
	"pv_optimizer/internal/ingest"
	"pv_optimizer/internal/log"
	"pv_optimizer/internal/model"
	"pv_optimizer/internal/optimizer"
	"pv_optimizer/internal/simulator"
	"pv_optimizer/internal/weather"
)

func main() {
	configPath := flag.String("config", "", "plant config file (overrides PV_CONFIG)")
	strategy := flag.String("strategy", "", "clear-sky or historical (default from config)")
	azStep := flag.Float64("azimuth-step", 0, "azimuth grid step in degrees (default from config)")
	tiltStep := flag.Float64("tilt-step", 0, "tilt grid step in degrees (default from config)")
	workers := flag.Int("workers", 0, "parallel candidate evaluations, 0 keeps the config value")
	weatherCSV := flag.String("weather-csv", "", "read historical weather from this CSV instead of the provider")
	clearSky := flag.Bool("clear-sky", false, "synthesize clear-sky years for the historical strategy")
	first := flag.Int("first-year", 0, "first historical year (default from config)")
	last := flag.Int("last-year", 0, "last historical year (default from config)")
	asJSON := flag.Bool("json", false, "print the result as JSON")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sources, years, closeFn, err := selectSources(ctx, cfg, *weatherCSV, *clearSky)
	if err != nil {
		log.Fatalf("weather: %v", err)
	}
	defer closeFn()
	if *first != 0 || *last != 0 {
		years = weather.YearsBetween(orDefault(*first, *last), orDefault(*last, *first))
	}

	engine := simulator.New(nil, sources)
	if err := engine.SetPlant(cfg.Plant()); err != nil {
		log.Fatalf("plant: %v", err)
	}
	if err := engine.SetSearch(cfg.Search); err != nil {
		log.Fatalf("search: %v", err)
	}
	engine.SetCalculator(cfg.Calculator())
	engine.SetYears(years)

	req := simulator.OptimizeRequest{
		Strategy:    optimizer.Strategy(*strategy),
		AzimuthStep: *azStep,
		TiltStep:    *tiltStep,
		Workers:     *workers,
	}
	res, err := engine.RunOptimize(ctx, req, func(completed, total int) {
		fmt.Fprintf(os.Stderr, "\r  evaluated %d/%d", completed, total)
		if completed == total {
			fmt.Fprintln(os.Stderr)
		}
	})
	if err != nil {
		log.Fatalf("optimize: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			log.Fatalf("encoding result: %v", err)
		}
		return
	}
	printResult(os.Stdout, cfg.Plant(), res)
}

// selectSources picks the weather source: a CSV file, synthesized clear-sky
// years (nil factory), or the configured provider chain.
func selectSources(ctx context.Context, cfg *config.Config, csvPath string, clearSky bool) (simulator.SourceFactory, []int, func() error, error) {
	noop := func() error { return nil }
	switch {
	case csvPath != "":
		f, err := os.Open(csvPath)
		if err != nil {
			return nil, nil, nil, err
		}
		defer f.Close()
		samples, err := (&ingest.WeatherCSVParser{}).Parse(f)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("parsing %s: %w", csvPath, err)
		}
		src := weather.FromSamples(samples)
		return func(model.Location) weather.YearSource { return src }, src.Years(), noop, nil
	case clearSky:
		return nil, cfg.Years(), noop, nil
	default:
		factory, closeFn, err := cfg.WeatherSources(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		return factory, cfg.Years(), closeFn, nil
	}
}

func orDefault(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

func printResult(w io.Writer, p model.Plant, res model.OptimizationResult) {
	rec := optimizer.RuleOfThumb(p.Location.Latitude)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Orientation Optimization")
	fmt.Fprintf(w, "  Location: %.4f, %.4f (%s hemisphere, %s)\n", p.Location.Latitude, p.Location.Longitude, rec.Hemisphere, rec.Zone)
	fmt.Fprintf(w, "  Strategy: %s   Candidates: %d\n", res.Strategy, res.Evaluated)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Best:      azimuth %5.1f° (%s)   tilt %4.1f°\n", res.Azimuth, model.CompassDirection(res.Azimuth), res.Tilt)
	fmt.Fprintf(w, "  Annual:    %10.1f kWh\n", res.AnnualEnergyKWh())
	fmt.Fprintf(w, "  Flat:      %10.1f kWh\n", res.BaselineEnergyWh/1000)
	fmt.Fprintf(w, "  Gain:      %10.1f %%\n", res.ImprovementPct)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Rule of thumb: face %s (%.0f°), tilt %.1f°\n", rec.Facing, rec.Azimuth, rec.Tilt)
}
