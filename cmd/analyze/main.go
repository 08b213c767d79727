package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"pv_optimizer/internal/config"
	"pv_optimizer/internal/export"
	"pv_optimizer/internal/history"
	"pv_optimizer/internal/ingest"
	"pv_optimizer/internal/log"
	"pv_optimizer/internal/model"
	"pv_optimizer/internal/solar"
	"pv_optimizer/internal/weather"
)

// report holds everything the exporters need from one run.
type report struct {
	samples []model.WeatherSample
	power   []model.PowerSample
	days    []model.DayTotal
	result  model.HistoricalAnalysisResult
}

func main() {
	configPath := flag.String("config", "", "plant config file (overrides PV_CONFIG)")
	azimuth := flag.Float64("azimuth", -1, "panel azimuth in degrees (default from config)")
	tilt := flag.Float64("tilt", -1, "panel tilt in degrees (default from config)")
	weatherCSV := flag.String("weather-csv", "", "read weather from this CSV instead of the provider")
	clearSky := flag.Bool("clear-sky", false, "analyze synthesized clear-sky years")
	first := flag.Int("first-year", 0, "first year (default from config)")
	last := flag.Int("last-year", 0, "last year (default from config)")
	outDir := flag.String("out-dir", "", "write parameters, daily and monthly CSV reports to this directory")
	hourly := flag.Bool("hourly", false, "also write the hourly CSV report (requires -out-dir)")
	rate := flag.Float64("rate", 0, "electricity rate per kWh (default from config)")
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
	plant := cfg.Plant()
	if *azimuth >= 0 {
		plant.Orientation.Azimuth = *azimuth
	}
	if *tilt >= 0 {
		plant.Orientation.Tilt = *tilt
	}
	if *rate > 0 {
		plant.Economics.ElectricityRate = *rate
		plant.Economics.BillAmount, plant.Economics.BillKWh = 0, 0
	}

	m, err := solar.NewModel(plant.Location, plant.System, plant.Shading, cfg.Calculator())
	if err != nil {
		log.Fatalf("plant: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src, years, closeFn, err := selectSource(ctx, cfg, *weatherCSV, *clearSky)
	if err != nil {
		log.Fatalf("weather: %v", err)
	}
	defer closeFn()
	if *first != 0 || *last != 0 {
		years = weather.YearsBetween(orDefault(*first, *last), orDefault(*last, *first))
	}

	start := time.Now()
	rep, err := analyze(ctx, weather.NewSequence(src, years...), m, plant.Orientation, *hourly)
	if err != nil {
		log.Fatalf("analyze: %v", err)
	}
	log.Infow("analysis finished", "samples", rep.result.Samples, "days", rep.result.Days, "elapsed", time.Since(start))

	savings, err := history.PlantSavings(rep.result, plant)
	if err != nil {
		log.Fatalf("savings: %v", err)
	}
	rep.result.Savings = &savings

	printReport(os.Stdout, plant, rep.result)

	if *outDir != "" {
		if err := writeReports(*outDir, plant, rep, *hourly); err != nil {
			log.Fatalf("writing reports: %v", err)
		}
		log.Infof("reports written to %s", *outDir)
	}
}

// analyze walks the years, keeping the hourly series only when asked.
func analyze(ctx context.Context, seq *weather.Sequence, m *solar.Model, o model.PanelOrientation, keepHourly bool) (report, error) {
	agg, err := history.New(m, o)
	if err != nil {
		return report{}, err
	}

	var rep report
	err = seq.Each(ctx,
		func(year int) { fmt.Fprintf(os.Stderr, "Fetching data for year %d...\n", year) },
		func(_ int, samples []model.WeatherSample) error {
			power := agg.AddYear(samples)
			if keepHourly {
				rep.samples = append(rep.samples, samples...)
				rep.power = append(rep.power, power...)
			}
			return nil
		})
	if err != nil {
		return report{}, err
	}

	rep.result, err = agg.Result()
	if err != nil {
		return report{}, err
	}
	rep.days = agg.DailyTotals()
	return rep, nil
}

func selectSource(ctx context.Context, cfg *config.Config, csvPath string, clearSky bool) (weather.YearSource, []int, func() error, error) {
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
		return src, src.Years(), noop, nil
	case clearSky:
		return &weather.ClearSkySource{Calculator: cfg.Calculator(), Location: cfg.Location}, cfg.Years(), noop, nil
	default:
		factory, closeFn, err := cfg.WeatherSources(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		return factory(cfg.Location), cfg.Years(), closeFn, nil
	}
}

func orDefault(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

func writeReports(dir string, p model.Plant, rep report, hourly bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"parameters.csv", func(w io.Writer) error { return export.WriteParameters(w, p) }},
		{"daily.csv", func(w io.Writer) error { return export.WriteDaily(w, rep.days) }},
		{"monthly.csv", func(w io.Writer) error { return export.WriteMonthly(w, rep.result) }},
	}
	if s := rep.result.Savings; s != nil {
		files = append(files, struct {
			name  string
			write func(io.Writer) error
		}{"savings.csv", func(w io.Writer) error { return export.WriteSavings(w, *s) }})
	}
	if hourly {
		files = append(files, struct {
			name  string
			write func(io.Writer) error
		}{"hourly.csv", func(w io.Writer) error { return export.WriteHourly(w, rep.samples, rep.power) }})
	}

	for _, file := range files {
		path := filepath.Join(dir, file.name)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := file.write(f); err != nil {
			f.Close()
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

func printReport(w io.Writer, p model.Plant, res model.HistoricalAnalysisResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Historical Production")
	fmt.Fprintf(w, "  Panel: azimuth %.1f° (%s), tilt %.1f°   Capacity: %.1f kWp\n",
		p.Orientation.Azimuth, model.CompassDirection(p.Orientation.Azimuth), p.Orientation.Tilt, p.System.CapacityW/1000)
	fmt.Fprintf(w, "  Samples: %d over %d days\n", res.Samples, res.Days)
	fmt.Fprintln(w)

	years := make([]int, 0, len(res.YearlyTotalKWh))
	for y := range res.YearlyTotalKWh {
		years = append(years, y)
	}
	sort.Ints(years)
	for _, y := range years {
		fmt.Fprintf(w, "  %d: %10.1f kWh\n", y, res.YearlyTotalKWh[y])
	}
	fmt.Fprintf(w, "  Average: %7.1f kWh/year\n", res.AverageAnnualKWh)
	fmt.Fprintf(w, "  Total:   %7.1f kWh\n", res.TotalKWh)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "  Monthly average (kWh):")
	for m := 1; m <= 12; m++ {
		kwh, ok := res.MonthlyAverageKWh[m]
		if !ok {
			fmt.Fprintf(w, "    %s      -\n", time.Month(m).String()[:3])
			continue
		}
		fmt.Fprintf(w, "    %s %8.1f\n", time.Month(m).String()[:3], kwh)
	}
	fmt.Fprintln(w)

	if !res.PeakDay.Date.IsZero() {
		fmt.Fprintf(w, "  Best day: %s (%.2f kWh)\n", res.PeakDay.Date.Format("2006-01-02"), res.PeakDay.EnergyWh/1000)
	}
	fmt.Fprintf(w, "  Typical peak hour: %02d:00 UTC\n", res.TypicalDay.PeakHour)

	if s := res.Savings; s != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  Cost savings at %.4f/kWh\n", s.RatePerKWh)
		fmt.Fprintf(w, "    System cost:        %10.0f\n", s.SystemCost)
		fmt.Fprintf(w, "    Annual savings:     %10.2f\n", s.AnnualSavings)
		fmt.Fprintf(w, "    Monthly savings:    %10.2f\n", s.MonthlySavings)
		if s.PaysBack() && s.PaybackYears < 100 {
			fmt.Fprintf(w, "    Payback period:     %10.1f years\n", s.PaybackYears)
		} else {
			fmt.Fprintf(w, "    Payback period:            N/A\n")
		}
		fmt.Fprintf(w, "    %d-year net savings: %9.0f\n", model.LifetimeYears, s.LifetimeNetSavings)
		fmt.Fprintf(w, "    CO2 avoided:        %10.2f t/year\n", s.CO2AvoidedTonnes)
	}
}
