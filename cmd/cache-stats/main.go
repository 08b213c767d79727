package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"pv_optimizer/internal/config"
	"pv_optimizer/internal/log"
	"pv_optimizer/internal/model"
	"pv_optimizer/internal/store"
)

// yearStat is one row of the coverage table.
type yearStat struct {
	year     int
	samples  int
	expected int
}

func main() {
	configPath := flag.String("config", "", "plant config file (overrides PV_CONFIG)")
	cachePath := flag.String("cache", "", "SQLite cache path (overrides PV_CACHE_PATH and config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *cachePath != "" {
		cfg.Weather.CachePath = *cachePath
	}

	ctx := context.Background()
	db, err := store.OpenSQLite(ctx, cfg.Weather.CachePath)
	if err != nil {
		log.Fatalf("opening cache: %v", err)
	}
	defer db.Close()

	st, err := db.Stats(ctx, cfg.Location)
	if err != nil {
		log.Fatalf("stats: %v", err)
	}
	rows, err := coverage(ctx, db, cfg.Location, cfg.Years())
	if err != nil {
		log.Fatalf("coverage: %v", err)
	}
	printStats(os.Stdout, cfg.Weather.CachePath, cfg.Location, st, rows)
}

func coverage(ctx context.Context, db *store.SQLite, loc model.Location, years []int) ([]yearStat, error) {
	out := make([]yearStat, 0, len(years))
	for _, y := range years {
		samples, err := db.Load(ctx, loc, y)
		if err != nil {
			return nil, err
		}
		r := model.YearRange(y)
		out = append(out, yearStat{year: y, samples: len(samples), expected: int(r.End.Sub(r.Start).Hours())})
	}
	return out, nil
}

func printStats(w io.Writer, path string, loc model.Location, st store.Stats, rows []yearStat) {
	fmt.Fprintf(w, "Cache %s\n", path)
	fmt.Fprintf(w, "  Location: %s\n", store.LocationKey(loc))
	fmt.Fprintf(w, "  Samples:  %d\n", st.Samples)
	if st.Samples > 0 {
		fmt.Fprintf(w, "  Range:    %s to %s\n", st.Range.Start.Format("2006-01-02 15:04"), st.Range.End.Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(w)
	for _, r := range rows {
		pct := 0.0
		if r.expected > 0 {
			pct = float64(r.samples) / float64(r.expected) * 100
		}
		fmt.Fprintf(w, "  %d  %5d / %d hours  (%5.1f%%)\n", r.year, r.samples, r.expected, pct)
	}
}
