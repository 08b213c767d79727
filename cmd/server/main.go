package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"pv_optimizer/internal/config"
	"pv_optimizer/internal/log"
	"pv_optimizer/internal/simulator"
	"pv_optimizer/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "plant config file (overrides PV_CONFIG)")
	frontendDir := flag.String("frontend-dir", "frontend/build", "directory containing frontend build")
	addr := flag.String("addr", "", "listen address (overrides config)")
	clearSky := flag.Bool("clear-sky", false, "synthesize clear-sky years instead of fetching weather")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	hub := ws.NewHub()
	bridge := ws.NewBridge(hub)

	var sources simulator.SourceFactory
	if !*clearSky {
		factory, closeCache, err := cfg.WeatherSources(context.Background())
		if err != nil {
			log.Fatalf("Failed to open weather sources: %v", err)
		}
		defer closeCache()
		sources = factory
	}

	engine, err := newEngine(cfg, bridge, sources)
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}
	p := engine.Plant()
	log.Infow("plant loaded", "name", p.Name, "latitude", p.Location.Latitude, "longitude", p.Location.Longitude, "years", cfg.Years())

	router := ws.NewRouter(hub, engine)
	serveFrontend(router, *frontendDir)

	listen := cfg.Server.Address
	if *addr != "" {
		listen = *addr
	}
	srv := &http.Server{Addr: listen, Handler: router}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Infof("Shutting down")
		engine.Cancel()
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnf("shutdown: %v", err)
		}
	}()

	log.Infof("Starting server on %s", listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
	engine.Wait()
}

// newEngine builds an engine for the configured plant, search grid and years.
func newEngine(cfg *config.Config, cb simulator.Callback, sources simulator.SourceFactory) (*simulator.Engine, error) {
	engine := simulator.New(cb, sources)
	if err := engine.SetPlant(cfg.Plant()); err != nil {
		return nil, err
	}
	if err := engine.SetSearch(cfg.Search); err != nil {
		return nil, err
	}
	engine.SetCalculator(cfg.Calculator())
	engine.SetYears(cfg.Years())
	return engine, nil
}

func serveFrontend(router *mux.Router, dir string) {
	if _, err := os.Stat(dir); err != nil {
		return
	}
	log.Infof("Serving frontend from %s", dir)
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(dir)))
}
