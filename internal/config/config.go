// Package config loads the plant description and runtime settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"pv_optimizer/internal/model"
	"pv_optimizer/internal/openmeteo"
	"pv_optimizer/internal/optimizer"
)

// EnvConfigPath names the file to load when no path is given.
const EnvConfigPath = "PV_CONFIG"

// Config aggregates the plant and every runtime setting.
type Config struct {
	Name        string                 `yaml:"name"`
	Location    model.Location         `yaml:"location"`
	Orientation model.PanelOrientation `yaml:"orientation"`
	System      model.SystemParameters `yaml:"system"`
	Shading     *model.ShadingProfile  `yaml:"shading"`
	Economics   model.Economics        `yaml:"economics"`
	Search      optimizer.SearchSpec   `yaml:"search"`
	Weather     WeatherConfig          `yaml:"weather"`
	Server      ServerConfig           `yaml:"server"`
}

// WeatherConfig controls where samples come from.
type WeatherConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	Retries   int           `yaml:"retries"`
	CachePath string        `yaml:"cache_path"`
	// Calculator is "simple" or "ephemeris".
	Calculator string `yaml:"calculator"`
	FirstYear  int    `yaml:"first_year"`
	LastYear   int    `yaml:"last_year"`
}

type ServerConfig struct {
	Address string `yaml:"address"`
}

// Default returns a 5 kWp south-facing plant in Warsaw analyzed over the
// three most recent complete years.
func Default() *Config {
	last := time.Now().UTC().Year() - 1
	return &Config{
		Name:        "default",
		Location:    model.Location{Latitude: 52.2297, Longitude: 21.0122},
		Orientation: model.PanelOrientation{Azimuth: 180, Tilt: 35},
		System: model.SystemParameters{
			CapacityW:          5000,
			PanelEfficiency:    0.2,
			DiffuseEfficiency:  0.9,
			InverterLimitW:     5000,
			InverterEfficiency: 0.96,
			Albedo:             0.2,
		},
		Search: optimizer.DefaultSearchSpec(),
		Weather: WeatherConfig{
			BaseURL:    openmeteo.DefaultBaseURL,
			Timeout:    30 * time.Second,
			Retries:    4,
			CachePath:  "data/weather.db",
			Calculator: "simple",
			FirstYear:  last - 2,
			LastYear:   last,
		},
		Server: ServerConfig{Address: ":8080"},
	}
}

// Load reads path (or $PV_CONFIG when path is empty) over the defaults,
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.applyDerivedDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults without touching the environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDerivedDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	floats := []struct {
		key string
		dst *float64
	}{
		{"PV_LATITUDE", &cfg.Location.Latitude},
		{"PV_LONGITUDE", &cfg.Location.Longitude},
		{"PV_ELECTRICITY_RATE", &cfg.Economics.ElectricityRate},
	}
	for _, f := range floats {
		v := os.Getenv(f.key)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = parsed
	}
	if v := os.Getenv("PV_OPENMETEO_URL"); v != "" {
		cfg.Weather.BaseURL = v
	}
	if v := os.Getenv("PV_CACHE_PATH"); v != "" {
		cfg.Weather.CachePath = v
	}
	if v := os.Getenv("PV_LISTEN"); v != "" {
		cfg.Server.Address = v
	}
	return nil
}

// applyDerivedDefaults fills values that depend on other settings.
func (c *Config) applyDerivedDefaults() {
	if c.System.PanelArea == 0 {
		c.System.PanelArea = model.PanelAreaFor(c.System.CapacityW, c.System.PanelEfficiency)
	}
	if c.System.TempCoefficient == 0 {
		c.System.TempCoefficient = model.TemperatureCoefficientForLatitude(c.Location.Latitude)
	}
	if c.System.InverterLimitW == 0 {
		c.System.InverterLimitW = c.System.CapacityW
	}
}

// Validate checks the plant, the search grid and the analysis years.
func (c *Config) Validate() error {
	if err := c.Plant().Validate(); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
		return err
	}
	if c.Weather.FirstYear > c.Weather.LastYear {
		return fmt.Errorf("%w: weather.first_year %d is after last_year %d", model.ErrInvalidInput, c.Weather.FirstYear, c.Weather.LastYear)
	}
	switch c.Weather.Calculator {
	case "", "simple", "ephemeris":
	default:
		return fmt.Errorf("%w: unknown calculator %q", model.ErrInvalidInput, c.Weather.Calculator)
	}
	return nil
}

// Plant returns the configured installation.
func (c *Config) Plant() model.Plant {
	return model.Plant{
		Name:        c.Name,
		Location:    c.Location,
		Orientation: c.Orientation,
		System:      c.System,
		Shading:     c.Shading,
		Economics:   c.Economics,
	}
}

// Years returns the analysis years in order.
func (c *Config) Years() []int {
	var years []int
	for y := c.Weather.FirstYear; y <= c.Weather.LastYear; y++ {
		years = append(years, y)
	}
	return years
}

// OpenMeteo returns the HTTP client options for the weather provider.
func (c *Config) OpenMeteo() openmeteo.Options {
	opts := openmeteo.DefaultOptions()
	if c.Weather.BaseURL != "" {
		opts.BaseURL = c.Weather.BaseURL
	}
	if c.Weather.Timeout > 0 {
		opts.Timeout = c.Weather.Timeout
	}
	opts.Retries = c.Weather.Retries
	return opts
}
