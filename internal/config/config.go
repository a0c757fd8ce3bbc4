package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	GeoPath  string      `yaml:"geo_path"`
	DataPath string      `yaml:"data_path"`
	Port     string      `yaml:"port"`
	Map      MapConfig   `yaml:"map"`
	Color    ColorConfig `yaml:"color"`
	Fetch    FetchConfig `yaml:"fetch"`
}

// MapConfig sizes the viewport and the projection inside it.
type MapConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Scale  float64 `yaml:"scale"`
}

// ColorConfig is the fixed domain of the sequential color scale.
type ColorConfig struct {
	DomainMin float64 `yaml:"domain_min"`
	DomainMax float64 `yaml:"domain_max"`
}

// FetchConfig applies to http(s) data sources only.
type FetchConfig struct {
	MaxRetries uint64        `yaml:"max_retries"`
	Timeout    time.Duration `yaml:"timeout"`
}

func Default() Config {
	return Config{
		GeoPath:  "GZ2.geojson",
		DataPath: "healthcare_data.csv",
		Port:     "8080",
		Map:      MapConfig{Width: 960, Height: 600, Scale: 1000},
		Color:    ColorConfig{DomainMin: 1000, DomainMax: 65000},
		Fetch:    FetchConfig{MaxRetries: 0, Timeout: 30 * time.Second},
	}
}

// Load reads the optional YAML file at path over the defaults, then applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("GEO_PATH"); v != "" {
		c.GeoPath = v
	}
	if v := os.Getenv("DATA_PATH"); v != "" {
		c.DataPath = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("FETCH_MAX_RETRIES"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("FETCH_MAX_RETRIES: %w", err)
		}
		c.Fetch.MaxRetries = n
	}
	return nil
}

func (c Config) Validate() error {
	if c.GeoPath == "" || c.DataPath == "" {
		return fmt.Errorf("geo_path and data_path are required")
	}
	if c.Map.Width <= 0 || c.Map.Height <= 0 || c.Map.Scale <= 0 {
		return fmt.Errorf("map width, height and scale must be positive")
	}
	if c.Color.DomainMax <= c.Color.DomainMin {
		return fmt.Errorf("color domain_max must exceed domain_min")
	}
	return nil
}
