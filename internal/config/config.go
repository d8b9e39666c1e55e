// Package config holds the explicit runtime configuration for hostcarbon.
// Every component receives the values it needs at construction; nothing in
// the service reads ambient state after startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultSecondsInOneYear is the amortization year length used for
	// embedded-impact pro-ration.
	DefaultSecondsInOneYear = 31536000

	// DefaultLifetimeYears is the hardware lifetime assumption when the
	// request does not override it.
	DefaultLifetimeYears = 5.0
)

// Config is the full runtime configuration.
//
// Sources are merged in order: built-in defaults, then an optional YAML file,
// then a .env file (best effort), then environment variables. Later sources
// win.
type Config struct {
	// ListenAddr is the HTTP listen address, e.g. ":8000".
	ListenAddr string `yaml:"listen_addr"`

	// SecondsInOneYear is the denominator base for lifetime amortization.
	SecondsInOneYear float64 `yaml:"seconds_in_one_year"`

	// DefaultLifetime is the hardware lifetime in years used when a query
	// does not provide one.
	DefaultLifetime float64 `yaml:"default_lifetime"`

	// HardwareFilePath is where the hardware collector writes (and the
	// service reads) the inventory snapshot.
	HardwareFilePath string `yaml:"hardware_file_path"`

	// PowerFilePath is the power-sample file written by the external
	// power-sampling collector.
	PowerFilePath string `yaml:"power_file_path"`

	// HardwareCLI is the hardware collector command, invoked as
	// "<cli> --output-file <HardwareFilePath>".
	HardwareCLI string `yaml:"hardware_cli"`

	// ImpactEndpoint is the base URL of the impact-estimation service.
	ImpactEndpoint string `yaml:"impact_endpoint"`

	// CarbonAwareAPIEndpoint and CarbonAwareAPIToken configure the grid
	// carbon-intensity forecast source used by /update.
	CarbonAwareAPIEndpoint string `yaml:"carbon_aware_api_endpoint"`
	CarbonAwareAPIToken    string `yaml:"carbon_aware_api_token"`

	// HTTPTimeout bounds outbound calls to the impact service.
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// AssetsPath optionally overrides the embedded web assets with an
	// on-disk directory. Empty means serve the bundled assets.
	AssetsPath string `yaml:"assets_path"`

	// CORSAllowedOrigins lists origins allowed on the HTTP surface.
	// Empty means same-origin only.
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	// Influx connection for the persisted-metric store backing /update
	// and /csv. An empty URL selects the in-memory store.
	InfluxURL    string `yaml:"influx_url"`
	InfluxToken  string `yaml:"influx_token"`
	InfluxOrg    string `yaml:"influx_org"`
	InfluxBucket string `yaml:"influx_bucket"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:       ":8000",
		SecondsInOneYear: DefaultSecondsInOneYear,
		DefaultLifetime:  DefaultLifetimeYears,
		HardwareFilePath: "hardware_data.json",
		PowerFilePath:    "power_data.json",
		HardwareCLI:      "hostcarbon-hardware",
		ImpactEndpoint:   "http://localhost:5000",
		HTTPTimeout:      30 * time.Second,
		InfluxBucket:     "hostcarbon",
		InfluxOrg:        "hostcarbon",
	}
}

// Load builds the configuration from defaults, an optional YAML file, a .env
// file and the process environment. A missing YAML or .env file is not an
// error; a malformed YAML file is.
func Load(path string, logger zerolog.Logger) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			logger.Debug().Str("path", path).Msg("config file not found, using defaults")
		case err != nil:
			return Config{}, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	// .env is a convenience for local runs; absence is the normal case.
	if err := godotenv.Load(); err == nil {
		logger.Debug().Msg("loaded .env file")
	}

	cfg.applyEnv(logger)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays HOSTCARBON_* environment variables. Invalid numeric or
// duration values keep the previous value and log a warning.
func (c *Config) applyEnv(logger zerolog.Logger) {
	if v := os.Getenv("HOSTCARBON_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("HOSTCARBON_SECONDS_IN_ONE_YEAR"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.SecondsInOneYear = parsed
		} else {
			logger.Warn().Str("value", v).Msg("invalid HOSTCARBON_SECONDS_IN_ONE_YEAR, keeping previous value")
		}
	}
	if v := os.Getenv("HOSTCARBON_DEFAULT_LIFETIME"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.DefaultLifetime = parsed
		} else {
			logger.Warn().Str("value", v).Msg("invalid HOSTCARBON_DEFAULT_LIFETIME, keeping previous value")
		}
	}
	if v := os.Getenv("HOSTCARBON_HARDWARE_FILE_PATH"); v != "" {
		c.HardwareFilePath = v
	}
	if v := os.Getenv("HOSTCARBON_POWER_FILE_PATH"); v != "" {
		c.PowerFilePath = v
	}
	if v := os.Getenv("HOSTCARBON_HARDWARE_CLI"); v != "" {
		c.HardwareCLI = v
	}
	if v := os.Getenv("HOSTCARBON_IMPACT_ENDPOINT"); v != "" {
		c.ImpactEndpoint = v
	}
	if v := os.Getenv("HOSTCARBON_CARBON_AWARE_API_ENDPOINT"); v != "" {
		c.CarbonAwareAPIEndpoint = v
	}
	if v := os.Getenv("HOSTCARBON_CARBON_AWARE_API_TOKEN"); v != "" {
		c.CarbonAwareAPIToken = v
	}
	if v := os.Getenv("HOSTCARBON_HTTP_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			c.HTTPTimeout = parsed
		} else {
			logger.Warn().Str("value", v).Msg("invalid HOSTCARBON_HTTP_TIMEOUT, keeping previous value")
		}
	}
	if v := os.Getenv("HOSTCARBON_ASSETS_PATH"); v != "" {
		c.AssetsPath = v
	}
	if v := os.Getenv("HOSTCARBON_CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
		c.CORSAllowedOrigins = origins
	}
	if v := os.Getenv("HOSTCARBON_INFLUX_URL"); v != "" {
		c.InfluxURL = v
	}
	if v := os.Getenv("HOSTCARBON_INFLUX_TOKEN"); v != "" {
		c.InfluxToken = v
	}
	if v := os.Getenv("HOSTCARBON_INFLUX_ORG"); v != "" {
		c.InfluxOrg = v
	}
	if v := os.Getenv("HOSTCARBON_INFLUX_BUCKET"); v != "" {
		c.InfluxBucket = v
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.SecondsInOneYear <= 0 {
		return fmt.Errorf("seconds_in_one_year must be positive, got %v", c.SecondsInOneYear)
	}
	if c.DefaultLifetime <= 0 {
		return fmt.Errorf("default_lifetime must be positive, got %v", c.DefaultLifetime)
	}
	if c.HardwareFilePath == "" {
		return fmt.Errorf("hardware_file_path must not be empty")
	}
	if c.PowerFilePath == "" {
		return fmt.Errorf("power_file_path must not be empty")
	}
	if c.ImpactEndpoint == "" {
		return fmt.Errorf("impact_endpoint must not be empty")
	}
	return nil
}
