// Package config loads DropRoute runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/droproute/droproute/internal/geo"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// ErrInvalid is returned when a setting has an unusable value.
var ErrInvalid = errors.New("invalid configuration")

// Config holds runtime settings shared by the API and the worker.
type Config struct {
	Port string
	Env  string

	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool

	OTelEnabled     bool
	OTLPEndpoint    string
	OTelSampleRatio float64

	// OpenRouteService.
	ORSAPIKey    string
	ORSBaseURL   string
	ORSCountry   string
	RouteProfile string

	// SnapRadiusMeters lets the directions provider move a waypoint onto
	// the road network. Zero keeps the provider default.
	SnapRadiusMeters float64

	// ProviderTimeout bounds a single provider HTTP call.
	ProviderTimeout time.Duration
	// ProviderMaxRetries is 0 unless explicitly configured.
	ProviderMaxRetries uint64

	// BiasCenter and BiasSpanMeters describe the region geocoding is biased toward.
	BiasCenter     geo.Coordinate
	BiasSpanMeters float64

	// Concurrency caps in-flight provider calls per planning step.
	Concurrency int

	StoreDriver    string
	SeedDeliveries bool

	PubSubProject      string
	PubSubSubscription string

	SessionIdleTTL       time.Duration
	SessionSweepInterval time.Duration
}

// Bias returns the geocoding bias region.
func (c Config) Bias() geo.Region {
	return geo.RegionAround(c.BiasCenter, c.BiasSpanMeters, c.BiasSpanMeters)
}

// Load reads envFile into the process environment when it exists and then
// builds a Config from the environment. A missing file is not an error.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables with defaults.
func FromEnv() (Config, error) {
	var errs []error
	p := parser{errs: &errs}

	cfg := Config{
		Port:         getEnvOrDefault("APP_PORT", "8080"),
		Env:          getEnvOrDefault("APP_ENV", "development"),
		RequireTLS:   p.bool("REQUIRE_TLS", false),
		OTelEnabled:  p.bool("OTEL_ENABLED", false),
		OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		OTelSampleRatio: p.float("OTEL_SAMPLE_RATIO", 1),

		ORSAPIKey:    os.Getenv("ORS_API_KEY"),
		ORSBaseURL:   getEnvOrDefault("ORS_BASE_URL", "https://api.openrouteservice.org"),
		ORSCountry:   getEnvOrDefault("ORS_BOUNDARY_COUNTRY", "US"),
		RouteProfile: getEnvOrDefault("ROUTE_PROFILE", "driving-car"),

		SnapRadiusMeters: p.float("ROUTE_SNAP_RADIUS_METERS", 0),

		ProviderTimeout:    p.duration("PROVIDER_TIMEOUT", 10*time.Second),
		ProviderMaxRetries: p.uint("PROVIDER_MAX_RETRIES", 0),

		BiasCenter: geo.Coordinate{
			Lat: p.float("GEOCODE_BIAS_LAT", 41.87747),
			Lon: p.float("GEOCODE_BIAS_LON", -87.62721),
		},
		BiasSpanMeters: p.float("GEOCODE_BIAS_SPAN_METERS", 500),

		Concurrency: p.int("PLANNER_CONCURRENCY", 4),

		StoreDriver:    strings.ToLower(getEnvOrDefault("STORE_DRIVER", StoreMemory)),
		SeedDeliveries: p.bool("SEED_DELIVERIES", true),

		PubSubProject:      os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubSubscription: getEnvOrDefault("PUBSUB_SUBSCRIPTION", "order-created"),

		SessionIdleTTL:       p.duration("SESSION_IDLE_TTL", 30*time.Minute),
		SessionSweepInterval: p.duration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	if c.StoreDriver != StoreMemory && c.StoreDriver != StorePostgres {
		errs = append(errs, fmt.Errorf("%w: STORE_DRIVER must be %q or %q, got %q", ErrInvalid, StoreMemory, StorePostgres, c.StoreDriver))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("%w: PLANNER_CONCURRENCY must be at least 1", ErrInvalid))
	}
	if c.OTelSampleRatio <= 0 || c.OTelSampleRatio > 1 {
		errs = append(errs, fmt.Errorf("%w: OTEL_SAMPLE_RATIO must be within (0, 1]", ErrInvalid))
	}
	if c.SnapRadiusMeters < 0 {
		errs = append(errs, fmt.Errorf("%w: ROUTE_SNAP_RADIUS_METERS must not be negative", ErrInvalid))
	}
	if c.BiasSpanMeters <= 0 {
		errs = append(errs, fmt.Errorf("%w: GEOCODE_BIAS_SPAN_METERS must be positive", ErrInvalid))
	}
	if err := c.BiasCenter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: bias center: %w", ErrInvalid, err))
	}
	return errors.Join(errs...)
}

type parser struct {
	errs *[]error
}

func (p parser) fail(key, value string, err error) {
	*p.errs = append(*p.errs, fmt.Errorf("%w: %s=%q: %w", ErrInvalid, key, value, err))
}

func (p parser) int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p parser) uint(key string, def uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p parser) float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return f
}

func (p parser) bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}

func (p parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
