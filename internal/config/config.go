package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by MustLoad.
const EnvPrefix = "PAPERROUTE"

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the configuration of the route tracker.
//
// Fields:
// - Env: The current environment (local, development, production).
// - Port: The port of the HTTP API and monitoring server.
// - Store: Which store to use and how to reach it.
// - RouteSource: URL or file path of the route document.
// - Provider: The geocoding provider settings.
// - Geocode: Query country, lookup spacing and timeouts.
// - Offline: Forces offline mode; no network calls are made.
// - ProbeURL: URL probed to detect connectivity.
// - RefreshSchedule: Cron spec for scheduled refreshes, disabled when empty.
// - RefreshRate: Minimum time between two manual refreshes.
// - AllowedOrigins: CORS origins of the HTTP API.
type Config struct {
	Env             string
	Port            int
	Store           StoreConfig
	RouteSource     string
	Provider        ProviderConfig
	Geocode         GeocodeConfig
	Offline         bool
	ProbeURL        string
	RefreshSchedule string
	RefreshRate     time.Duration
	AllowedOrigins  []string
}

// StoreConfig selects the persistent store.
type StoreConfig struct {
	Driver     string         // Driver is either sqlite or postgres.
	SQLitePath string         // SQLitePath is the database file of the sqlite driver.
	Database   PostgresConfig // Database holds the postgres database configuration.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// ProviderConfig selects the geocoding provider.
type ProviderConfig struct {
	Type      string // Type is nominatim or google.
	APIKey    string // APIKey is required for Google.
	BaseURL   string // BaseURL points at a self-hosted Nominatim.
	UserAgent string // UserAgent identifies the application to Nominatim.
}

// GeocodeConfig tunes address resolution.
type GeocodeConfig struct {
	Country        string
	Region         string        // Region is the ccTLD bias passed to Google.
	Interval       time.Duration // Interval is the minimum delay between provider lookups.
	RequestTimeout time.Duration // RequestTimeout bounds every network call.
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "production")
	v.SetDefault("port", "8080")
	v.SetDefault("store_driver", DriverSQLite)
	v.SetDefault("sqlite_path", "paperroute.db")
	v.SetDefault("db_host", "")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_username", "")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "")
	v.SetDefault("route_source", "sample.json")
	v.SetDefault("provider_type", "nominatim")
	v.SetDefault("provider_key", "")
	v.SetDefault("provider_url", "")
	v.SetDefault("provider_user_agent", "")
	v.SetDefault("geocode_country", "Netherlands")
	v.SetDefault("geocode_region", "nl")
	v.SetDefault("geocode_interval", "1s")
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("offline", "false")
	v.SetDefault("probe_url", "https://nominatim.openstreetmap.org/status")
	v.SetDefault("refresh_schedule", "")
	v.SetDefault("refresh_rate", "5s")
	v.SetDefault("allowed_origins", "")
}

// MustLoad loads the configuration from the environment (and a .env file when present)
// using the global viper instance, so that command line flags bound to it take precedence.
func MustLoad() *Config {
	return MustLoadFrom(viper.GetViper())
}

// MustLoadFrom loads the configuration through v. It panics on values that cannot be parsed.
func MustLoadFrom(v *viper.Viper) *Config {
	_ = godotenv.Load()

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	port, err := strconv.Atoi(v.GetString("port"))
	if err != nil {
		panic("failed to parse port for server from configuration")
	}

	interval, err := time.ParseDuration(v.GetString("geocode_interval"))
	if err != nil {
		panic("failed to parse geocode interval from configuration")
	}

	timeout, err := time.ParseDuration(v.GetString("request_timeout"))
	if err != nil {
		panic("failed to parse request timeout from configuration")
	}

	refreshRate, err := time.ParseDuration(v.GetString("refresh_rate"))
	if err != nil {
		panic("failed to parse refresh rate from configuration")
	}

	offline, err := strconv.ParseBool(v.GetString("offline"))
	if err != nil {
		panic("failed to parse offline flag from configuration, must be a boolean")
	}

	driver := strings.ToLower(v.GetString("store_driver"))
	if driver != DriverSQLite && driver != DriverPostgres {
		panic("unsupported store driver in configuration, must be sqlite or postgres")
	}

	return &Config{
		Env:  v.GetString("env"),
		Port: port,
		Store: StoreConfig{
			Driver:     driver,
			SQLitePath: v.GetString("sqlite_path"),
			Database: PostgresConfig{
				Host:     v.GetString("db_host"),
				Port:     v.GetString("db_port"),
				User:     v.GetString("db_username"),
				Password: v.GetString("db_password"),
				Name:     v.GetString("db_name"),
			},
		},
		RouteSource: v.GetString("route_source"),
		Provider: ProviderConfig{
			Type:      v.GetString("provider_type"),
			APIKey:    v.GetString("provider_key"),
			BaseURL:   v.GetString("provider_url"),
			UserAgent: v.GetString("provider_user_agent"),
		},
		Geocode: GeocodeConfig{
			Country:        v.GetString("geocode_country"),
			Region:         v.GetString("geocode_region"),
			Interval:       interval,
			RequestTimeout: timeout,
		},
		Offline:         offline,
		ProbeURL:        v.GetString("probe_url"),
		RefreshSchedule: v.GetString("refresh_schedule"),
		RefreshRate:     refreshRate,
		AllowedOrigins:  splitList(v.GetString("allowed_origins")),
	}
}

func splitList(value string) []string {
	var out []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}
