// Package config provides Viper-based configuration loading for the holdout server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// GameServerConfig holds process-level game server settings.
type GameServerConfig struct {
	// GRPCHost is the bind address for the gRPC health endpoint.
	GRPCHost string `mapstructure:"grpc_host"`
	// GRPCPort is the TCP port for the gRPC health endpoint; 0 disables it.
	GRPCPort int `mapstructure:"grpc_port"`
	// TickIntervalMs is the simulation tick period in milliseconds.
	TickIntervalMs int `mapstructure:"tick_interval_ms"`
}

// Addr returns the "host:port" gRPC address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (g GameServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.GRPCHost, g.GRPCPort)
}

// TickInterval returns the tick period as a duration.
func (g GameServerConfig) TickInterval() time.Duration {
	return time.Duration(g.TickIntervalMs) * time.Millisecond
}

// Storage backends for wave history.
const (
	StorageNone     = "none"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// SessionConfig describes the combat session hosted by this process.
type SessionConfig struct {
	// WavesFile is the YAML wave schedule, including the arena layout.
	WavesFile string `mapstructure:"waves_file"`
	// EnemiesDir holds one YAML enemy template per file.
	EnemiesDir string `mapstructure:"enemies_dir"`
	// ScriptsDir holds Lua wave hooks; empty disables scripting.
	ScriptsDir string `mapstructure:"scripts_dir"`
	// JournalFile receives one JSON line per session event; empty disables the journal.
	JournalFile string `mapstructure:"journal_file"`
	// StartWave is the zero-based index of the first wave.
	StartWave int `mapstructure:"start_wave"`
	// Resume starts after the last wave recorded as cleared, overriding StartWave.
	Resume bool `mapstructure:"resume"`
	// MinPlayers is the number of spawned participants required before a wave launches.
	MinPlayers int `mapstructure:"min_players"`
	// ShopDurationMs auto-closes the shop after this many milliseconds; 0 keeps it open
	// until closed explicitly.
	ShopDurationMs int `mapstructure:"shop_duration_ms"`
	// Storage selects the wave history backend: "none", "sqlite", or "postgres".
	Storage string `mapstructure:"storage"`
	// SQLitePath is the database file used when Storage is "sqlite".
	SQLitePath string `mapstructure:"sqlite_path"`
	// SparringBots is the number of headless bot participants; 0 disables sparring.
	SparringBots int `mapstructure:"sparring_bots"`
	// SparringDamage is the damage each bot deals per tick.
	SparringDamage float64 `mapstructure:"sparring_damage"`
}

// ShopDuration returns the shop auto-close delay.
func (s SessionConfig) ShopDuration() time.Duration {
	return time.Duration(s.ShopDurationMs) * time.Millisecond
}

// TracingConfig holds OpenTelemetry exporter settings.
type TracingConfig struct {
	// Endpoint is the OTLP/HTTP collector host:port; empty disables tracing.
	Endpoint string `mapstructure:"endpoint"`
	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `mapstructure:"service_name"`
	// Insecure disables TLS to the collector.
	Insecure bool `mapstructure:"insecure"`
}

// Config is the top-level application configuration.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	GameServer GameServerConfig `mapstructure:"gameserver"`
	Session    SessionConfig    `mapstructure:"session"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if c.Session.Storage == StoragePostgres {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGameServer(c.GameServer); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSession(c.Session); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateTracing(c.Tracing); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGameServer(g GameServerConfig) error {
	var errs []string
	if g.GRPCHost == "" {
		errs = append(errs, "gameserver.grpc_host must not be empty")
	}
	if g.GRPCPort < 0 || g.GRPCPort > 65535 {
		errs = append(errs, fmt.Sprintf("gameserver.grpc_port must be 0-65535, got %d", g.GRPCPort))
	}
	if g.TickIntervalMs < 1 {
		errs = append(errs, fmt.Sprintf("gameserver.tick_interval_ms must be >= 1 (got %d)", g.TickIntervalMs))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateSession(s SessionConfig) error {
	var errs []string
	if s.WavesFile == "" {
		errs = append(errs, "session.waves_file must not be empty")
	}
	if s.EnemiesDir == "" {
		errs = append(errs, "session.enemies_dir must not be empty")
	}
	if s.StartWave < 0 {
		errs = append(errs, fmt.Sprintf("session.start_wave must be >= 0, got %d", s.StartWave))
	}
	if s.MinPlayers < 1 {
		errs = append(errs, fmt.Sprintf("session.min_players must be >= 1, got %d", s.MinPlayers))
	}
	if s.ShopDurationMs < 0 {
		errs = append(errs, fmt.Sprintf("session.shop_duration_ms must be >= 0, got %d", s.ShopDurationMs))
	}
	validStorage := map[string]bool{StorageNone: true, StorageSQLite: true, StoragePostgres: true}
	if !validStorage[s.Storage] {
		errs = append(errs, fmt.Sprintf("session.storage must be one of [none, sqlite, postgres], got %q", s.Storage))
	}
	if s.Storage == StorageSQLite && s.SQLitePath == "" {
		errs = append(errs, "session.sqlite_path must not be empty when session.storage is sqlite")
	}
	if s.Resume && s.Storage == StorageNone {
		errs = append(errs, "session.resume requires a storage backend")
	}
	if s.SparringBots < 0 {
		errs = append(errs, fmt.Sprintf("session.sparring_bots must be >= 0, got %d", s.SparringBots))
	}
	if s.SparringDamage < 0 {
		errs = append(errs, fmt.Sprintf("session.sparring_damage must be >= 0, got %v", s.SparringDamage))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTracing(t TracingConfig) error {
	if t.Endpoint != "" && t.ServiceName == "" {
		return fmt.Errorf("tracing.service_name must not be empty when tracing.endpoint is set")
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with HOLDOUT_ prefix
	v.SetEnvPrefix("HOLDOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "holdout")
	v.SetDefault("database.password", "holdout")
	v.SetDefault("database.name", "holdout")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("gameserver.grpc_host", "127.0.0.1")
	v.SetDefault("gameserver.grpc_port", 50051)
	v.SetDefault("gameserver.tick_interval_ms", 100)

	v.SetDefault("session.waves_file", "content/waves.yaml")
	v.SetDefault("session.enemies_dir", "content/enemies")
	v.SetDefault("session.scripts_dir", "")
	v.SetDefault("session.journal_file", "")
	v.SetDefault("session.start_wave", 0)
	v.SetDefault("session.resume", false)
	v.SetDefault("session.min_players", 1)
	v.SetDefault("session.shop_duration_ms", 5000)
	v.SetDefault("session.storage", StorageNone)
	v.SetDefault("session.sqlite_path", "holdout.db")
	v.SetDefault("session.sparring_bots", 0)
	v.SetDefault("session.sparring_damage", 10.0)

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "holdout")
	v.SetDefault("tracing.insecure", true)
}
