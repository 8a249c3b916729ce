// Package config loads the server configuration.
//
// Values are layered, later layers winning: built-in defaults, an optional
// YAML file (--config or ENTRADAS_CONFIG), environment variables, and
// finally command-line flags that were explicitly set.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`

	// StaticDir holds the frontend; IndexFile is served for "/".
	StaticDir string `yaml:"static_dir"`
	IndexFile string `yaml:"index_file"`

	// Debug enables the /api/debug routes.
	Debug bool `yaml:"debug"`

	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`

	Database    DatabaseConfig    `yaml:"database"`
	Session     SessionConfig     `yaml:"session"`
	Log         LogConfig         `yaml:"log"`
	CORS        CORSConfig        `yaml:"cors"`
	Marketplace MarketplaceConfig `yaml:"marketplace"`
}

type DatabaseConfig struct {
	// Driver is "sqlite3" or "postgres".
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type SessionConfig struct {
	// Secret signs session cookies. When empty a random secret is
	// generated at startup and sessions do not survive a restart.
	Secret string `yaml:"secret"`
	Secure bool   `yaml:"secure"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type MarketplaceConfig struct {
	AllowSelfPurchase bool `yaml:"allow_self_purchase"`
}

func Default() *Config {
	return &Config{
		Addr:              ":3000",
		StaticDir:         "frontend",
		IndexFile:         "entradas.html",
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   15 * time.Second,
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "database.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Marketplace: MarketplaceConfig{
			AllowSelfPurchase: true,
		},
	}
}

// Load builds the configuration from args (without the program name) and
// the environment looked up through getenv.
func Load(args []string, getenv func(string) string) (*Config, error) {
	fs := pflag.NewFlagSet("entradas", pflag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	addr := fs.String("addr", "", "http service address")
	dbDriver := fs.String("db-driver", "", "database driver (sqlite3 or postgres)")
	dbDSN := fs.String("db-dsn", "", "database data source name")
	staticDir := fs.String("static-dir", "", "directory with the frontend files")
	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "log format (text, json)")
	debug := fs.Bool("debug", false, "enable debug routes")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()

	path := *configPath
	if path == "" {
		path = getenv("ENTRADAS_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv(getenv)

	if fs.Changed("addr") {
		cfg.Addr = *addr
	}
	if fs.Changed("db-driver") {
		cfg.Database.Driver = *dbDriver
	}
	if fs.Changed("db-dsn") {
		cfg.Database.DSN = *dbDSN
	}
	if fs.Changed("static-dir") {
		cfg.StaticDir = *staticDir
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = *logLevel
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = *logFormat
	}
	if fs.Changed("debug") {
		cfg.Debug = *debug
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if port := getenv("PORT"); port != "" {
		c.Addr = ":" + port
	}
	if v := getenv("ENTRADAS_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := getenv("ENTRADAS_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := getenv("ENTRADAS_SESSION_SECRET"); v != "" {
		c.Session.Secret = v
	}
	if v := getenv("ENTRADAS_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}
	return errors.Join(errs...)
}
