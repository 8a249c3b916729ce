package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envFrom(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entradas.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, envFrom(nil))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr != ":3000" {
		t.Errorf("Expected default addr :3000, got %s", cfg.Addr)
	}
	if cfg.Database.Driver != "sqlite3" || cfg.Database.DSN != "database.db" {
		t.Errorf("Unexpected default database %+v", cfg.Database)
	}
	if !cfg.Marketplace.AllowSelfPurchase {
		t.Error("Expected self purchase to be allowed by default")
	}
	if cfg.Debug {
		t.Error("Expected debug routes to be off by default")
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
addr: ":8080"
static_dir: public
database:
  driver: postgres
  dsn: "user=entradas dbname=entradas sslmode=disable"
log:
  level: debug
  format: json
cors:
  allowed_origins: ["https://entradas.example.com"]
marketplace:
  allow_self_purchase: false
shutdown_timeout: 30s
`)

	cfg, err := Load([]string{"--config", path}, envFrom(nil))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.StaticDir != "public" {
		t.Errorf("Unexpected server settings %+v", cfg)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Expected postgres driver, got %s", cfg.Database.Driver)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Unexpected log settings %+v", cfg.Log)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://entradas.example.com" {
		t.Errorf("Unexpected CORS origins %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Marketplace.AllowSelfPurchase {
		t.Error("Expected self purchase to be disabled by the file")
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected 30s shutdown timeout, got %v", cfg.ShutdownTimeout)
	}
	// Untouched keys keep their defaults.
	if cfg.IndexFile != "entradas.html" {
		t.Errorf("Expected default index file, got %s", cfg.IndexFile)
	}
}

func TestLoadFileFromEnv(t *testing.T) {
	path := writeConfig(t, "addr: \":9000\"\n")

	cfg, err := Load(nil, envFrom(map[string]string{"ENTRADAS_CONFIG": path}))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("Expected addr from ENTRADAS_CONFIG file, got %s", cfg.Addr)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, "addr: \":8080\"\ndatabase:\n  dsn: file.db\n")
	env := envFrom(map[string]string{
		"PORT":            "4000",
		"ENTRADAS_DB_DSN": "env.db",
	})

	cfg, err := Load([]string{"--config", path, "--db-dsn", "flag.db"}, env)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr != ":4000" {
		t.Errorf("Expected PORT to override the file, got %s", cfg.Addr)
	}
	if cfg.Database.DSN != "flag.db" {
		t.Errorf("Expected flag to override env, got %s", cfg.Database.DSN)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		content string
		want    string
	}{
		{"unknown driver", []string{"--db-driver", "mysql"}, "", "database.driver"},
		{"bad log level", []string{"--log-level", "verbose"}, "", "log.level"},
		{"bad log format", []string{"--log-format", "xml"}, "", "log.format"},
		{"unknown key", nil, "adress: \":80\"\n", "adress"},
		{"unknown flag", []string{"--port", "80"}, "", "port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			if tt.content != "" {
				args = append([]string{"--config", writeConfig(t, tt.content)}, args...)
			}
			_, err := Load(args, envFrom(nil))
			if err == nil {
				t.Fatal("Expected an error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, envFrom(nil))
	if err == nil {
		t.Error("Expected error for a missing config file")
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load([]string{"--config", writeConfig(t, "")}, envFrom(nil))
	if err != nil {
		t.Fatalf("Expected an empty file to be accepted, got %v", err)
	}
	if cfg.Addr != ":3000" {
		t.Errorf("Expected defaults from an empty file, got %s", cfg.Addr)
	}
}
