package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidate_Drivers(t *testing.T) {
	tests := []struct {
		name    string
		db      DatabaseConfig
		wantErr string
	}{
		{"mongo ok", DatabaseConfig{Driver: DriverMongo, URI: "mongodb://localhost:27017"}, ""},
		{"mongo without uri", DatabaseConfig{Driver: DriverMongo}, "database.uri is required"},
		{"redis ok", DatabaseConfig{Driver: DriverRedis, Addrs: []string{"localhost:6379"}}, ""},
		{"redis without addrs", DatabaseConfig{Driver: DriverRedis}, "database.addrs is required"},
		{"unknown driver", DatabaseConfig{Driver: "valkey", URI: "x"}, "database.driver must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{HTTP: HTTPConfig{Port: 8080}, Database: tt.db}
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 70000},
		Database: DatabaseConfig{Driver: DriverMongo, URI: "mongodb://localhost"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.Driver != DriverMongo {
		t.Errorf("expected Driver=mongo, got %q", cfg.Database.Driver)
	}
	if cfg.Database.Name != "sample_mflix" {
		t.Errorf("expected Name=sample_mflix, got %q", cfg.Database.Name)
	}
	if cfg.Database.Collection != "movies" {
		t.Errorf("expected Collection=movies, got %q", cfg.Database.Collection)
	}
	if cfg.Database.KeyPrefix != "movie:" {
		t.Errorf("expected KeyPrefix='movie:', got %q", cfg.Database.KeyPrefix)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Index.Name != "" {
		t.Errorf("index name must stay empty, got %q", cfg.Index.Name)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 9000, ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{Driver: DriverRedis, Collection: "films", KeyPrefix: "film:", ReadinessTimeout: 15},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 9000 {
		t.Errorf("expected Port=9000, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.Driver != DriverRedis {
		t.Errorf("expected Driver=redis, got %q", cfg.Database.Driver)
	}
	if cfg.Database.Collection != "films" {
		t.Errorf("expected Collection=films, got %q", cfg.Database.Collection)
	}
	if cfg.Database.KeyPrefix != "film:" {
		t.Errorf("expected KeyPrefix='film:', got %q", cfg.Database.KeyPrefix)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("MOVIEIDX_TEST_URI", "mongodb://db:27017")

	cfg, err := Parse([]byte(`
database:
  uri: ${MOVIEIDX_TEST_URI}
  name: ${MOVIEIDX_TEST_DB:-catalog}
index:
  default_language: ${MOVIEIDX_TEST_LANG:-english}
ledger:
  path: ${MOVIEIDX_TEST_LEDGER}
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Database.URI != "mongodb://db:27017" {
		t.Errorf("uri = %q", cfg.Database.URI)
	}
	if cfg.Database.Name != "catalog" {
		t.Errorf("name = %q", cfg.Database.Name)
	}
	if cfg.Index.DefaultLanguage != "english" {
		t.Errorf("default_language = %q", cfg.Index.DefaultLanguage)
	}
	if cfg.Ledger.Path != "" {
		t.Errorf("ledger path = %q", cfg.Ledger.Path)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected yaml error")
	}
	if _, err := Parse([]byte("database:\n  driver: mongo\n")); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	data := "http:\n  port: 9090\ndatabase:\n  uri: mongodb://localhost:27017\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("load local: %v", err)
	}
	if cfg.Database.Collection != "movies" {
		t.Errorf("collection = %q", cfg.Database.Collection)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("default env = %q", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("env = %q", got)
	}
}
