package config_test

import (
	"strings"
	"testing"

	"github.com/encinapp/encinapp/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("encinapp-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend.BaseURL != "http://192.168.58.111:3000/api" {
		t.Errorf("unexpected backend url %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutDuration().Seconds() != 5 {
		t.Errorf("unexpected backend timeout %v", cfg.Backend.TimeoutDuration())
	}
	if cfg.Telemetry.ServiceName != "encinapp-test" {
		t.Errorf("unexpected service name %q", cfg.Telemetry.ServiceName)
	}
	if cfg.Server.RouteTimeout != 15 {
		t.Errorf("unexpected route timeout %d", cfg.Server.RouteTimeout)
	}
	if cfg.Watcher.IntervalDuration().Seconds() != 30 {
		t.Errorf("unexpected watcher interval %v", cfg.Watcher.IntervalDuration())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENCINAPP_BACKEND_BASE_URL", "https://api.example.org/api")
	t.Setenv("ENCINAPP_SERVER_PORT", "9090")
	t.Setenv("ENCINAPP_LOCATION_SOURCE", "static")
	t.Setenv("ENCINAPP_LOCATION_LATITUDE", "-38.7359")

	cfg, err := config.Load("encinapp-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend.BaseURL != "https://api.example.org/api" || cfg.Server.Port != 9090 {
		t.Errorf("env overrides not applied: %+v %+v", cfg.Backend, cfg.Server)
	}
	if cfg.Location.Source != "static" || cfg.Location.Latitude != -38.7359 {
		t.Errorf("unexpected location config %+v", cfg.Location)
	}
}

func TestValidate(t *testing.T) {
	cfg := config.Config{
		Server:   config.ServerConfig{Port: 0, ReadTimeout: 10, WriteTimeout: 10, RouteTimeout: 15},
		Backend:  config.BackendConfig{BaseURL: "not a url", Timeout: 5},
		Location: config.LocationConfig{Source: "gps"},
		Database: config.DatabaseConfig{Enabled: true, Port: 5432},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "backend.base_url", "location.source", "database.host", "database.user", "watcher.interval"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestDSN(t *testing.T) {
	d := config.DatabaseConfig{Host: "db", Port: 5432, User: "encinapp", Password: "p@ss", DBName: "encinapp", SSLMode: "disable"}
	if got, want := d.DSN(), "postgres://encinapp:p%40ss@db:5432/encinapp?sslmode=disable"; got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
