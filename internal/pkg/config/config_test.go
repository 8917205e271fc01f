package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("surveyplan-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Telemetry.ServiceName != "surveyplan-test" {
		t.Errorf("expected service name surveyplan-test, got %s", cfg.Telemetry.ServiceName)
	}
	if cfg.Planner.MaxTiles != 250000 {
		t.Errorf("expected max_tiles 250000, got %d", cfg.Planner.MaxTiles)
	}
	if cfg.Temporal.TaskQueue != "survey-plans" {
		t.Errorf("expected task queue survey-plans, got %s", cfg.Temporal.TaskQueue)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SURVEYPLAN_DATABASE_HOST", "db.internal")
	t.Setenv("SURVEYPLAN_PLANNER_MAX_TILES", "1000")

	cfg, err := Load("surveyplan-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("expected db.internal, got %s", cfg.Database.Host)
	}
	if cfg.Planner.MaxTiles != 1000 {
		t.Errorf("expected 1000, got %d", cfg.Planner.MaxTiles)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 0, ReadTimeout: 10, WriteTimeout: 10},
		Planner: PlannerConfig{MaxTiles: 0},
		Logging: LoggingConfig{Format: "xml"},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "database.host", "nats.url", "database.max_conns", "planner.max_tiles", "logging.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got:\n%s", want, err)
		}
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 5433, User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	if got, want := d.DSN(), "postgres://u:p@h:5433/n?sslmode=disable"; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
