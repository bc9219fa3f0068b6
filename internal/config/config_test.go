package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/username/bizcal/internal/calendar"
)

const sampleConfig = `
calendar:
  week_start: monday
  timezone: Pacific/Honolulu
source:
  type: http
  fallback_file: fallback.yaml
  http:
    endpoint: https://records.example.com
    token: ${BIZCAL_TEST_TOKEN}
    token_refresh: 30m
server:
  listen: 127.0.0.1:9000
export:
  schedule: "0 6 * * *"
  output: /tmp/crew.ics
  granularity: week
log:
  level: debug
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("BIZCAL_TEST_TOKEN", "s3cret")

	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Calendar.GetWeekStart() != time.Monday {
		t.Errorf("GetWeekStart() = %s, want Monday", cfg.Calendar.GetWeekStart())
	}
	if cfg.Calendar.GetLocation().String() != "Pacific/Honolulu" {
		t.Errorf("GetLocation() = %s", cfg.Calendar.GetLocation())
	}
	if cfg.Source.Type != SourceHTTP || cfg.Source.HTTP.Endpoint != "https://records.example.com" {
		t.Errorf("Source = %+v", cfg.Source)
	}
	if cfg.Source.HTTP.Token != "s3cret" {
		t.Errorf("Token = %q, want expanded env var", cfg.Source.HTTP.Token)
	}
	if cfg.Source.HTTP.GetTokenRefresh() != 30*time.Minute {
		t.Errorf("GetTokenRefresh() = %s", cfg.Source.HTTP.GetTokenRefresh())
	}
	if cfg.Export.GetGranularity() != calendar.GranularityWeek {
		t.Errorf("GetGranularity() = %s", cfg.Export.GetGranularity())
	}
	if cfg.Export.Name != "bizcal" {
		t.Errorf("Export.Name = %q, want default", cfg.Export.Name)
	}
	if cfg.Log.Level != "debug" || cfg.Server.Listen != "127.0.0.1:9000" {
		t.Errorf("Log/Server = %+v %+v", cfg.Log, cfg.Server)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BIZCAL_SERVER_LISTEN", ":7070")
	t.Setenv("BIZCAL_CALENDAR_WEEK_START", "sunday")

	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Listen != ":7070" {
		t.Errorf("Server.Listen = %q, want env override", cfg.Server.Listen)
	}
	if cfg.Calendar.GetWeekStart() != time.Sunday {
		t.Errorf("GetWeekStart() = %s, want env override", cfg.Calendar.GetWeekStart())
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source.Type != SourceFile || cfg.Source.File != "records.yaml" {
		t.Errorf("Source = %+v", cfg.Source)
	}
	if cfg.Calendar.GetWeekStart() != time.Sunday {
		t.Errorf("default week start = %s, want Sunday", cfg.Calendar.GetWeekStart())
	}
	if cfg.Export.GetGranularity() != calendar.GranularityMonth {
		t.Errorf("default granularity = %s", cfg.Export.GetGranularity())
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() error = nil for a missing explicit config")
	}
}

func validConfig() Config {
	return Config{
		Calendar: CalendarConfig{WeekStart: "sunday", Timezone: "UTC"},
		Source:   SourceConfig{Type: SourceFile, File: "records.yaml"},
		Export:   ExportConfig{Schedule: "*/15 * * * *", Output: "out.ics", Granularity: "month"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"Valid", func(c *Config) {}, ""},
		{"Bad week start", func(c *Config) { c.Calendar.WeekStart = "someday" }, "week_start"},
		{"Bad timezone", func(c *Config) { c.Calendar.Timezone = "Mars/Olympus" }, "timezone"},
		{"Unknown source", func(c *Config) { c.Source.Type = "ftp" }, "source.type"},
		{"HTTP without endpoint", func(c *Config) { c.Source.Type = SourceHTTP }, "endpoint"},
		{"HTTP bad refresh", func(c *Config) {
			c.Source.Type = SourceHTTP
			c.Source.HTTP.Endpoint = "http://x"
			c.Source.HTTP.TokenRefresh = "often"
		}, "token_refresh"},
		{"File without path", func(c *Config) { c.Source.File = "" }, "source.file"},
		{"MySQL without host", func(c *Config) { c.Source.Type = SourceMySQL }, "database"},
		{"MySQL with DSN", func(c *Config) {
			c.Source.Type = SourceMySQL
			c.Source.Database.DSNOverride = "u:p@tcp(db:3306)/cal"
		}, ""},
		{"Bad schedule", func(c *Config) { c.Export.Schedule = "at dawn" }, "export.schedule"},
		{"Bad granularity", func(c *Config) { c.Export.Granularity = "year" }, "export.granularity"},
		{"No output", func(c *Config) { c.Export.Output = "" }, "export.output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		db   DatabaseConfig
		want string
	}{
		{
			name: "Default port",
			db:   DatabaseConfig{Host: "db", User: "cal", Password: "p@ss/word", Name: "bizcal"},
			want: "cal:p@ss/word@tcp(db:3306)/bizcal",
		},
		{
			name: "Explicit port",
			db:   DatabaseConfig{Host: "db:3307", User: "cal", Name: "bizcal"},
			want: "cal@tcp(db:3307)/bizcal",
		},
		{
			name: "Override wins",
			db:   DatabaseConfig{Host: "ignored", DSNOverride: "x:y@unix(/tmp/mysql.sock)/z"},
			want: "x:y@unix(/tmp/mysql.sock)/z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.db.DSN(); !strings.HasPrefix(got, tt.want) {
				t.Errorf("DSN() = %q, want prefix %q", got, tt.want)
			}
		})
	}
}
