package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/username/bizcal/internal/calendar"
	"github.com/username/bizcal/pkg/dateutil"
)

// Source types
const (
	SourceHTTP  = "http"
	SourceFile  = "file"
	SourceMySQL = "mysql"
)

// Config represents application configuration
type Config struct {
	Calendar CalendarConfig `mapstructure:"calendar"`
	Source   SourceConfig   `mapstructure:"source"`
	Server   ServerConfig   `mapstructure:"server"`
	Export   ExportConfig   `mapstructure:"export"`
	Log      LogConfig      `mapstructure:"log"`
}

// CalendarConfig controls window computation
type CalendarConfig struct {
	WeekStart string `mapstructure:"week_start"` // sunday (default), monday, ...
	Timezone  string `mapstructure:"timezone"`   // IANA zone used to decide "today"
}

// SourceConfig selects where raw records come from
type SourceConfig struct {
	Type         string           `mapstructure:"type"`          // http, file or mysql
	FallbackFile string           `mapstructure:"fallback_file"` // optional, used when the primary fails
	HTTP         HTTPSourceConfig `mapstructure:"http"`
	File         string           `mapstructure:"file"`
	Database     DatabaseConfig   `mapstructure:"database"`
}

// HTTPSourceConfig represents the upstream data service
type HTTPSourceConfig struct {
	Endpoint     string `mapstructure:"endpoint"`
	Token        string `mapstructure:"token"`
	TokenCommand string `mapstructure:"token_command"` // prints a bearer token to stdout
	TokenRefresh string `mapstructure:"token_refresh"`
}

// DatabaseConfig represents a MySQL/MariaDB connection
type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	Name        string `mapstructure:"name"`
	DSNOverride string `mapstructure:"dsn"`
}

// ServerConfig represents the HTTP server
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// ExportConfig represents scheduled iCalendar export
type ExportConfig struct {
	Schedule    string `mapstructure:"schedule"` // cron spec
	Output      string `mapstructure:"output"`
	Granularity string `mapstructure:"granularity"`
	Name        string `mapstructure:"name"`
	StateFile   string `mapstructure:"state_file"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("calendar.week_start", "sunday")
	v.SetDefault("calendar.timezone", "Local")
	v.SetDefault("source.type", SourceFile)
	v.SetDefault("source.file", "records.yaml")
	v.SetDefault("source.fallback_file", "")
	v.SetDefault("source.http.endpoint", "")
	v.SetDefault("source.http.token", "")
	v.SetDefault("source.http.token_command", "")
	v.SetDefault("source.http.token_refresh", "1h")
	v.SetDefault("source.database.host", "")
	v.SetDefault("source.database.user", "")
	v.SetDefault("source.database.password", "")
	v.SetDefault("source.database.name", "")
	v.SetDefault("source.database.dsn", "")
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("export.schedule", "*/15 * * * *")
	v.SetDefault("export.output", "calendar.ics")
	v.SetDefault("export.granularity", "month")
	v.SetDefault("export.name", "bizcal")
	v.SetDefault("export.state_file", "")
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
}

// Load loads configuration from file and BIZCAL_* environment variables.
// Without an explicit path a missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.bizcal")
		v.AddConfigPath("/etc/bizcal")
	}

	// Read environment variables: BIZCAL_SOURCE_HTTP_ENDPOINT etc.
	v.SetEnvPrefix("bizcal")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.ExpandEnvVars()

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := dateutil.ParseWeekday(c.Calendar.WeekStart); err != nil {
		return fmt.Errorf("calendar.week_start: %w", err)
	}
	if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
		return fmt.Errorf("calendar.timezone: %w", err)
	}

	switch c.Source.Type {
	case SourceHTTP:
		if c.Source.HTTP.Endpoint == "" {
			return fmt.Errorf("source.http.endpoint is required for http source")
		}
		if c.Source.HTTP.TokenRefresh != "" {
			if _, err := time.ParseDuration(c.Source.HTTP.TokenRefresh); err != nil {
				return fmt.Errorf("source.http.token_refresh: %w", err)
			}
		}
	case SourceFile:
		if c.Source.File == "" {
			return fmt.Errorf("source.file is required for file source")
		}
	case SourceMySQL:
		db := c.Source.Database
		if db.DSNOverride == "" && (db.Host == "" || db.Name == "") {
			return fmt.Errorf("source.database.host and source.database.name (or source.database.dsn) are required for mysql source")
		}
	default:
		return fmt.Errorf("source.type must be 'http', 'file' or 'mysql', got '%s'", c.Source.Type)
	}

	if _, err := cron.ParseStandard(c.Export.Schedule); err != nil {
		return fmt.Errorf("export.schedule: %w", err)
	}
	if _, err := calendar.ParseGranularity(c.Export.Granularity); err != nil {
		return fmt.Errorf("export.granularity: %w", err)
	}
	if c.Export.Output == "" {
		return fmt.Errorf("export.output is required")
	}

	return nil
}

// GetWeekStart returns the first day of the week (default Sunday)
func (c *CalendarConfig) GetWeekStart() time.Weekday {
	wd, err := dateutil.ParseWeekday(c.WeekStart)
	if err != nil {
		return calendar.DefaultWeekStart
	}
	return wd
}

// GetLocation returns the zone used to decide "today"
func (c *CalendarConfig) GetLocation() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// GetTokenRefresh returns the token refresh interval
func (c *HTTPSourceConfig) GetTokenRefresh() time.Duration {
	if c.TokenRefresh == "" {
		return 1 * time.Hour
	}
	duration, err := time.ParseDuration(c.TokenRefresh)
	if err != nil {
		return 1 * time.Hour
	}
	return duration
}

// GetGranularity returns the export granularity (default month)
func (c *ExportConfig) GetGranularity() calendar.Granularity {
	g, err := calendar.ParseGranularity(c.Granularity)
	if err != nil {
		return calendar.GranularityMonth
	}
	return g
}

// DSN returns the go-sql-driver/mysql connection string. An explicit dsn
// wins; otherwise it is built with FormatDSN so passwords need no escaping.
func (d DatabaseConfig) DSN() string {
	if d.DSNOverride != "" {
		return d.DSNOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	return cfg.FormatDSN()
}

// ensurePort appends the default port if host has none
func ensurePort(host, defaultPort string) string {
	if _, _, err := net.SplitHostPort(host); err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// ExpandEnvVars expands environment variables in secret fields
func (c *Config) ExpandEnvVars() {
	c.Source.HTTP.Token = os.ExpandEnv(c.Source.HTTP.Token)
	c.Source.Database.Password = os.ExpandEnv(c.Source.Database.Password)
	c.Source.Database.DSNOverride = os.ExpandEnv(c.Source.Database.DSNOverride)
}
