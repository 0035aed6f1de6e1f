package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/moonlysoftware/dashboard-intro-week/pkg/timewindow"
)

// ApplicationName identifies this service's connections to Postgres and Redis
const ApplicationName = "dashboard-intro-week"

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Calendar   CalendarConfig
	Toggl      TogglConfig
	Weather    WeatherConfig
	Compliance ComplianceConfig
	Rooms      RoomsConfig
	Upstream   UpstreamConfig
	OTEL       OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	Env            string
	LogLevel       string
	Timezone       string
	AllowedOrigins []string
}

// StorageConfig selects the screen/widget store
type StorageConfig struct {
	Driver     string // postgres, sqlite or memory
	SQLitePath string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeMinutes int
	ConnectAttempts        int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// CalendarConfig holds the meeting-room calendar source configuration
type CalendarConfig struct {
	Provider              string // google or mock
	CredentialsFile       string
	MaxEvents             int
	EventsCacheTTLSeconds int
}

// TogglConfig holds the time-tracking workspace configuration
type TogglConfig struct {
	BaseURL               string
	APIToken              string
	WorkspaceID           string
	PageSize              int
	ReportCacheTTLSeconds int
}

// WeatherConfig holds the clock/weather widget source configuration
type WeatherConfig struct {
	BaseURL         string
	CacheTTLSeconds int
}

// ComplianceConfig holds the weekly hours policy
type ComplianceConfig struct {
	WeeklyTargetHours int
	BreakWindowDay    string
	BreakWindowFrom   string
	BreakWindowTo     string
}

// RoomsConfig holds room availability tuning
type RoomsConfig struct {
	MergeToleranceMinutes int
}

// UpstreamConfig bounds every call to an external data source
type UpstreamConfig struct {
	TimeoutSeconds int
	RetryAttempts  int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Env:            getEnv("APP_ENV", "development"),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			Timezone:       getEnv("APP_TIMEZONE", "Europe/Amsterdam"),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Storage: StorageConfig{
			Driver:     getEnv("STORAGE_DRIVER", "postgres"),
			SQLitePath: getEnv("SQLITE_PATH", "dashboard.db"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "dashboard"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:           getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:           getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetimeMinutes: getEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 30),
			ConnectAttempts:        getEnvAsInt("DB_CONNECT_ATTEMPTS", 10),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 10),
		},
		Calendar: CalendarConfig{
			Provider:              getEnv("CALENDAR_PROVIDER", "google"),
			CredentialsFile:       getEnv("GOOGLE_CALENDAR_CREDENTIALS", ""),
			MaxEvents:             getEnvAsInt("CALENDAR_MAX_EVENTS", 10),
			EventsCacheTTLSeconds: getEnvAsInt("CALENDAR_EVENTS_CACHE_TTL", 30),
		},
		Toggl: TogglConfig{
			BaseURL:               getEnv("TOGGL_BASE_URL", "https://api.track.toggl.com"),
			APIToken:              getEnv("TOGGL_API_TOKEN", ""),
			WorkspaceID:           getEnv("TOGGL_WORKSPACE", ""),
			PageSize:              getEnvAsInt("TOGGL_PAGE_SIZE", 1000),
			ReportCacheTTLSeconds: getEnvAsInt("TOGGL_REPORT_CACHE_TTL", 60),
		},
		Weather: WeatherConfig{
			BaseURL:         getEnv("WEATHER_BASE_URL", "https://api.open-meteo.com"),
			CacheTTLSeconds: getEnvAsInt("WEATHER_CACHE_TTL", 600),
		},
		Compliance: ComplianceConfig{
			WeeklyTargetHours: getEnvAsInt("COMPLIANCE_WEEKLY_TARGET_HOURS", 37),
			BreakWindowDay:    getEnv("COMPLIANCE_BREAK_WINDOW_DAY", "friday"),
			BreakWindowFrom:   getEnv("COMPLIANCE_BREAK_WINDOW_FROM", "11:00"),
			BreakWindowTo:     getEnv("COMPLIANCE_BREAK_WINDOW_TO", "13:00"),
		},
		Rooms: RoomsConfig{
			MergeToleranceMinutes: getEnvAsInt("ROOMS_MERGE_TOLERANCE_MINUTES", 5),
		},
		Upstream: UpstreamConfig{
			TimeoutSeconds: getEnvAsInt("UPSTREAM_TIMEOUT_SECONDS", 8),
			RetryAttempts:  getEnvAsInt("UPSTREAM_RETRY_ATTEMPTS", 2),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "dashboard-intro-week"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the services cannot operate with
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Compliance.WeeklyTargetHours <= 0 {
		return fmt.Errorf("COMPLIANCE_WEEKLY_TARGET_HOURS must be positive")
	}
	if _, err := c.Compliance.BreakWindow(); err != nil {
		return err
	}
	if c.Rooms.MergeToleranceMinutes < 0 {
		return fmt.Errorf("ROOMS_MERGE_TOLERANCE_MINUTES must not be negative")
	}
	if c.Upstream.TimeoutSeconds <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT_SECONDS must be positive")
	}
	if c.Calendar.MaxEvents <= 0 {
		return fmt.Errorf("CALENDAR_MAX_EVENTS must be positive")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive")
	}
	return nil
}

// BreakWindow returns the weekly window whose break entries are not deducted
func (c *ComplianceConfig) BreakWindow() (timewindow.WeeklyWindow, error) {
	day, err := timewindow.ParseWeekday(c.BreakWindowDay)
	if err != nil {
		return timewindow.WeeklyWindow{}, fmt.Errorf("COMPLIANCE_BREAK_WINDOW_DAY: %w", err)
	}
	from, err := timewindow.ParseClock(c.BreakWindowFrom)
	if err != nil {
		return timewindow.WeeklyWindow{}, fmt.Errorf("COMPLIANCE_BREAK_WINDOW_FROM: %w", err)
	}
	to, err := timewindow.ParseClock(c.BreakWindowTo)
	if err != nil {
		return timewindow.WeeklyWindow{}, fmt.Errorf("COMPLIANCE_BREAK_WINDOW_TO: %w", err)
	}
	if to <= from {
		return timewindow.WeeklyWindow{}, fmt.Errorf("break window must end after it starts")
	}
	return timewindow.WeeklyWindow{Weekday: day, From: from, To: to}, nil
}

// WeeklyTargetSeconds returns the weekly target in seconds
func (c *ComplianceConfig) WeeklyTargetSeconds() int64 {
	return int64(c.WeeklyTargetHours) * 3600
}

// MergeTolerance returns the consecutive-booking tolerance
func (c *RoomsConfig) MergeTolerance() time.Duration {
	return time.Duration(c.MergeToleranceMinutes) * time.Minute
}

// Timeout returns the per-call upstream timeout
func (c *UpstreamConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Location resolves the configured timezone, falling back to the host zone
func (c *ServerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ConnMaxLifetime returns how long a pooled connection may be reused
func (c *DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetimeMinutes) * time.Minute
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode, ApplicationName,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
