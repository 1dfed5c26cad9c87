package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Materialization policies for re-generating a date range.
const (
	PolicyPreserveExisting = "preserve-existing"
	PolicyReplaceAll       = "replace-all"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	Timezone  string

	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Log      LogConfig
	Schedule ScheduleConfig
	Stats    StatsConfig
	Export   ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig gates the optional single-user passphrase login.
type AuthConfig struct {
	Enabled        bool
	PassphraseHash string
	JWTSecret      string
	Expiration     time.Duration
	Issuer         string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ScheduleConfig tunes materialization and note buffering.
type ScheduleConfig struct {
	MaterializePolicy string
	MaxRangeDays      int
	NotesDebounce     time.Duration
}

// StatsConfig controls statistics caching and the daily refresh job.
type StatsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	RefreshCron  string
}

// ExportConfig points PDF rendering at a UTF-8 font so class names render, and
// optionally archives a statistics CSV on every scheduled refresh.
type ExportConfig struct {
	PDFFontDir        string
	PDFFontFile       string
	SnapshotDir       string
	SnapshotRetention time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Timezone = v.GetString("TIMEZONE")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Auth = AuthConfig{
		Enabled:        v.GetBool("AUTH_ENABLED"),
		PassphraseHash: v.GetString("AUTH_PASSPHRASE_HASH"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		Expiration:     parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:         v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Schedule = ScheduleConfig{
		MaterializePolicy: strings.ToLower(strings.TrimSpace(v.GetString("MATERIALIZE_POLICY"))),
		MaxRangeDays:      v.GetInt("MAX_RANGE_DAYS"),
		NotesDebounce:     parseDuration(v.GetString("NOTES_DEBOUNCE"), 400*time.Millisecond),
	}

	cfg.Stats = StatsConfig{
		CacheEnabled: v.GetBool("ENABLE_STATS_CACHE"),
		CacheTTL:     parseDuration(v.GetString("STATS_CACHE_TTL"), 10*time.Minute),
		RefreshCron:  v.GetString("STATS_REFRESH_CRON"),
	}

	cfg.Export = ExportConfig{
		PDFFontDir:        v.GetString("EXPORT_PDF_FONT_DIR"),
		PDFFontFile:       v.GetString("EXPORT_PDF_FONT_FILE"),
		SnapshotDir:       strings.TrimSpace(v.GetString("EXPORT_SNAPSHOT_DIR")),
		SnapshotRetention: parseDuration(v.GetString("EXPORT_SNAPSHOT_RETENTION"), 30*24*time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.Schedule.MaterializePolicy {
	case PolicyPreserveExisting, PolicyReplaceAll:
	default:
		return fmt.Errorf("MATERIALIZE_POLICY must be %q or %q, got %q", PolicyPreserveExisting, PolicyReplaceAll, c.Schedule.MaterializePolicy)
	}
	if c.Schedule.MaxRangeDays <= 0 {
		return fmt.Errorf("MAX_RANGE_DAYS must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Auth.Enabled && c.Auth.PassphraseHash == "" {
		return fmt.Errorf("AUTH_PASSPHRASE_HASH is required when AUTH_ENABLED is set")
	}
	return nil
}

// Location resolves the configured timezone; "today" and date keys are computed in it.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 5001)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("TIMEZONE", "Asia/Seoul")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "class_schedule")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("AUTH_ENABLED", false)
	v.SetDefault("AUTH_PASSPHRASE_HASH", "")
	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "class-schedule-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MATERIALIZE_POLICY", PolicyPreserveExisting)
	v.SetDefault("MAX_RANGE_DAYS", 365)
	v.SetDefault("NOTES_DEBOUNCE", "400ms")

	v.SetDefault("ENABLE_STATS_CACHE", true)
	v.SetDefault("STATS_CACHE_TTL", "10m")
	v.SetDefault("STATS_REFRESH_CRON", "0 0 * * *")

	v.SetDefault("EXPORT_PDF_FONT_DIR", "")
	v.SetDefault("EXPORT_PDF_FONT_FILE", "")
	v.SetDefault("EXPORT_SNAPSHOT_DIR", "")
	v.SetDefault("EXPORT_SNAPSHOT_RETENTION", "720h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
