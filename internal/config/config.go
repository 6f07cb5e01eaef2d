package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"lendhub/internal/logger"
	"lendhub/internal/marketplace"
)

// Config holds application configuration
type Config struct {
	Env      string
	LogLevel string

	// Server
	Port        string
	CORSOrigins []string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	Scheduler SchedulerConfig
	Market    MarketConfig
}

// SchedulerConfig holds the cron specs of the background jobs.
type SchedulerConfig struct {
	Enabled        bool
	ExpirySpec     string
	AutoInvestSpec string
	SnapshotSpec   string
}

// MarketConfig tunes the marketplace engine.
type MarketConfig struct {
	// ExpiringWindowDays is the window counted as "expiring soon" in stats.
	ExpiringWindowDays int
	GradeBands         marketplace.GradeTable
}

var appConfig *Config

// Load reads configuration from the environment, an optional .env file and
// an optional YAML file named by CONFIG_FILE. Environment values win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Get().Debug("no .env file found, using environment only")
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "development")
	v.SetDefault("log_level", "")
	v.SetDefault("port", "8080")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "lendhub")
	v.SetDefault("db_password", "lendhub")
	v.SetDefault("db_name", "lendhub")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("scheduler_enabled", true)
	v.SetDefault("expiry_cron", "0 */15 * * * *")
	v.SetDefault("auto_invest_cron", "@every 5m")
	v.SetDefault("snapshot_cron", "0 0 * * * *")
	v.SetDefault("stats_expiring_window_days", marketplace.DefaultStatsExpiringWindowDays)

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	config := &Config{
		Env:         v.GetString("env"),
		LogLevel:    v.GetString("log_level"),
		Port:        v.GetString("port"),
		CORSOrigins: splitList(v.GetString("cors_origins")),
		DBHost:      v.GetString("db_host"),
		DBPort:      v.GetString("db_port"),
		DBUser:      v.GetString("db_user"),
		DBPassword:  v.GetString("db_password"),
		DBName:      v.GetString("db_name"),
		DBSSLMode:   v.GetString("db_sslmode"),
		Scheduler: SchedulerConfig{
			Enabled:        v.GetBool("scheduler_enabled"),
			ExpirySpec:     v.GetString("expiry_cron"),
			AutoInvestSpec: v.GetString("auto_invest_cron"),
			SnapshotSpec:   v.GetString("snapshot_cron"),
		},
		Market: MarketConfig{
			ExpiringWindowDays: v.GetInt("stats_expiring_window_days"),
			GradeBands:         append(marketplace.GradeTable(nil), marketplace.DefaultGradeTable...),
		},
	}

	if v.IsSet("grade_bands") {
		var bands marketplace.GradeTable
		if err := v.UnmarshalKey("grade_bands", &bands); err != nil {
			return nil, fmt.Errorf("parse grade_bands: %w", err)
		}
		config.Market.GradeBands = bands
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

func (c *Config) validate() error {
	if c.Market.ExpiringWindowDays <= 0 {
		return fmt.Errorf("STATS_EXPIRING_WINDOW_DAYS must be positive, got %d", c.Market.ExpiringWindowDays)
	}
	if err := c.Market.GradeBands.Validate(); err != nil {
		return fmt.Errorf("invalid grade_bands: %w", err)
	}
	return nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			logger.Get().Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}
