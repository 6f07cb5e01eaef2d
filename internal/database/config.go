package database

import (
	"fmt"

	"lendhub/internal/config"
)

// Config holds database configuration
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	// MigrationsPath is the directory holding the SQL migration files.
	MigrationsPath string
}

// NewConfig derives the database configuration from the application config.
func NewConfig(app *config.Config) *Config {
	return &Config{
		Host:           app.DBHost,
		Port:           app.DBPort,
		User:           app.DBUser,
		Password:       app.DBPassword,
		DBName:         app.DBName,
		SSLMode:        app.DBSSLMode,
		MigrationsPath: "migrations",
	}
}

// DSN returns the PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// URL returns the postgres:// form used by golang-migrate.
func (c *Config) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// SourceURL returns the file:// location of the migrations.
func (c *Config) SourceURL() string {
	path := c.MigrationsPath
	if path == "" {
		path = "migrations"
	}
	return "file://" + path
}
