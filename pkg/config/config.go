package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Database    Database
	Log         Log
	HTTPAddr    string
	SeedOnStart bool
	Seed        int64
}

type Database struct {
	Driver         string
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	Path           string
	ConnectRetries int
}

// DSN returns the connection string for the configured driver.
func (d Database) DSN() string {
	if d.Driver == DriverSQLite {
		return sqliteDSN(d.Path)
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port)
}

// InMemory reports whether the database lives only in the current process.
func (d Database) InMemory() bool {
	return d.Driver == DriverSQLite && (d.Path == ":memory:" || strings.Contains(d.Path, "mode=memory"))
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "_foreign_keys") {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=on"
	}
	return path + "?_foreign_keys=on"
}

type Log struct {
	Level  string
	Format string
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to load .env file")
	}

	retries, err := getEnvInt("DB_CONNECT_RETRIES", 10)
	if err != nil {
		return nil, err
	}
	seedOnStart, err := getEnvBool("SEED_ON_START", false)
	if err != nil {
		return nil, err
	}
	seed, err := getEnvInt("SEED", 1)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: Database{
			Driver:         strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
			Host:           getEnv("DB_HOST", "postgres"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "program"),
			Password:       getEnv("DB_PASSWORD", "test"),
			Name:           getEnv("DB_NAME", "locallibrary"),
			Path:           getEnv("DB_PATH", "locallibrary.db"),
			ConnectRetries: retries,
		},
		Log: Log{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "console")),
		},
		HTTPAddr:    getEnv("HTTP_ADDR", ":8060"),
		SeedOnStart: seedOnStart,
		Seed:        int64(seed),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return errors.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Database.ConnectRetries < 1 {
		return errors.New("DB_CONNECT_RETRIES must be at least 1")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.Errorf("unsupported LOG_FORMAT %q", c.Log.Format)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.Wrapf(err, "invalid %s", key)
	}
	return b, nil
}
