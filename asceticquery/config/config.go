package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/logger"
)

const EnvPrefix = "ASCETICQUERY_"

type Config struct {
	Driver   string         `mapstructure:"driver"`
	Database DatabaseConfig `mapstructure:"database"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Log      logger.Config  `mapstructure:"log"`
	Query    QueryConfig    `mapstructure:"query"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN renders a pgx connection string.
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Name,
	}
	q := u.Query()
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

type SQLiteConfig struct {
	// Path is a file name or ":memory:".
	Path string `mapstructure:"path"`
}

// DSN renders a modernc.org/sqlite data source. LIKE is made case sensitive and times are
// stored as sortable text.
func (c SQLiteConfig) DSN() string {
	path := c.Path
	if path == "" || path == ":memory:" {
		path = "file::memory:"
	}
	return path + "?_pragma=case_sensitive_like(1)&_time_format=sqlite"
}

type QueryConfig struct {
	DefaultPageSize int `mapstructure:"defaultpagesize"`
	// MaxPageSize caps maxResults; zero disables the cap.
	MaxPageSize int `mapstructure:"maxpagesize"`
}

func Default() Config {
	return Config{
		Driver: "sqlite",
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "devel",
			Name:    "devel",
			SSLMode: "disable",
		},
		SQLite: SQLiteConfig{Path: ":memory:"},
		Log:    logger.Config{Level: "INFO", Format: "text"},
		Query:  QueryConfig{DefaultPageSize: 50, MaxPageSize: 1000},
	}
}

// Load loads configuration from an optional config file and environment variables
// prefix: Environment variable prefix (e.g. "ASCETICQUERY_")
// target: Pointer to the config struct to load into
func Load(prefix, file string, target any) error {
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	// ASCETICQUERY_DATABASE_HOST -> database.host
	prefixUpper := strings.ToUpper(prefix)
	for _, envStr := range os.Environ() {
		key, value, found := strings.Cut(envStr, "=")
		if !found || !strings.HasPrefix(key, prefixUpper) {
			continue
		}
		propKey := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, prefixUpper), "_", "."))
		v.Set(strings.TrimPrefix(propKey, "."), value)
	}

	if err := v.Unmarshal(target); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// LoadConfig starts from Default and applies the file and the environment.
func LoadConfig(file string) (Config, error) {
	cfg := Default()
	if err := Load(EnvPrefix, file, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
