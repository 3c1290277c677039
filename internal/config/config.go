// Package config resolves service configuration from flags, environment,
// an optional config file and defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultAddr          = ":8080"
	DefaultDatabaseURL   = "sqlite://todo.db"
	DefaultCORSOrigins   = "http://localhost:5173"
	DefaultLogLevel      = "INFO"
	DefaultLogFormat     = "text"
	DefaultLogMaxSizeMB  = 10
	DefaultLogMaxAgeDays = 30

	// DotEnvFile is read from the working directory when no --config is given.
	DotEnvFile = ".env"
)

type Config struct {
	Addr          string
	DatabaseURL   string
	CORSOrigins   []string
	LogLevel      string
	LogFormat     string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxAgeDays int
	LogCompress   bool
	ConfigFile    string
}

type setting struct {
	key  string
	env  string
	flag string
}

var settings = []setting{
	{"addr", "ADDR", "addr"},
	{"database_url", "DATABASE_URL", "database-url"},
	{"cors_origins", "CORS_ORIGINS", "cors-origins"},
	{"log_level", "LOG_LEVEL", "log-level"},
	{"log_format", "LOG_FORMAT", "log-format"},
	{"log_file", "LOG_FILE", "log-file"},
	{"log_max_size_mb", "LOG_MAX_SIZE_MB", ""},
	{"log_max_age_days", "LOG_MAX_AGE_DAYS", ""},
	{"log_compress", "LOG_COMPRESS", ""},
}

// RegisterFlags adds the configuration flags to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Config file (any format viper reads; default .env if present)")
	flags.String("addr", DefaultAddr, "Listen address (env: ADDR)")
	flags.String("database-url", DefaultDatabaseURL, "Database URL: sqlite://path, postgres://..., memory:// (env: DATABASE_URL)")
	flags.String("cors-origins", DefaultCORSOrigins, "Comma-separated allowed origins (env: CORS_ORIGINS)")
	flags.String("log-level", DefaultLogLevel, "DEBUG, INFO, WARNING, ERROR or CRITICAL (env: LOG_LEVEL)")
	flags.String("log-format", DefaultLogFormat, "text, json or logfmt (env: LOG_FORMAT)")
	flags.String("log-file", "", "Also write logs to this rotating file (env: LOG_FILE)")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("database_url", DefaultDatabaseURL)
	v.SetDefault("cors_origins", DefaultCORSOrigins)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", DefaultLogMaxSizeMB)
	v.SetDefault("log_max_age_days", DefaultLogMaxAgeDays)
	v.SetDefault("log_compress", true)
}

// Load resolves the configuration. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for _, s := range settings {
		if err := v.BindEnv(s.key, s.env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", s.env, err)
		}
		if flags == nil || s.flag == "" {
			continue
		}
		if f := flags.Lookup(s.flag); f != nil {
			if err := v.BindPFlag(s.key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", s.flag, err)
			}
		}
	}

	configFile := ""
	if flags != nil {
		if f := flags.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
	}
	if err := readConfigFile(v, configFile); err != nil {
		return nil, err
	}

	cfg := &Config{
		Addr:          v.GetString("addr"),
		DatabaseURL:   v.GetString("database_url"),
		CORSOrigins:   SplitOrigins(v.GetString("cors_origins")),
		LogLevel:      v.GetString("log_level"),
		LogFormat:     v.GetString("log_format"),
		LogFile:       v.GetString("log_file"),
		LogMaxSizeMB:  v.GetInt("log_max_size_mb"),
		LogMaxAgeDays: v.GetInt("log_max_age_days"),
		LogCompress:   v.GetBool("log_compress"),
		ConfigFile:    v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		if _, err := os.Stat(DotEnvFile); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		path = DotEnvFile
		v.SetConfigType("env")
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("database url must not be empty")
	}
	if c.LogMaxSizeMB <= 0 {
		return fmt.Errorf("log max size must be positive, got %d", c.LogMaxSizeMB)
	}
	if c.LogMaxAgeDays < 0 {
		return fmt.Errorf("log max age must not be negative, got %d", c.LogMaxAgeDays)
	}
	return nil
}

// SplitOrigins parses a comma-separated origin list, dropping blanks.
func SplitOrigins(raw string) []string {
	origins := []string{}
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
