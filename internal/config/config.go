package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type (
	// Config holds configuration settings for the flow API server
	Config struct {
		// API Server
		APIHost  string `validate:"required,hostname|ip"`
		APIPort  int    `validate:"min=1,max=65535"`
		LogLevel string `validate:"oneof=debug info warn error"`

		// Storage
		DatabaseURL string `validate:"required,db_url"`

		// Requests & Caching
		FlowCacheSize   int           `validate:"min=0,max=1000000"`
		MaxBodyBytes    int64         `validate:"min=1"`
		ShutdownTimeout time.Duration `validate:"gt=0"`
	}
)

const (
	DefaultAPIHost         = "0.0.0.0"
	DefaultAPIPort         = 8000
	DefaultDatabaseURL     = "sqlite://./flows.db"
	DefaultLogLevel        = "info"
	DefaultFlowCacheSize   = 1024
	DefaultMaxBodyBytes    = 10 << 20
	DefaultShutdownTimeout = 10 * time.Second

	MaxTCPPort       = 65535
	MaxFlowCacheSize = 1_000_000
	MaxBodyBytes     = 1 << 30
)

var (
	ErrInvalidAPIHost         = errors.New("invalid API host")
	ErrInvalidAPIPort         = errors.New("invalid API port")
	ErrInvalidLogLevel        = errors.New("invalid log level")
	ErrInvalidDatabaseURL     = errors.New("invalid database URL")
	ErrInvalidFlowCacheSize   = errors.New("invalid flow cache size")
	ErrInvalidMaxBodyBytes    = errors.New("max body bytes must be positive")
	ErrInvalidShutdownTimeout = errors.New(
		"shutdown timeout must be positive",
	)
	ErrInvalidConfig = errors.New("invalid configuration")
)

var (
	validate = newValidator()

	fieldErrors = map[string]error{
		"APIHost":         ErrInvalidAPIHost,
		"APIPort":         ErrInvalidAPIPort,
		"LogLevel":        ErrInvalidLogLevel,
		"DatabaseURL":     ErrInvalidDatabaseURL,
		"FlowCacheSize":   ErrInvalidFlowCacheSize,
		"MaxBodyBytes":    ErrInvalidMaxBodyBytes,
		"ShutdownTimeout": ErrInvalidShutdownTimeout,
	}
)

// NewDefaultConfig creates a configuration that serves on port 8000 and
// keeps flows in a SQLite file in the working directory
func NewDefaultConfig() *Config {
	return &Config{
		APIHost:         DefaultAPIHost,
		APIPort:         DefaultAPIPort,
		LogLevel:        DefaultLogLevel,
		DatabaseURL:     DefaultDatabaseURL,
		FlowCacheSize:   DefaultFlowCacheSize,
		MaxBodyBytes:    DefaultMaxBodyBytes,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// LoadDotEnv loads variables from the given .env files (".env" when none
// are named) without overriding ones already set. Missing files are
// ignored
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, f, err)
		}
	}
	return nil
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed.
func (c *Config) LoadFromEnv() error {
	if apiHost := os.Getenv("API_HOST"); apiHost != "" {
		c.APIHost = apiHost
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		c.DatabaseURL = dbURL
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.LogLevel = strings.ToLower(logLevel)
	}

	// PORT is what most hosting platforms inject; API_PORT wins when both
	// are present
	if err := loadEnvInt("PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}

	if err := loadEnvInt(
		"FLOW_CACHE_SIZE", &c.FlowCacheSize, -1, MaxFlowCacheSize,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"MAX_BODY_BYTES", &c.MaxBodyBytes, 0, MaxBodyBytes,
	); err != nil {
		return err
	}

	if s := os.Getenv("SHUTDOWN_TIMEOUT"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %q", s)
		}
		c.ShutdownTimeout = d
	}

	return nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	fe := fieldErrs[0]
	if sentinel, ok := fieldErrors[fe.Field()]; ok {
		return fmt.Errorf("%w: %v", sentinel, fe.Value())
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fe.Error())
}

// Addr returns the host:port the API server listens on
func (c *Config) Addr() string {
	return net.JoinHostPort(c.APIHost, strconv.Itoa(c.APIPort))
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("db_url", validateDatabaseURL)
	return v
}

// validateDatabaseURL accepts any "scheme://..." string. Backend support is
// decided when the store is opened
func validateDatabaseURL(fl validator.FieldLevel) bool {
	scheme, _, ok := strings.Cut(fl.Field().String(), "://")
	return ok && scheme != ""
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max]
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	if v <= int64(min) || v > int64(max) {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, v, min+1, max)
	}
	*dst = T(v)
	return nil
}
