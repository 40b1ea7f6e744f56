package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EncoderHash = "hash"
	EncoderObfs = "obfs"

	DefaultCacheSize   = 1000
	DefaultTokenLength = 12
	// MinTokenLength is exclusive: hash tokens must be longer than this.
	MinTokenLength = 5
)

// Config is built once at startup and handed to every component that needs it.
type Config struct {
	Addr           string
	DatabaseURL    string
	CacheSize      int
	Encoder        string
	TokenLength    int
	Salt           string
	RequestTimeout time.Duration
	Region         string
	DDBEndpoint    string
	Debug          bool
}

// Error reports a missing or invalid setting. It is fatal at startup.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Load reads an optional .env file, then parses args with environment
// variables as flag defaults. The result is validated.
func Load(args []string) (*Config, error) {
	// A missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	c := &Config{}
	var envErr error
	fs := flag.NewFlagSet("tersemap", flag.ContinueOnError)
	fs.StringVar(&c.Addr, "addr", getEnv("ADDR", ":5000"), "address to listen on")
	fs.StringVar(&c.DatabaseURL, "database-url", getEnv("DATABASE_URL", ""), "storage location (sqlite path, postgres://, redis://, dynamodb://table)")
	fs.IntVar(&c.CacheSize, "cache-size", getEnvInt("BUFFER_LEN", DefaultCacheSize, &envErr), "maximum number of cached tokens")
	fs.StringVar(&c.Encoder, "encoder", getEnv("ENCODER", EncoderHash), "token encoder: hash or obfs")
	fs.IntVar(&c.TokenLength, "uri-len", getEnvInt("URI_LEN", DefaultTokenLength, &envErr), "token length for the hash encoder")
	fs.StringVar(&c.Salt, "salt", getEnv("SALT", ""), "secret salt for the obfs encoder")
	fs.DurationVar(&c.RequestTimeout, "request-timeout", getEnvDuration("REQUEST_TIMEOUT", 5*time.Second, &envErr), "per request timeout")
	fs.StringVar(&c.Region, "region", getEnv("AWS_REGION", "us-east-1"), "AWS region")
	fs.StringVar(&c.DDBEndpoint, "ddb-endpoint", getEnv("DYNAMODB_ENDPOINT", ""), "DynamoDB endpoint URL")
	fs.BoolVar(&c.Debug, "debug", getEnvBool("DEBUG", false), "Enable debug mode")

	if envErr != nil {
		return nil, envErr
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the settings the engine cannot run without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return &Error{Field: "DATABASE_URL", Reason: "is not set"}
	}
	if c.CacheSize < 1 {
		return &Error{Field: "BUFFER_LEN", Reason: "must be at least 1"}
	}
	switch c.Encoder {
	case EncoderHash:
		if c.TokenLength <= MinTokenLength {
			return &Error{Field: "URI_LEN", Reason: fmt.Sprintf("must be greater than %d", MinTokenLength)}
		}
	case EncoderObfs:
		if c.Salt == "" {
			return &Error{Field: "SALT", Reason: "is not set"}
		}
	default:
		return &Error{Field: "ENCODER", Reason: fmt.Sprintf("unknown encoder %q", c.Encoder)}
	}
	if c.RequestTimeout <= 0 {
		return &Error{Field: "REQUEST_TIMEOUT", Reason: "must be positive"}
	}
	return nil
}

// Helper functions to get environment variables with default values
func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}

	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		return value == "true" || value == "1" || value == "yes"
	}

	return defaultVal
}

// An empty variable counts as unset. An unparsable one is recorded in
// errp (first failure wins) and the default is returned.
func getEnvInt(key string, defaultVal int, errp *error) int {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
		if *errp == nil {
			*errp = &Error{Field: key, Reason: fmt.Sprintf("%q is not a number", value)}
		}
	}

	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration, errp *error) time.Duration {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
		if *errp == nil {
			*errp = &Error{Field: key, Reason: fmt.Sprintf("%q is not a duration", value)}
		}
	}

	return defaultVal
}
