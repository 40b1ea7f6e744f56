package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		DatabaseURL:    "sqlite://tersemap.db",
		CacheSize:      DefaultCacheSize,
		Encoder:        EncoderHash,
		TokenLength:    DefaultTokenLength,
		RequestTimeout: time.Second,
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://test.db")
	t.Setenv("BUFFER_LEN", "")
	t.Setenv("URI_LEN", "")
	t.Setenv("ADDR", "")
	t.Setenv("ENCODER", "")
	t.Setenv("REQUEST_TIMEOUT", "")

	c, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":5000", c.Addr)
	assert.Equal(t, "sqlite://test.db", c.DatabaseURL)
	assert.Equal(t, DefaultCacheSize, c.CacheSize)
	assert.Equal(t, EncoderHash, c.Encoder)
	assert.Equal(t, DefaultTokenLength, c.TokenLength)
	assert.Equal(t, 5*time.Second, c.RequestTimeout)
}

func TestLoad_EnvAndFlags(t *testing.T) {
	t.Setenv("DATABASE_URL", "redis://localhost:6379/0")
	t.Setenv("BUFFER_LEN", "50")
	t.Setenv("ENCODER", "obfs")
	t.Setenv("SALT", "pepper")
	t.Setenv("DEBUG", "yes")

	c, err := Load([]string{"-cache-size", "7", "-addr", ":9000"})
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.Addr)
	assert.Equal(t, 7, c.CacheSize, "flags override env")
	assert.Equal(t, EncoderObfs, c.Encoder)
	assert.Equal(t, "pepper", c.Salt)
	assert.True(t, c.Debug)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load(nil)
	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "DATABASE_URL", cfgErr.Field)
}

func TestLoad_UnparsableEnv(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"URI_LEN", "abc"},
		{"BUFFER_LEN", "-"},
		{"REQUEST_TIMEOUT", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "sqlite://test.db")
			t.Setenv("URI_LEN", "")
			t.Setenv("BUFFER_LEN", "")
			t.Setenv("REQUEST_TIMEOUT", "")
			t.Setenv(tt.key, tt.value)

			c, err := Load(nil)
			assert.Nil(t, c)
			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr), "want *config.Error, got %v", err)
			assert.Equal(t, tt.key, cfgErr.Field)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"valid", func(c *Config) {}, ""},
		{"token length 5", func(c *Config) { c.TokenLength = 5 }, "URI_LEN"},
		{"token length 6", func(c *Config) { c.TokenLength = 6 }, ""},
		{"zero cache", func(c *Config) { c.CacheSize = 0 }, "BUFFER_LEN"},
		{"obfs without salt", func(c *Config) { c.Encoder = EncoderObfs }, "SALT"},
		{"obfs ignores token length", func(c *Config) { c.Encoder = EncoderObfs; c.Salt = "s"; c.TokenLength = 1 }, ""},
		{"unknown encoder", func(c *Config) { c.Encoder = "md5" }, "ENCODER"},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, "REQUEST_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr), "want *config.Error, got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}
