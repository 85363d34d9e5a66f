package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJSON = `{
	"server_address": ":4500",
	"base_url": "http://json-config.com",
	"file_storage_path": "json_storage.json",
	"database_dsn": "json-dsn",
	"db_connection_timeout": "3s",
	"token_ttl": "30m"
}`

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	fileName := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(fileName, []byte(content), 0644))
	return fileName
}

func TestApplyDefaults(t *testing.T) {
	values := Config{}

	applyDefaults(&values, defaultConfig)

	assert.Equal(t, defaultConfig, values)
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.RunAddr)
	assert.Equal(t, "http://localhost:3000", cfg.BaseURL)
	assert.Equal(t, "secret_key", cfg.SecretKeyFile)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
}

func TestConfigPriorityJSONOnly(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":4500", cfg.RunAddr)
	assert.Equal(t, "http://json-config.com", cfg.BaseURL)
	assert.Equal(t, "json_storage.json", cfg.DBFileName)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN)
	assert.Equal(t, 3*time.Second, cfg.DBConnectionTimeout)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, jsonPath, cfg.ConfigFile)
}

func TestConfigPriorityJSONPlusEnv(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)
	t.Setenv("SERVER_ADDRESS", ":4000")
	t.Setenv("BASE_URL", "http://env.com")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.RunAddr) // env overrides json
	assert.Equal(t, "http://env.com", cfg.BaseURL)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN) // from JSON
}

func TestConfigPriorityAllSources(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)
	t.Setenv("SERVER_ADDRESS", ":4000")
	t.Setenv("BASE_URL", "http://env.com")

	cfg, err := New(WithArgs([]string{
		"-a", ":6000",
		"-b", "http://cli.com",
		"-ttl", "5m",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.RunAddr) // CLI > ENV > JSON
	assert.Equal(t, "http://cli.com", cfg.BaseURL)
	assert.Equal(t, 5*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN) // from JSON
}

func TestConfigFileFromFlag(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)

	cfg, err := New(WithArgs([]string{"-c", jsonPath}))
	require.NoError(t, err)
	assert.Equal(t, ":4500", cfg.RunAddr)

	cfg, err = New(WithArgs([]string{"-config=" + jsonPath, "-a", ":7100"}))
	require.NoError(t, err)
	assert.Equal(t, ":7100", cfg.RunAddr)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN)
}

func TestConfigEnvOnly(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":7000")
	t.Setenv("BASE_URL", "http://envonly.com")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TRUSTED_SUBNET", "10.0.0.0/8")
	t.Setenv("TOKEN_TTL", "90s")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.RunAddr)
	assert.Equal(t, "http://envonly.com", cfg.BaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "10.0.0.0/8", cfg.TrustedSubnet)
	assert.Equal(t, 90*time.Second, cfg.TokenTTL)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown log level", key: "LOG_LEVEL", value: "verbose"},
		{name: "malformed address", key: "SERVER_ADDRESS", value: "no-port"},
		{name: "malformed base url", key: "BASE_URL", value: "localhost"},
		{name: "malformed subnet", key: "TRUSTED_SUBNET", value: "10.0.0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := New(WithDisableFlagsParsing(true))
			assert.Error(t, err)
		})
	}
}

func TestConfigMissingJSONFile(t *testing.T) {
	t.Setenv("CONFIG", filepath.Join(t.TempDir(), "absent.json"))

	_, err := New(WithDisableFlagsParsing(true))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigFileStoragePathCanBeCleared(t *testing.T) {
	t.Run("env", func(t *testing.T) {
		t.Setenv("FILE_STORAGE_PATH", "")

		cfg, err := New(WithDisableFlagsParsing(true))
		require.NoError(t, err)
		assert.Empty(t, cfg.DBFileName)
	})

	t.Run("flag", func(t *testing.T) {
		cfg, err := New(WithArgs([]string{"-f", ""}))
		require.NoError(t, err)
		assert.Empty(t, cfg.DBFileName)
	})

	t.Run("json", func(t *testing.T) {
		t.Setenv("CONFIG", writeTempJSON(t, `{"file_storage_path": ""}`))

		cfg, err := New(WithDisableFlagsParsing(true))
		require.NoError(t, err)
		assert.Empty(t, cfg.DBFileName)
	})

	t.Run("json without the key keeps the default", func(t *testing.T) {
		t.Setenv("CONFIG", writeTempJSON(t, `{"server_address": ":4500"}`))

		cfg, err := New(WithDisableFlagsParsing(true))
		require.NoError(t, err)
		assert.Equal(t, "db.json", cfg.DBFileName)
	})
}

func TestConfigCORSAndProxy(t *testing.T) {
	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.False(t, cfg.TrustProxyHeaders)

	t.Setenv("ALLOWED_ORIGINS", "http://localhost:5173,https://recipes.example.com")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg, err = New(WithDisableFlagsParsing(true))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:5173", "https://recipes.example.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.TrustProxyHeaders)

	cfg, err = New(WithArgs([]string{"-o", "http://cli.example.com, http://other.example.com"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://cli.example.com", "http://other.example.com"}, cfg.AllowedOrigins)
}
