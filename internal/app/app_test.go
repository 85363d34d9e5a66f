package app

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/recipes/internal/auth"
	"github.com/patric-chuzhbe/recipes/internal/config"
	"github.com/patric-chuzhbe/recipes/internal/db/memorystorage"
	"github.com/patric-chuzhbe/recipes/internal/models"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	secretFile := filepath.Join(dir, "secret_key")
	require.NoError(t, os.WriteFile(secretFile, []byte("app-test-secret\n"), 0600))

	return &config.Config{
		RunAddr:             ":0",
		BaseURL:             "http://localhost:3000",
		LogLevel:            "debug",
		DBFileName:          filepath.Join(dir, "db.json"),
		DBConnectionTimeout: time.Second,
		SecretKeyFile:       secretFile,
		TokenTTL:            time.Hour,
		TrustedSubnet:       "127.0.0.0/8",
		AllowedOrigins:      []string{"*"},
	}
}

func TestGetAvailableStorageType(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		expected int
	}{
		{name: "dsn wins", cfg: config.Config{DatabaseDSN: "postgres://x", DBFileName: "db.json"}, expected: models.StorageTypePostgresql},
		{name: "file", cfg: config.Config{DBFileName: "db.json"}, expected: models.StorageTypeFile},
		{name: "memory", cfg: config.Config{}, expected: models.StorageTypeMemory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, getAvailableStorageType(&tt.cfg))
		})
	}
}

func TestNewFailsWithoutSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.SecretKeyFile = filepath.Join(t.TempDir(), "absent")

	_, err := newWithConfig(cfg)
	assert.ErrorIs(t, err, auth.ErrSecretMissing)
}

func TestUsersSurviveRestart(t *testing.T) {
	cfg := testConfig(t)
	credentials := models.AuthRequest{Username: "alice", Password: "pw1"}

	first, err := newWithConfig(cfg)
	require.NoError(t, err)
	srv := httptest.NewServer(first.httpHandler)

	resp, err := resty.New().R().
		SetHeader("Content-Type", "application/json").
		SetBody(credentials).
		Post(srv.URL + "/auth/signup")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	srv.Close()
	require.NoError(t, first.db.Close())

	second, err := newWithConfig(cfg)
	require.NoError(t, err)
	srv = httptest.NewServer(second.httpHandler)
	defer srv.Close()
	defer second.db.Close()

	resp, err = resty.New().R().
		SetHeader("Content-Type", "application/json").
		SetBody(credentials).
		Post(srv.URL + "/auth/login")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())

	resp, err = resty.New().R().
		SetHeader("Content-Type", "application/json").
		SetBody(credentials).
		Post(srv.URL + "/auth/signup")
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode())

	resp, err = resty.New().R().Get(srv.URL + "/internal/stats")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.JSONEq(t, `{"users":1,"ingredients":0,"recipes":0}`, string(resp.Body()))
}

func TestMemoryStorageWhenFilePathCleared(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBFileName = ""

	theApp, err := newWithConfig(cfg)
	require.NoError(t, err)
	defer theApp.db.Close()

	assert.IsType(t, &memorystorage.MemoryStorage{}, theApp.db)
}
