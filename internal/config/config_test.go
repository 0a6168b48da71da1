package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(write(t, "auth:\n  jwt_secret: s3cret\n"))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "localhost:8082", cfg.HTTPServer.Addr)
	assert.Equal(t, 30*time.Second, cfg.HTTPServer.WriteTimeout)
	assert.Equal(t, int64(10<<20), cfg.HTTPServer.MaxUploadBytes)
	assert.Equal(t, "student-photos", cfg.Blob.Bucket)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("ROSTER_COURSES", "Medicine;Law")

	cfg, err := Load(write(t, "env: prod\nstorage:\n  driver: sqlite\nauth:\n  jwt_secret: s3cret\n"))
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, []string{"Medicine", "Law"}, cfg.Roster.Courses)
}

func TestLoad_Rejects(t *testing.T) {
	tests := map[string]string{
		"missing secret":        "env: dev\n",
		"unknown driver":        "storage:\n  driver: mongo\nauth:\n  jwt_secret: s\n",
		"postgres without url":  "storage:\n  driver: postgres\nauth:\n  jwt_secret: s\n",
		"non-positive max body": "http_server:\n  max_upload_bytes: -1\nauth:\n  jwt_secret: s\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(write(t, body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
