// ABOUTME: Tests for configuration loading, env expansion, and validation
// ABOUTME: Covers duration parsing and the lock timing sanity check

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: https://tutor.example.com
  request_timeout: 30s

webrtc:
  stun_servers:
    - stun:stun.l.google.com:19302
    - stun:stun1.l.google.com:19302
  gather_timeout: 10s

lock:
  ttl: 12s
  heartbeat_interval: 5s

avatar:
  default: test_yongen
  cold_start_settle: 2s
  disconnect_settle: 500ms
  reconnect_settle: 1s

storage:
  path: /tmp/avatar-link.db

media:
  dir: /tmp/recordings

logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://tutor.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Backend.RequestTimeout)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302", "stun:stun1.l.google.com:19302"}, cfg.WebRTC.STUNServers)
	assert.Equal(t, 10*time.Second, cfg.WebRTC.GatherTimeout)
	assert.Equal(t, 12*time.Second, cfg.Lock.TTL)
	assert.Equal(t, 5*time.Second, cfg.Lock.HeartbeatInterval)
	assert.Equal(t, "test_yongen", cfg.Avatar.Default)
	assert.Equal(t, 2*time.Second, cfg.Avatar.ColdStartSettle)
	assert.Equal(t, 500*time.Millisecond, cfg.Avatar.DisconnectSettle)
	assert.Equal(t, time.Second, cfg.Avatar.ReconnectSettle)
	assert.Equal(t, "/tmp/avatar-link.db", cfg.Storage.Path)
	assert.Equal(t, "/tmp/recordings", cfg.Media.Dir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_MinimalConfig(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: http://localhost:8010
storage:
  path: state.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// Timings omitted stay zero; consumers apply defaults
	assert.Zero(t, cfg.Lock.TTL)
	assert.Zero(t, cfg.Avatar.ColdStartSettle)
	assert.Empty(t, cfg.Avatar.Default)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("AVATAR_LINK_URL", "http://backend.internal:8010")
	t.Setenv("AVATAR_LINK_DB", "/var/lib/avatar-link/state.db")

	path := writeConfig(t, `
backend:
  base_url: ${AVATAR_LINK_URL}
storage:
  path: ${AVATAR_LINK_DB}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://backend.internal:8010", cfg.Backend.BaseURL)
	assert.Equal(t, "/var/lib/avatar-link/state.db", cfg.Storage.Path)
}

func TestLoad_UnsetEnvVarBecomesEmpty(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: ${AVATAR_LINK_DOES_NOT_EXIST}
storage:
  path: state.db
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend.base_url is required")
}

func TestLoad_MissingBaseURL(t *testing.T) {
	path := writeConfig(t, `
storage:
  path: state.db
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend.base_url is required")
}

func TestLoad_MissingStoragePath(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: http://localhost:8010
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.path is required")
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: http://localhost:8010
storage:
  path: state.db
lock:
  ttl: twelve-seconds
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock.ttl")
}

func TestLoad_HeartbeatSlowerThanTTL(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: http://localhost:8010
storage:
  path: state.db
lock:
  ttl: 5s
  heartbeat_interval: 12s
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be shorter than lock.ttl")
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "backend: [this is not\n  a mapping")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}
