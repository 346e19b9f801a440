package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadPath_Defaults(t *testing.T) {
	req := require.New(t)
	path := writeConfig(t, "env: dev\n")

	cfg, err := LoadPath(path)

	req.NoError(err)
	req.Equal("dev", cfg.Env)
	req.Equal(":8080", cfg.HTTP.Address)
	req.Equal("accessToken", cfg.Auth.CookieName)
	req.Equal(DriverMemory, cfg.Storage.Driver)
	req.Equal(DriverMemory, cfg.Storage.Messages)
	req.Equal(50, cfg.Chat.HistoryLimit)
	req.Equal(4000, cfg.Chat.MaxMessageLength)
	req.Equal(60*time.Second, cfg.WS.PongWait)
	req.Equal([]string{"stun:stun.l.google.com:19302"}, cfg.WebRTC.STUNServers)
	req.Len(cfg.WebRTC.ICEServers(), 1)
	req.Equal(cfg.WebRTC.STUNServers, cfg.WebRTC.ICEServers()[0].URLs)
}

func TestLoadPath_Seed(t *testing.T) {
	req := require.New(t)
	path := writeConfig(t, "storage:\n  seed:\n    - id: demo\n      host_id: alice\n")

	cfg, err := LoadPath(path)

	req.NoError(err)
	req.Equal([]SeedMeeting{{ID: "demo", HostID: "alice"}}, cfg.Storage.Seed)
}

func TestLoadPath_EnvOverrides(t *testing.T) {
	req := require.New(t)
	path := writeConfig(t, "storage:\n  driver: postgres\n  messages: badger\n")
	t.Setenv("ACCESS_TOKEN_SECRET", "s3cret")
	t.Setenv("DATABASE_DSN", "postgres://localhost/meet")

	cfg, err := LoadPath(path)

	req.NoError(err)
	req.Equal("s3cret", cfg.Auth.Secret)
	req.Equal("postgres://localhost/meet", cfg.Database.DSN)
	req.Equal(DriverPostgres, cfg.Storage.Driver)
	req.Equal(DriverBadger, cfg.Storage.Messages)
}

func TestLoadPath_MissingFile(t *testing.T) {
	req := require.New(t)

	_, err := LoadPath(filepath.Join(t.TempDir(), "absent.yaml"))

	req.Error(err)
	req.Panics(func() { MustLoadPath(filepath.Join(t.TempDir(), "absent.yaml")) })
}
