package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "config.cfg"))
	require.NoError(t, err)

	assert.Equal(t, "cdi_stats.db", cfg.Database.Base)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.Database.Dir)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.False(t, cfg.Auth.HashedPasswords)
	assert.Equal(t, filepath.Join(dir, "data", "users.csv"), cfg.Auth.UsersFile)
	assert.Equal(t, filepath.Join(dir, "logs"), cfg.Log.Dir)
	assert.Equal(t, "@hourly", cfg.Maintenance.SessionCleanup)
	assert.Equal(t, 365*24*time.Hour, cfg.Maintenance.AuditRetention)

	slots, err := cfg.SlotSet()
	require.NoError(t, err)
	assert.Equal(t, 8, slots.Len())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.cfg")
	err := os.WriteFile(path, []byte(`[General]
CDI_Name = CDI Jean Moulin

[Database]
Base = 2024-2025.db
Dir = /var/lib/cdistats

[UI]
Theme = Dark

[Slots]
First = 9
Last = 16
Breaks = 12:00, 13

[Auth]
HashedPasswords = true
SessionTTL = 12h

[Server]
Port = 9090

[Maintenance]
AuditCleanup =
AuditRetention = 720h
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "CDI Jean Moulin", cfg.General.CDIName)
	assert.Equal(t, "2024-2025.db", cfg.Database.Base)
	assert.Equal(t, "/var/lib/cdistats", cfg.Database.Dir)
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.True(t, cfg.Auth.HashedPasswords)
	assert.Equal(t, 12*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "", cfg.Maintenance.AuditCleanup)
	assert.Equal(t, 720*time.Hour, cfg.Maintenance.AuditRetention)

	slots, err := cfg.SlotSet()
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00", "11:00", "14:00", "15:00", "16:00"}, slots.Labels())
}

func TestLoadRejectsUnknownTheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.cfg")
	require.NoError(t, os.WriteFile(path, []byte("[UI]\nTheme = neon\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "7070")
	t.Setenv(EnvDBBase, "override.db")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.cfg"))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "override.db", cfg.Database.Base)
	assert.Equal(t, "debug", cfg.Log.Level)

	t.Setenv(EnvPort, "not-a-port")
	_, err = Load(filepath.Join(t.TempDir(), "missing.cfg"))
	assert.Error(t, err)
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	assert.Equal(t, DefaultPath, ResolvePath(""))

	t.Setenv(EnvConfigPath, "/etc/cdistats.cfg")
	assert.Equal(t, "/etc/cdistats.cfg", ResolvePath(""))
	assert.Equal(t, "local.cfg", ResolvePath("local.cfg"))
}
