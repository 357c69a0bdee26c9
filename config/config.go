// Package config loads the settings file shared by the server and the CLI.
// The file uses the INI layout of the original config.cfg; values missing
// from it fall back to defaults, and a few can be overridden from the
// environment (optionally populated from a .env file).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"

	"github.com/ilylbgg/cdi-logger/attendance"
)

const (
	DefaultPath = "config.cfg"

	EnvConfigPath = "CDISTATS_CONFIG"
	EnvPort       = "CDISTATS_PORT"
	EnvDBBase     = "CDISTATS_DB_BASE"
	EnvDBDir      = "CDISTATS_DB_DIR"
	EnvLogLevel   = "CDISTATS_LOG_LEVEL"
)

type Config struct {
	// File the settings were read from; relative paths below are resolved
	// against its directory.
	Path string

	General  GeneralConfig
	Database DatabaseConfig
	UI       UIConfig
	Slots    SlotsConfig
	Auth     AuthConfig
	Server   ServerConfig
	Log      LogConfig

	Maintenance MaintenanceConfig
}

type GeneralConfig struct {
	CDIName string
}

type DatabaseConfig struct {
	Dir  string
	Base string
}

type UIConfig struct {
	Theme string
}

type SlotsConfig struct {
	First  int
	Last   int
	Breaks []int
}

type AuthConfig struct {
	UsersFile       string
	HashedPasswords bool
	AccessTokenTTL  time.Duration
	SessionTTL      time.Duration
	JWTSecretPath   string
}

type ServerConfig struct {
	Port int
}

// MaintenanceConfig holds cron schedules for the server's housekeeping jobs.
// An empty schedule disables the job.
type MaintenanceConfig struct {
	SessionCleanup string
	AuditCleanup   string
	AuditRetention time.Duration
}

type LogConfig struct {
	Dir   string
	Level string
}

// LoadEnv reads a .env file from the working directory into the process
// environment, if there is one.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to read .env file", "error", err)
		}
	}
}

// ResolvePath picks the settings file: the explicit flag value, then
// $CDISTATS_CONFIG, then config.cfg.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return DefaultPath
}

// Load reads the settings file at path. A missing file is not an error: the
// defaults are used instead.
func Load(path string) (*Config, error) {
	file, err := ini.LooseLoad(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	general := file.Section("General")
	db := file.Section("Database")
	ui := file.Section("UI")
	slots := file.Section("Slots")
	auth := file.Section("Auth")
	server := file.Section("Server")
	logSection := file.Section("Log")
	maintenance := file.Section("Maintenance")

	cfg := &Config{
		Path: path,
		General: GeneralConfig{
			CDIName: general.Key("CDI_Name").MustString("AUCUN NOM"),
		},
		Database: DatabaseConfig{
			Dir:  db.Key("Dir").MustString("data"),
			Base: db.Key("Base").MustString("cdi_stats.db"),
		},
		UI: UIConfig{
			Theme: strings.ToLower(ui.Key("Theme").MustString("light")),
		},
		Slots: SlotsConfig{
			First:  slots.Key("First").MustInt(attendance.DefaultFirstHour),
			Last:   slots.Key("Last").MustInt(attendance.DefaultLastHour),
			Breaks: attendance.DefaultBreaks,
		},
		Auth: AuthConfig{
			UsersFile:       auth.Key("UsersFile").MustString(filepath.Join("data", "users.csv")),
			HashedPasswords: auth.Key("HashedPasswords").MustBool(false),
			AccessTokenTTL:  auth.Key("AccessTokenTTL").MustDuration(5 * time.Minute),
			SessionTTL:      auth.Key("SessionTTL").MustDuration(30 * 24 * time.Hour),
			JWTSecretPath:   auth.Key("JWTSecretPath").MustString(filepath.Join("data", "jwt_secret.key")),
		},
		Server: ServerConfig{
			Port: server.Key("Port").MustInt(8080),
		},
		Log: LogConfig{
			Dir:   logSection.Key("Dir").MustString("logs"),
			Level: logSection.Key("Level").MustString("info"),
		},
		Maintenance: MaintenanceConfig{
			SessionCleanup: schedule(maintenance, "SessionCleanup", "@hourly"),
			AuditCleanup:   schedule(maintenance, "AuditCleanup", "@daily"),
			AuditRetention: maintenance.Key("AuditRetention").MustDuration(365 * 24 * time.Hour),
		},
	}

	if slots.HasKey("Breaks") {
		breaks, err := parseHours(slots.Key("Breaks").String())
		if err != nil {
			return nil, fmt.Errorf("invalid [Slots] Breaks: %w", err)
		}
		cfg.Slots.Breaks = breaks
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.UI.Theme != "light" && cfg.UI.Theme != "dark" {
		return nil, fmt.Errorf("invalid [UI] Theme %q: want light or dark", cfg.UI.Theme)
	}

	cfg.Database.Dir = cfg.resolve(cfg.Database.Dir)
	cfg.Auth.UsersFile = cfg.resolve(cfg.Auth.UsersFile)
	cfg.Auth.JWTSecretPath = cfg.resolve(cfg.Auth.JWTSecretPath)
	cfg.Log.Dir = cfg.resolve(cfg.Log.Dir)
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv(EnvDBBase); v != "" {
		c.Database.Base = v
	}
	if v := os.Getenv(EnvDBDir); v != "" {
		c.Database.Dir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}

// SlotSet builds the canonical slots from the [Slots] section.
func (c *Config) SlotSet() (attendance.SlotSet, error) {
	return attendance.NewSlotSet(c.Slots.First, c.Slots.Last, c.Slots.Breaks)
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(c.Path), p)
}

// schedule reads a cron schedule. Unlike MustString, a key present with an
// empty value yields "" so that a job can be disabled.
func schedule(section *ini.Section, key, def string) string {
	if !section.HasKey(key) {
		return def
	}
	return strings.TrimSpace(section.Key(key).String())
}

func parseHours(s string) ([]int, error) {
	hours := []int{}
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		// Accept both "12" and "12:00".
		field = strings.TrimSuffix(field, ":00")
		h, err := strconv.Atoi(field)
		if err != nil {
			return nil, err
		}
		hours = append(hours, h)
	}
	return hours, nil
}
