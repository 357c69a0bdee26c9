package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ilylbgg/cdi-logger/api"
	"github.com/ilylbgg/cdi-logger/applib"
	"github.com/ilylbgg/cdi-logger/attendance"
	"github.com/ilylbgg/cdi-logger/audit"
	"github.com/ilylbgg/cdi-logger/config"
	"github.com/ilylbgg/cdi-logger/database"
	"github.com/ilylbgg/cdi-logger/export"
	"github.com/ilylbgg/cdi-logger/logging"
	"github.com/ilylbgg/cdi-logger/maintenance"
	"github.com/ilylbgg/cdi-logger/stats"
	"github.com/ilylbgg/cdi-logger/users/auth"
	"github.com/ilylbgg/cdi-logger/users/sessions"
	"github.com/ilylbgg/cdi-logger/users/util"
	"golang.org/x/term"
)

// Set with -ldflags "-X main.version=..."
var version = "dev"

// Operator recorded in the audit trail for actions taken from the command line.
const cliOperator = "cli"

// cliEnv bundles what every subcommand opens from the settings file.
type cliEnv struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *database.Store
	audit    *audit.Logger
	closeLog func() error
}

func open(configFlag string) (*cliEnv, error) {
	config.LoadEnv()

	cfg, err := config.Load(config.ResolvePath(configFlag))
	if err != nil {
		return nil, err
	}
	slots, err := cfg.SlotSet()
	if err != nil {
		return nil, fmt.Errorf("invalid [Slots] section: %w", err)
	}

	logger, closeLog, err := logging.Setup(cfg.Log.Dir, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	store, err := database.Open(database.Options{
		Dir:    cfg.Database.Dir,
		Base:   cfg.Database.Base,
		Slots:  slots,
		Logger: logger,
	})
	if err != nil {
		closeLog()
		return nil, err
	}
	if err := store.Initialize(); err != nil {
		store.Close()
		closeLog()
		return nil, err
	}

	auditLogger, err := audit.NewLogger(store.GetDB())
	if err != nil {
		store.Close()
		closeLog()
		return nil, fmt.Errorf("failed to initialize audit log: %w", err)
	}

	return &cliEnv{cfg: cfg, logger: logger, store: store, audit: auditLogger, closeLog: closeLog}, nil
}

func (rt *cliEnv) Close() {
	rt.store.Close()
	rt.closeLog()
}

// fail reports err and exits. Storage failures print a generic message; the
// detail goes to the log.
func fail(logger *slog.Logger, what string, err error) {
	var storageErr *database.StorageError
	if errors.As(err, &storageErr) {
		logger.Error(what, "error", err)
		fmt.Fprintln(os.Stderr, "operation failed")
		os.Exit(1)
	}
	log.Fatalf("Error %s: %v", what, err)
}

func serve(rt *cliEnv, port int) error {
	cfg := rt.cfg
	if port != 0 {
		cfg.Server.Port = port
	}

	secret, err := util.LoadJWTSecretKey(cfg.Auth.JWTSecretPath)
	if err != nil {
		return err
	}
	sessionManager, err := sessions.NewManager(rt.store.GetDB(), cfg.Auth.AccessTokenTTL, cfg.Auth.SessionTTL, secret, rt.logger)
	if err != nil {
		return err
	}
	creds, err := auth.LoadCredentials(cfg.Auth.UsersFile, cfg.Auth.HashedPasswords)
	if err != nil {
		return err
	}
	if creds.Len() == 0 {
		rt.logger.Warn("no operator accounts, every login will be rejected", "users_file", cfg.Auth.UsersFile)
	}

	server := api.NewServer(api.Options{
		Name:        cfg.General.CDIName,
		Theme:       cfg.UI.Theme,
		Store:       rt.store,
		Engine:      stats.NewEngine(rt.store.Slots(), rt.logger),
		Sessions:    sessionManager,
		Credentials: creds,
		Audit:       rt.audit,
		Validate:    attendance.NewValidator(),
		Logger:      rt.logger,
	})
	app := applib.NewApplication(version, cfg.Server.Port, rt.logger)
	server.Register(app)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := maintenance.NewScheduler(rt.logger)
	if err := scheduler.Add("session cleanup", cfg.Maintenance.SessionCleanup, sessionManager.DeleteExpiredSessions); err != nil {
		return err
	}
	err = scheduler.Add("audit cleanup", cfg.Maintenance.AuditCleanup, func() error {
		n, err := rt.audit.DeleteOldEvents(cfg.Maintenance.AuditRetention)
		if n > 0 {
			rt.logger.Info("deleted old audit events", "count", n)
		}
		return err
	})
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		scheduler.Stop(stopCtx)
	}()

	return app.Serve(ctx)
}

func record(rt *cliEnv, entry attendance.Entry) error {
	now := time.Now()
	if entry.Slot == "" {
		entry.Slot = attendance.RoundToSlot(now)
	}
	if entry.Date == "" {
		entry.Date = now.Format(attendance.DateLayout)
	}

	id, err := rt.store.Append(entry)
	if err != nil {
		return err
	}
	if err := rt.audit.LogAttendanceRecorded(cliOperator, id, entry.Slot, entry.Date); err != nil {
		rt.logger.Error("failed to write audit event", "error", err)
	}
	fmt.Printf("Recorded attendance #%d (%s %s)\n", id, entry.Date, entry.Slot)
	return nil
}

func printStats(rt *cliEnv, window, date string) error {
	kind, err := stats.ParseWindowKind(window)
	if err != nil {
		return err
	}
	ref, err := stats.ParseDate(date, time.Now)
	if err != nil {
		return err
	}
	records, err := rt.store.ReadAll()
	if err != nil {
		return err
	}

	summary := stats.NewEngine(rt.store.Slots(), rt.logger).Summarize(records, ref, kind)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func exportCSV(rt *cliEnv, out string) error {
	records, err := rt.store.ReadAll()
	if err != nil {
		return err
	}

	w := os.Stdout
	if out != "" && out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	if err := export.WriteCSV(w, records); err != nil {
		return err
	}
	if err := rt.audit.LogExport(cliOperator, len(records)); err != nil {
		rt.logger.Error("failed to write audit event", "error", err)
	}
	return nil
}

func hashPassword(password string) error {
	if password == "" {
		var err error
		password, err = readPassword()
		if err != nil {
			return err
		}
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

// readPassword prompts without echo on a terminal and reads a plain line
// otherwise, so the command also works with piped input.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	passwordBytes, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(passwordBytes)), nil
}

func usage() {
	log.Fatalf("Usage: %s <serve|record|stats|export|hashpw> [options]", os.Args[0])
}

func main() {
	// Basic command routing
	if len(os.Args) < 2 {
		usage()
	}

	command := os.Args[1]

	switch command {
	case "serve":
		serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
		configPath := serveCmd.String("config", "", "Path to the settings file")
		port := serveCmd.Int("port", 0, "Port for the HTTP server (overrides [Server] Port)")
		serveCmd.Parse(os.Args[2:])

		rt, err := open(*configPath)
		if err != nil {
			fail(slog.Default(), "opening attendance log", err)
		}
		defer rt.Close()

		if err := serve(rt, *port); err != nil {
			fail(rt.logger, "serving", err)
		}

	case "record":
		recordCmd := flag.NewFlagSet("record", flag.ExitOnError)
		configPath := recordCmd.String("config", "", "Path to the settings file")
		slot := recordCmd.String("slot", "", "Slot label, e.g. 09:00 (default: current hour)")
		date := recordCmd.String("date", "", "Date as YYYY-MM-DD (default: today)")
		grade6 := recordCmd.Int("grade6", 0, "Visitors in 6ème")
		grade5 := recordCmd.Int("grade5", 0, "Visitors in 5ème")
		grade4 := recordCmd.Int("grade4", 0, "Visitors in 4ème")
		grade3 := recordCmd.Int("grade3", 0, "Visitors in 3ème")
		recordCmd.Parse(os.Args[2:])

		rt, err := open(*configPath)
		if err != nil {
			fail(slog.Default(), "opening attendance log", err)
		}
		defer rt.Close()

		err = record(rt, attendance.Entry{
			Slot:   *slot,
			Date:   *date,
			Grade6: *grade6,
			Grade5: *grade5,
			Grade4: *grade4,
			Grade3: *grade3,
		})
		if err != nil {
			fail(rt.logger, "recording attendance", err)
		}

	case "stats":
		statsCmd := flag.NewFlagSet("stats", flag.ExitOnError)
		configPath := statsCmd.String("config", "", "Path to the settings file")
		window := statsCmd.String("window", "week", "day, week or month")
		date := statsCmd.String("date", "", "Reference date as YYYY-MM-DD (default: today)")
		statsCmd.Parse(os.Args[2:])

		rt, err := open(*configPath)
		if err != nil {
			fail(slog.Default(), "opening attendance log", err)
		}
		defer rt.Close()

		if err := printStats(rt, *window, *date); err != nil {
			fail(rt.logger, "computing statistics", err)
		}

	case "export":
		exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
		configPath := exportCmd.String("config", "", "Path to the settings file")
		out := exportCmd.String("out", "", "Output CSV file (default: stdout)")
		exportCmd.Parse(os.Args[2:])

		rt, err := open(*configPath)
		if err != nil {
			fail(slog.Default(), "opening attendance log", err)
		}
		defer rt.Close()

		if err := exportCSV(rt, *out); err != nil {
			fail(rt.logger, "exporting", err)
		}

	case "hashpw":
		hashCmd := flag.NewFlagSet("hashpw", flag.ExitOnError)
		password := hashCmd.String("password", "", "Password to hash (default: read from stdin)")
		hashCmd.Parse(os.Args[2:])

		if err := hashPassword(*password); err != nil {
			log.Fatalf("Error hashing password: %v", err)
		}

	default:
		log.Printf("Unknown command: %s", command)
		usage()
	}
}
