// Package api exposes the attendance log and its statistics over HTTP.
//
// Every route except status and the token endpoints requires a bearer
// access token issued by /api/login or /api/refresh. Store failures are
// reported to clients as "operation failed"; the detail is only logged.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ilylbgg/cdi-logger/applib"
	"github.com/ilylbgg/cdi-logger/applib/middleware"
	"github.com/ilylbgg/cdi-logger/audit"
	"github.com/ilylbgg/cdi-logger/database"
	"github.com/ilylbgg/cdi-logger/stats"
	"github.com/ilylbgg/cdi-logger/users/auth"
	"github.com/ilylbgg/cdi-logger/users/sessions"
)

var (
	errOperationFailed = errors.New("operation failed")
	errInvalidLimit    = errors.New("limit must be a positive integer")
)

type Options struct {
	Name        string
	Theme       string
	Store       *database.Store
	Engine      *stats.Engine
	Sessions    *sessions.SessionManager
	Credentials *auth.Credentials
	Audit       *audit.Logger
	Validate    *validator.Validate
	Now         func() time.Time
	Logger      *slog.Logger
}

type Server struct {
	Options
	version string
}

func NewServer(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Validate == nil {
		opts.Validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return &Server{Options: opts}
}

// Register installs every route on app.
func (s *Server) Register(app *applib.Application) {
	s.version = app.Version()
	logger := app.Logger()

	public := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.ApplyPublic(h, logger)
	}
	private := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.ApplyDefault(h, s.Sessions, logger)
	}

	app.HandleFunc("OPTIONS /api/", public(func(http.ResponseWriter, *http.Request) {}))

	app.HandleFunc("GET /api/status", public(s.handleStatus))
	app.HandleFunc("POST /api/login", public(s.handleLogin))
	app.HandleFunc("POST /api/refresh", public(s.handleRefresh))
	app.HandleFunc("POST /api/logout", public(s.handleLogout))

	app.HandleFunc("GET /api/slots", private(s.handleSlots))
	app.HandleFunc("POST /api/publish", private(s.handlePublish))
	app.HandleFunc("GET /api/attendance", private(s.handleAttendance))
	app.HandleFunc("GET /api/export.csv", private(s.handleExport))

	app.HandleFunc("GET /api/stats", private(s.handleSummary))
	app.HandleFunc("GET /api/stats/total", private(s.handleTotal))
	app.HandleFunc("GET /api/stats/average", private(s.handleAverage))
	app.HandleFunc("GET /api/stats/average/week", private(s.handleAverageWeek))
	app.HandleFunc("GET /api/stats/peak", private(s.handlePeak))
	app.HandleFunc("GET /api/stats/grades", private(s.handleGrades))

	app.HandleFunc("GET /api/audit", private(s.handleAudit))
}

// operator returns the username attached to the request by LoginRequired.
func operator(r *http.Request) string {
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		return claims.Username()
	}
	return ""
}

func (s *Server) storeFailed(r *http.Request, err error) error {
	s.Logger.Error("store operation failed", "path", r.URL.Path, "error", err)
	return errOperationFailed
}
