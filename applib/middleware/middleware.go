package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ilylbgg/cdi-logger/users/util"
)

// TokenValidator checks an access token and returns its claims.
type TokenValidator interface {
	ValidateAccessToken(token string) (*util.OperatorClaims, error)
}

// ClaimsFromContext returns the claims LoginRequired attached to the request.
func ClaimsFromContext(ctx context.Context) (*util.OperatorClaims, bool) {
	claims, ok := ctx.Value(util.ClaimsKey).(*util.OperatorClaims)
	return claims, ok
}

func LoginRequired(tokens TokenValidator) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			// Get bearer token from request
			token := r.Header.Get("Authorization")
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if !strings.HasPrefix(token, "Bearer ") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.ValidateAccessToken(strings.TrimPrefix(token, "Bearer "))
			if err != nil {
				slog.Debug("rejected access token", "path", r.URL.Path, "error", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			nextRequest := r.WithContext(context.WithValue(r.Context(), util.ClaimsKey, claims))
			next.ServeHTTP(w, nextRequest)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func LogRequests(logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("request",
				"remote", r.RemoteAddr,
				"method", r.Method,
				"path", r.URL.Path,
				"proto", r.Proto,
				"status", rec.status,
				"duration", time.Since(start),
			)
		}
	}
}

// EnableCrossOrigin answers preflight requests. With ENABLE_CROSS_ORIGIN set
// (for a front-end served from another origin during development) it also
// allows every origin.
func EnableCrossOrigin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if os.Getenv("ENABLE_CROSS_ORIGIN") != "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			// Do not call through to the handler itself, just return immediately
			return
		}

		next.ServeHTTP(w, r)
	}
}

// Combine multiple middleware functions
func Chain(h http.HandlerFunc, middleware ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	for _, m := range middleware {
		h = m(h)
	}
	return h
}

// Apply the default middlewares in the correct order
func ApplyDefault(h http.HandlerFunc, tokens TokenValidator, logger *slog.Logger) http.HandlerFunc {
	return Chain(
		h,
		LoginRequired(tokens),
		EnableCrossOrigin,
		LogRequests(logger),
	)
}

// ApplyPublic is ApplyDefault without authentication.
func ApplyPublic(h http.HandlerFunc, logger *slog.Logger) http.HandlerFunc {
	return Chain(
		h,
		EnableCrossOrigin,
		LogRequests(logger),
	)
}
