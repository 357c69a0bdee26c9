package middleware

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilylbgg/cdi-logger/users/util"
)

type fakeValidator struct {
	valid string
}

func (f fakeValidator) ValidateAccessToken(token string) (*util.OperatorClaims, error) {
	if token != f.valid {
		return nil, errors.New("bad token")
	}
	claims := &util.OperatorClaims{SessionID: "s1"}
	claims.Subject = "admin"
	return claims, nil
}

func whoami(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "no claims", http.StatusInternalServerError)
		return
	}
	w.Write([]byte(claims.Username()))
}

func TestLoginRequired(t *testing.T) {
	h := ApplyDefault(whoami, fakeValidator{valid: "good"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
		{"good token", "Bearer good", http.StatusOK, "admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/slots", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h(rr, req)
			assert.Equal(t, tt.status, rr.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rr.Body.String())
			}
		})
	}
}

func TestEnableCrossOrigin(t *testing.T) {
	called := false
	h := EnableCrossOrigin(func(w http.ResponseWriter, r *http.Request) { called = true })

	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodOptions, "/api/stats", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, called)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	t.Setenv("ENABLE_CROSS_ORIGIN", "1")
	rr = httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	assert.True(t, called)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestLogRequestsRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	h := LogRequests(slog.New(slog.NewTextHandler(&buf, nil)))(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusTeapot, rr.Code)
	assert.Contains(t, buf.String(), "status=418")
	assert.Contains(t, buf.String(), "path=/api/status")
}
