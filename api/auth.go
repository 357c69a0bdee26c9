package api

import (
	"errors"
	"net/http"

	"github.com/ilylbgg/cdi-logger/applib/httputils"
	"github.com/ilylbgg/cdi-logger/users/auth"
)

var errUnauthorized = errors.New("unauthorized")

type StatusResponse struct {
	Name     string `json:"name"`
	Database string `json:"database"`
	Theme    string `json:"theme"`
	Version  string `json:"version"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	httputils.HandleAPIResponse(w, r, StatusResponse{
		Name:     s.Name,
		Database: s.Store.Path(),
		Theme:    s.Theme,
		Version:  s.version,
	}, nil, http.StatusOK)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := httputils.DecodeJSON(r, &req); err != nil {
		httputils.HandleAPIResponse(w, r, nil, err, http.StatusBadRequest)
		return
	}

	resp, err := auth.DoLogin(s.Credentials, s.Sessions, s.Validate, req)
	switch {
	case errors.Is(err, auth.ErrInvalidRequest):
		httputils.HandleAPIResponse(w, r, nil, err, http.StatusBadRequest)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.Logger.Warn("login failed", "username", req.Username)
		if aerr := s.Audit.LogLoginFailed(req.Username); aerr != nil {
			s.Logger.Error("failed to write audit event", "error", aerr)
		}
		httputils.HandleAPIResponse(w, r, nil, err, http.StatusUnauthorized)
		return
	case err != nil:
		httputils.HandleAPIResponse(w, r, nil, s.storeFailed(r, err), http.StatusInternalServerError)
		return
	}

	s.Logger.Info("login succeeded", "username", req.Username)
	if aerr := s.Audit.LogLogin(req.Username, resp.RefreshToken); aerr != nil {
		s.Logger.Error("failed to write audit event", "error", aerr)
	}
	httputils.HandleAPIResponse(w, r, resp, nil, http.StatusOK)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req auth.RefreshRequest
	if err := httputils.DecodeJSON(r, &req); err != nil {
		httputils.HandleAPIResponse(w, r, nil, err, http.StatusBadRequest)
		return
	}

	resp, err := auth.DoRefresh(s.Sessions, s.Validate, req)
	if errors.Is(err, auth.ErrInvalidRequest) {
		httputils.HandleAPIResponse(w, r, nil, err, http.StatusBadRequest)
		return
	}
	if err != nil {
		s.Logger.Debug("refresh rejected", "error", err)
		httputils.HandleAPIResponse(w, r, nil, errUnauthorized, http.StatusUnauthorized)
		return
	}
	httputils.HandleAPIResponse(w, r, resp, nil, http.StatusOK)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req auth.RefreshRequest
	if err := httputils.DecodeJSON(r, &req); err != nil {
		httputils.HandleAPIResponse(w, r, nil, err, http.StatusBadRequest)
		return
	}

	username, err := auth.DoLogout(s.Sessions, req.RefreshToken)
	if err != nil {
		s.Logger.Debug("logout rejected", "error", err)
		httputils.HandleAPIResponse(w, r, nil, errUnauthorized, http.StatusUnauthorized)
		return
	}

	if aerr := s.Audit.LogLogout(username, req.RefreshToken); aerr != nil {
		s.Logger.Error("failed to write audit event", "error", aerr)
	}
	httputils.HandleAPIResponse(w, r, map[string]string{"status": "success"}, nil, http.StatusOK)
}
