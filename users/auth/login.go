package auth

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ilylbgg/cdi-logger/users/sessions"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidRequest     = errors.New("invalid request")
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	SessionID    string `json:"session_id,omitempty"`
	RefreshToken string `json:"refresh_token"`
	AccessToken  string `json:"access_token"`
}

// DoLogin checks the credentials, opens a session and issues its first
// access token.
func DoLogin(creds *Credentials, sessionManager *sessions.SessionManager, validate *validator.Validate, loginRequest LoginRequest) (*TokenResponse, error) {
	if err := validate.Struct(loginRequest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if !creds.Authenticate(loginRequest.Username, loginRequest.Password) {
		return nil, ErrInvalidCredentials
	}

	session, err := sessionManager.CreateSession(loginRequest.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	accessToken, refreshToken, err := sessionManager.RefreshAccessToken(session, session.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	return &TokenResponse{
		SessionID:    session.ID,
		RefreshToken: refreshToken,
		AccessToken:  accessToken,
	}, nil
}
