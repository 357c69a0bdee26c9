package auth

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ilylbgg/cdi-logger/users/sessions"
)

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// DoRefresh exchanges a refresh token for a new access token. The refresh
// token is rotated; the old one stops working.
func DoRefresh(sessionManager *sessions.SessionManager, validate *validator.Validate, refreshRequest RefreshRequest) (*TokenResponse, error) {
	if err := validate.Struct(refreshRequest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	session, err := sessionManager.GetSessionByRefreshToken(refreshRequest.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	accessToken, refreshToken, err := sessionManager.RefreshAccessToken(session, refreshRequest.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh access token: %w", err)
	}

	return &TokenResponse{
		SessionID:    session.ID,
		RefreshToken: refreshToken,
		AccessToken:  accessToken,
	}, nil
}
