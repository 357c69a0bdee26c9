package auth

import (
	"fmt"

	"github.com/ilylbgg/cdi-logger/users/sessions"
)

// DoLogout ends the session owning refreshToken and returns its username.
func DoLogout(sessionManager *sessions.SessionManager, refreshToken string) (string, error) {
	session, err := sessionManager.GetSessionByRefreshToken(refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to get session: %w", err)
	}

	if err := sessionManager.DeleteSession(session); err != nil {
		return "", fmt.Errorf("failed to delete session: %w", err)
	}

	return session.Username, nil
}
