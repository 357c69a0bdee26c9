package sessions

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"

	"github.com/ilylbgg/cdi-logger/users/util"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrSessionExpired      = errors.New("session expired")
	ErrInvalidAccessToken  = errors.New("invalid access token")
)

// SessionManager handles the lifecycle of operator sessions and tokens.
type SessionManager struct {
	db            *sqlx.DB
	accessExpiry  time.Duration // How long access tokens are valid
	sessionExpiry time.Duration // How long sessions are valid without a refresh
	jwtSecretKey  []byte
	now           func() time.Time
	logger        *slog.Logger
}

// NewManager creates the sessions table if needed and returns a manager
// signing access tokens with jwtSecretKey.
func NewManager(db *sqlx.DB, accessTokenExpiry, sessionExpiry time.Duration, jwtSecretKey []byte, logger *slog.Logger) (*SessionManager, error) {
	if err := DBInit(db); err != nil {
		return nil, fmt.Errorf("failed to initialize sessions table: %w", err)
	}
	if len(jwtSecretKey) == 0 {
		return nil, errors.New("empty JWT secret key")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionManager{
		db:            db,
		accessExpiry:  accessTokenExpiry,
		sessionExpiry: sessionExpiry,
		jwtSecretKey:  jwtSecretKey,
		now:           time.Now,
		logger:        logger,
	}, nil
}

// SetClock replaces the time source, for tests.
func (m *SessionManager) SetClock(now func() time.Time) {
	m.now = now
}

// CreateSession opens a new session for an operator who just logged in.
func (m *SessionManager) CreateSession(username string) (*Session, error) {
	session, err := NewSession(username, m.now())
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if err := session.DBCreate(m.db); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	m.logger.Info("session created", "session_id", session.ID, "username", username)
	return session, nil
}

func (m *SessionManager) GetSession(sessionID string) (*Session, error) {
	session, err := DBGetSessionByID(m.db, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return m.checkExpiry(session)
}

func (m *SessionManager) GetSessionByRefreshToken(refreshToken string) (*Session, error) {
	session, err := DBGetSessionByRefreshToken(m.db, refreshToken)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return m.checkExpiry(session)
}

func (m *SessionManager) checkExpiry(session *Session) (*Session, error) {
	if m.now().Sub(session.LastRefreshed) > m.sessionExpiry {
		session.DBDelete(m.db)
		return nil, ErrSessionExpired
	}
	return session, nil
}

// DeleteSession ends a session.
func (m *SessionManager) DeleteSession(session *Session) error {
	m.logger.Info("session deleted", "session_id", session.ID, "username", session.Username)
	return session.DBDelete(m.db)
}

// DeleteExpiredSessions removes sessions that have been inactive for longer
// than the session expiry.
func (m *SessionManager) DeleteExpiredSessions() error {
	n, err := DBDeleteExpiredSessions(m.db, m.sessionExpiry, m.now())
	if err != nil {
		return err
	}
	if n > 0 {
		m.logger.Info("deleted expired sessions", "count", n)
	}
	return nil
}

// RefreshAccessToken creates a new JWT access token and rotates the session's
// refresh token. It returns the access and refresh tokens.
func (m *SessionManager) RefreshAccessToken(session *Session, refreshToken string) (string, string, error) {
	if session.RefreshToken != refreshToken {
		return "", "", ErrInvalidRefreshToken
	}
	if _, err := m.checkExpiry(session); err != nil {
		return "", "", err
	}

	now := m.now().UTC()
	claims := util.OperatorClaims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.jwtSecretKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign JWT token: %w", err)
	}

	newRefreshToken, err := session.DBUpdateRefreshToken(m.db, now)
	if err != nil {
		return "", "", fmt.Errorf("failed to update session with new refresh token: %w", err)
	}

	return tokenString, newRefreshToken, nil
}

// ValidateAccessToken checks the signature and expiry of an access token and
// returns its claims.
func (m *SessionManager) ValidateAccessToken(tokenString string) (*util.OperatorClaims, error) {
	var claims util.OperatorClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return m.jwtSecretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccessToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidAccessToken
	}
	return &claims, nil
}
