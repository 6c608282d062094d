package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultCookieName = "session"
	defaultSigningAlg = "HS256"
)

type sessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// Manager config with sensible defaults
type Config struct {
	// Secret key to sign the session cookie
	// Required to be set
	SecretKey string

	// Cookie name, "session" if not set
	CookieName string
}

// Manager issues and verifies the signed session id cookie
// The id maps a browser to its server side values in a Store; the cookie carries
// no state itself. SameSite=None + Secure because the provider redirects cross site
type Manager struct {
	key        string
	alg        jwt.SigningMethod
	cookieName string
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}

	return &Manager{
		key:        cfg.SecretKey,
		alg:        jwt.GetSigningMethod(defaultSigningAlg),
		cookieName: cfg.CookieName,
	}, nil
}

// Load returns the session id from the request cookie
// Fails if the cookie is absent or its signature does not verify
func (m *Manager) Load(r *http.Request) (string, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return "", fmt.Errorf("no session cookie: %w", err)
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(
		cookie.Value,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(m.key), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
	)
	if err != nil {
		return "", fmt.Errorf("session cookie did not verify. Err: %w", err)
	}
	if !token.Valid || claims.SessionID == "" {
		return "", errors.New("session cookie did not verify")
	}

	return claims.SessionID, nil
}

// Ensure returns the request's session id, starting a fresh session if needed
// A new session sets the cookie on the response
func (m *Manager) Ensure(w http.ResponseWriter, r *http.Request) (string, error) {
	if sid, err := m.Load(r); err == nil {
		return sid, nil
	}

	sid := uuid.NewString()

	signed, err := jwt.NewWithClaims(
		m.alg,
		sessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:       uuid.NewString(),
				IssuedAt: jwt.NewNumericDate(time.Now()),
			},
			SessionID: sid,
		},
	).SignedString([]byte(m.key))
	if err != nil {
		return "", fmt.Errorf("error while signing session cookie. Err: %w", err)
	}

	// No MaxAge: the cookie is dropped when the browser closes
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})

	return sid, nil
}
