// Package oauth implements the authorization flow of the broker:
// issue the state nonce, validate the provider callback, exchange the code
// and persist the seller's refresh token.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/guillermop/sellerauth/internal/apperrors"
	"github.com/guillermop/sellerauth/internal/logger"
	"github.com/guillermop/sellerauth/internal/repository"
	"github.com/guillermop/sellerauth/internal/session"
)

const (
	// DefaultAuthURL is the Seller Central consent page the user is redirected to
	DefaultAuthURL = "https://sellercentral.amazon.com.mx/apps/authorize/consent"

	// Session key the pending state nonce is bound under
	stateSessionKey = "oauth_state"

	// A pending nonce left unused this long reads as absent and the attempt
	// has to be restarted
	stateTTL = 10 * time.Minute

	// Protocol version marker the consent page expects
	authVersion = "beta"
)

// Exchanger performs the token grants against the provider
type Exchanger interface {
	ExchangeCode(ctx context.Context, code string, redirectURI string) (refreshToken string, err error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (accessToken string, err error)
}

// Callback is what the provider sends back after user consent
type Callback struct {
	Code             string
	State            string
	SellingPartnerID string
}

type Config struct {
	// LWA application id, embedded into the consent URL
	AppID string

	// Redirect URI registered for the application
	RedirectURI string

	// Consent endpoint, DefaultAuthURL if not set
	AuthURL string
}

type Service struct {
	appID       string
	redirectURI string
	authURL     string

	sessions  session.Store
	exchanger Exchanger
	sellers   repository.SellerRepo
	logger    logger.Logger
}

func NewService(cfg Config, sessions session.Store, exchanger Exchanger, sellers repository.SellerRepo, l logger.Logger) (*Service, error) {
	if cfg.AppID == "" || cfg.RedirectURI == "" {
		return nil, errors.New("app id and redirect uri must not be empty")
	}
	if sessions == nil || exchanger == nil || sellers == nil {
		return nil, errors.New("sessions, exchanger and sellers must not be nil")
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Service{
		appID:       cfg.AppID,
		redirectURI: cfg.RedirectURI,
		authURL:     cfg.AuthURL,
		sessions:    sessions,
		exchanger:   exchanger,
		sellers:     sellers,
		logger:      l,
	}, nil
}

// BeginAuthorization issues a fresh state nonce, binds it to the session and
// returns the consent URL the caller must be redirected to
func (s *Service) BeginAuthorization(ctx context.Context, sessionID string) (string, error) {
	state := uuid.NewString()

	err := s.sessions.Set(ctx, sessionID, stateSessionKey, state, stateTTL)
	if err != nil {
		return "", fmt.Errorf("error while binding state to session. Err: %w", err)
	}

	q := url.Values{
		"application_id": {s.appID},
		"state":          {state},
		"version":        {authVersion},
		"redirect_uri":   {s.redirectURI},
	}

	s.logger.Debug("Authorization started", "session_id", sessionID, "state", state)
	return s.authURL + "?" + q.Encode(), nil
}

// ValidateCallback checks the callback against the session bound nonce
// Order is fixed: state first, required fields second. A request missing fields
// but carrying a wrong state is a state error, never a missing-field one
func (s *Service) ValidateCallback(ctx context.Context, sessionID string, cb Callback) error {
	bound, err := s.sessions.Get(ctx, sessionID, stateSessionKey)
	if err != nil {
		// No nonce bound (or expired) rejects the same way as a wrong one
		s.logger.Warn("Callback without bound state", "session_id", sessionID)
		return apperrors.ErrStateMismatch
	}

	if cb.State != bound {
		s.logger.Warn("Callback state mismatch", "session_id", sessionID)
		return apperrors.ErrStateMismatch
	}

	if cb.Code == "" || cb.State == "" || cb.SellingPartnerID == "" {
		return apperrors.ErrMissingParams
	}

	return nil
}

// Exchange validates the callback, trades the code for a refresh token and
// upserts the seller credential. The pending nonce is consumed on success only,
// a failed exchange leaves the attempt restartable until the nonce expires
func (s *Service) Exchange(ctx context.Context, sessionID string, cb Callback) error {
	if err := s.ValidateCallback(ctx, sessionID, cb); err != nil {
		return err
	}

	refreshToken, err := s.exchanger.ExchangeCode(ctx, cb.Code, s.redirectURI)
	if err != nil {
		return err
	}

	seller, err := s.sellers.UpsertRefreshToken(ctx, cb.SellingPartnerID, refreshToken)
	if err != nil {
		return fmt.Errorf("error while saving seller credential. Err: %w", err)
	}

	_ = s.sessions.Delete(ctx, sessionID, stateSessionKey)

	s.logger.Info("Authorization successful", "selling_partner_id", seller.SellingPartnerID)
	return nil
}

// RefreshAccessToken returns a fresh access token for a stored refresh token
// Library level helper, not wired to any route
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	return s.exchanger.RefreshAccessToken(ctx, refreshToken)
}
