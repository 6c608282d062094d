package handlers

import (
	"context"
	"net/http"

	"github.com/guillermop/sellerauth/internal/handlers/middleware"
	"github.com/guillermop/sellerauth/internal/logger"
	"github.com/guillermop/sellerauth/internal/service/oauth"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	oauthService oauthService,
	sessions sessionManager,
	allowedOrigin string,
	logger logger.Logger,
) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /start-oauth", handleStartOAuth(oauthService, sessions, logger))
	mux.Handle("GET /callback", handleCallbackGet(oauthService, sessions, logger))
	mux.Handle("POST /callback", handleCallbackPost(oauthService, sessions, logger))
	mux.Handle("POST /webhook", handleWebhook(logger))
	mux.Handle("GET /{$}", handleHome())

	// CORS sits inside logging so preflights get logged too
	handler := chain(mux,
		middleware.LoggerMiddleware(logger),
		middleware.CORSMiddleware(allowedOrigin),
	)

	return handler
}

type oauthService interface {
	// Issue a state nonce bound to the session and build the consent URL
	BeginAuthorization(ctx context.Context, sessionID string) (string, error)

	// Validate callback only, no side effects
	// Has to return apperrors.ErrStateMismatch or apperrors.ErrMissingParams, in that order
	ValidateCallback(ctx context.Context, sessionID string, cb oauth.Callback) error

	// Validate, exchange the code and persist the refresh token
	// Upstream failures are returned as *lwa.TokenError
	Exchange(ctx context.Context, sessionID string, cb oauth.Callback) error
}

type sessionManager interface {
	// Session id from the request cookie, error if absent or unverified
	Load(r *http.Request) (string, error)

	// Session id for the request, starting a new session if needed
	Ensure(w http.ResponseWriter, r *http.Request) (string, error)
}
