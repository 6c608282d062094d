package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guillermop/sellerauth/internal/apperrors"
	"github.com/guillermop/sellerauth/internal/logger"
	"github.com/guillermop/sellerauth/internal/models"
	"github.com/guillermop/sellerauth/internal/service/lwa"
	"github.com/guillermop/sellerauth/internal/service/oauth"
	"github.com/guillermop/sellerauth/internal/session"
)

// memorySellerRepo keeps sellers in a map so handler tests run without postgres
type memorySellerRepo struct {
	sellers map[string]models.Seller
}

func (m *memorySellerRepo) UpsertRefreshToken(ctx context.Context, sellingPartnerID string, refreshToken string) (models.Seller, error) {
	seller, ok := m.sellers[sellingPartnerID]
	if !ok {
		seller = models.Seller{SellingPartnerID: sellingPartnerID}
	}
	seller.RefreshToken = refreshToken
	m.sellers[sellingPartnerID] = seller
	return seller, nil
}

func (m *memorySellerRepo) GetBySellingPartnerID(ctx context.Context, sellingPartnerID string) (models.Seller, error) {
	seller, ok := m.sellers[sellingPartnerID]
	if !ok {
		return seller, apperrors.ErrSellerNotFound
	}
	return seller, nil
}

type brokerFixture struct {
	URL     string
	Sellers *memorySellerRepo
}

// startBroker wires the production service over an LWA stub and serves the router
func startBroker(t *testing.T, lwaHandler http.HandlerFunc) brokerFixture {
	t.Helper()

	lwaSrv := httptest.NewServer(lwaHandler)
	t.Cleanup(lwaSrv.Close)

	client := lwa.NewClient(lwa.Config{
		TokenURL:     lwaSrv.URL,
		ClientID:     "amzn1.app.test",
		ClientSecret: "app-secret",
	}, nil)

	sellers := &memorySellerRepo{sellers: make(map[string]models.Seller)}

	service, err := oauth.NewService(oauth.Config{
		AppID:       "amzn1.app.test",
		RedirectURI: "https://broker.example/callback",
	}, session.NewMemoryStore(), client, sellers, nil)
	require.NoError(t, err)

	sessions, err := session.NewManager(session.Config{SecretKey: "test-secret"})
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(service, sessions, "https://shop.example", logger.NewNoOpLogger()))
	t.Cleanup(srv.Close)

	return brokerFixture{URL: srv.URL, Sellers: sellers}
}

// noRedirectClient returns the 302 itself instead of following it
var noRedirectClient = &http.Client{
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

// startOAuth calls GET /start-oauth and returns the issued state and session cookie
func startOAuth(t *testing.T, baseURL string) (state string, cookie *http.Cookie) {
	t.Helper()

	resp, err := noRedirectClient.Get(baseURL + "/start-oauth")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusFound, resp.StatusCode, "start-oauth must redirect")

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state = location.Query().Get("state")
	require.NotEmpty(t, state, "redirect target must carry the state nonce")

	require.Equal(t, 1, len(resp.Cookies()), "a session cookie must be set")
	return state, resp.Cookies()[0]
}

func doJSON(t *testing.T, method, url, body string, cookie *http.Cookie) (*http.Response, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	return resp, string(respBody)
}

func lwaStubOK(refreshToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"refresh_token": "` + refreshToken + `", "access_token": "AT", "token_type": "bearer", "expires_in": 3600}`))
	}
}

func Test_StartOAuth(t *testing.T) {
	t.Parallel()

	t.Run("redirects to consent url with nonce", func(t *testing.T) {
		fx := startBroker(t, lwaStubOK("RT1"))

		resp, err := noRedirectClient.Get(fx.URL + "/start-oauth")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusFound, resp.StatusCode)

		location, err := url.Parse(resp.Header.Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "sellercentral.amazon.com.mx", location.Host)
		assert.Equal(t, "amzn1.app.test", location.Query().Get("application_id"))
		assert.Equal(t, "beta", location.Query().Get("version"))
		assert.NotEmpty(t, location.Query().Get("state"))
	})

	t.Run("fresh session produces different nonce", func(t *testing.T) {
		fx := startBroker(t, lwaStubOK("RT1"))

		first, _ := startOAuth(t, fx.URL)
		second, _ := startOAuth(t, fx.URL)

		assert.NotEqual(t, first, second)
	})

	t.Run("cors headers present", func(t *testing.T) {
		fx := startBroker(t, lwaStubOK("RT1"))

		resp, err := noRedirectClient.Get(fx.URL + "/start-oauth")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, "https://shop.example", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
	})
}

func Test_CallbackGet(t *testing.T) {
	t.Parallel()

	t.Run("valid callback echoes code", func(t *testing.T) {
		fx := startBroker(t, lwaStubOK("RT1"))
		state, cookie := startOAuth(t, fx.URL)

		resp, body := doJSON(t, http.MethodGet,
			fx.URL+"/callback?spapi_oauth_code=abc&state="+state+"&selling_partner_id=P1", "", cookie)

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
		require.JSONEq(t, `
			{
				"message": "GET request successful",
				"auth_code": "abc"
			}`, body)

		assert.Empty(t, fx.Sellers.sellers, "read-only check must not store anything")
	})

	t.Run("state mismatch", func(t *testing.T) {
		fx := startBroker(t, lwaStubOK("RT1"))
		_, cookie := startOAuth(t, fx.URL)

		resp, body := doJSON(t, http.MethodGet,
			fx.URL+"/callback?spapi_oauth_code=abc&state=wrong&selling_partner_id=P1", "", cookie)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.JSONEq(t, `{"error": "Invalid state parameter in GET request"}`, body)
	})

	t.Run("no session cookie is a state error", func(t *testing.T) {
		fx := startBroker(t, lwaStubOK("RT1"))
		state, _ := startOAuth(t, fx.URL)

		resp, body := doJSON(t, http.MethodGet,
			fx.URL+"/callback?spapi_oauth_code=abc&state="+state+"&selling_partner_id=P1", "", nil)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.JSONEq(t, `{"error": "Invalid state parameter in GET request"}`, body)
	})

	t.Run("missing field with matching state", func(t *testing.T) {
		fx := startBroker(t, lwaStubOK("RT1"))
		state, cookie := startOAuth(t, fx.URL)

		resp, body := doJSON(t, http.MethodGet,
			fx.URL+"/callback?state="+state+"&selling_partner_id=P1", "", cookie)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.JSONEq(t, `{"error": "Missing required parameters in GET request"}`, body)
	})

	t.Run("missing field with wrong state reported as state error", func(t *testing.T) {
		fx := startBroker(t, lwaStubOK("RT1"))
		_, cookie := startOAuth(t, fx.URL)

		resp, body := doJSON(t, http.MethodGet,
			fx.URL+"/callback?state=wrong", "", cookie)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.JSONEq(t, `{"error": "Invalid state parameter in GET request"}`, body)
	})
}

func Test_CallbackPost(t *testing.T) {
	t.Parallel()

	t.Run("exchange success stores refresh token", func(t *testing.T) {
		fx := startBroker(t, lwaStubOK("RT1"))
		state, cookie := startOAuth(t, fx.URL)

		resp, body := doJSON(t, http.MethodPost, fx.URL+"/callback",
			`{"code": "abc", "state": "`+state+`", "selling_partner_id": "P1"}`, cookie)

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
		require.JSONEq(t, `{"message": "Authorization successful"}`, body)

		seller, ok := fx.Sellers.sellers["P1"]
		require.True(t, ok, "seller credential must be stored")
		assert.Equal(t, "RT1", seller.RefreshToken)
	})

	t.Run("state mismatch leaves store unchanged", func(t *testing.T) {
		fx := startBroker(t, lwaStubOK("RT1"))
		_, cookie := startOAuth(t, fx.URL)

		resp, body := doJSON(t, http.MethodPost, fx.URL+"/callback",
			`{"code": "abc", "state": "Y", "selling_partner_id": "P1"}`, cookie)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.JSONEq(t, `{"error": "Invalid state parameter in POST request"}`, body)
		assert.Empty(t, fx.Sellers.sellers)
	})

	t.Run("missing field with matching state", func(t *testing.T) {
		fx := startBroker(t, lwaStubOK("RT1"))
		state, cookie := startOAuth(t, fx.URL)

		resp, body := doJSON(t, http.MethodPost, fx.URL+"/callback",
			`{"state": "`+state+`", "selling_partner_id": "P1"}`, cookie)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.JSONEq(t, `{"error": "Missing required parameters in POST request"}`, body)
	})

	t.Run("upstream failure surfaces provider payload", func(t *testing.T) {
		fx := startBroker(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": "invalid_grant", "error_description": "code expired"}`))
		})
		state, cookie := startOAuth(t, fx.URL)

		resp, body := doJSON(t, http.MethodPost, fx.URL+"/callback",
			`{"code": "abc", "state": "`+state+`", "selling_partner_id": "P1"}`, cookie)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.JSONEq(t, `
			{
				"error": "Failed to exchange authorization code",
				"details": {"error": "invalid_grant", "error_description": "code expired"}
			}`, body)
		assert.Empty(t, fx.Sellers.sellers, "failed exchange must not write")
	})

	t.Run("second authorization overwrites token", func(t *testing.T) {
		tokens := []string{"RT1", "RT2"}
		fx := startBroker(t, func(w http.ResponseWriter, r *http.Request) {
			token := tokens[0]
			if len(tokens) > 1 {
				tokens = tokens[1:]
			}
			lwaStubOK(token)(w, r)
		})

		state, cookie := startOAuth(t, fx.URL)
		resp, _ := doJSON(t, http.MethodPost, fx.URL+"/callback",
			`{"code": "abc", "state": "`+state+`", "selling_partner_id": "P1"}`, cookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		// New attempt for the same partner yields another token
		state2, cookie2 := startOAuth(t, fx.URL)
		resp2, body2 := doJSON(t, http.MethodPost, fx.URL+"/callback",
			`{"code": "def", "state": "`+state2+`", "selling_partner_id": "P1"}`, cookie2)
		require.Equalf(t, http.StatusOK, resp2.StatusCode, "Body: %s", body2)

		require.Equal(t, 1, len(fx.Sellers.sellers), "still one record per partner")
		assert.Equal(t, "RT2", fx.Sellers.sellers["P1"].RefreshToken, "most recent token must win")
	})

	t.Run("broken json body", func(t *testing.T) {
		fx := startBroker(t, lwaStubOK("RT1"))
		_, cookie := startOAuth(t, fx.URL)

		resp, body := doJSON(t, http.MethodPost, fx.URL+"/callback", `{"code": `, cookie)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "Failed to parse JSON")
	})
}

func Test_Home(t *testing.T) {
	t.Parallel()

	fx := startBroker(t, lwaStubOK("RT1"))

	resp, body := doJSON(t, http.MethodGet, fx.URL+"/", "", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "running")
}
