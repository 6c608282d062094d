package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guillermop/sellerauth/internal/logger"
)

func Test_Webhook(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(handleWebhook(logger.NewNoOpLogger()))
	t.Cleanup(srv.Close)

	t.Run("acknowledges any json", func(t *testing.T) {
		payloads := []string{
			`{"event": "form_submission", "fields": {"email": "x@example.com"}}`,
			`[{"event": "form_submission"}, {"event": "site_publish"}]`,
			`"ping"`,
			`42`,
		}
		for _, payload := range payloads {
			resp, err := http.Post(srv.URL, "application/json", strings.NewReader(payload))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			require.NoError(t, resp.Body.Close())

			require.Equal(t, http.StatusOK, resp.StatusCode, "payload %s must be acknowledged", payload)
			require.JSONEq(t, `{"message": "Webhook received successfully"}`, string(body))
		}
	})

	t.Run("broken body fails", func(t *testing.T) {
		resp, err := http.Post(srv.URL, "application/json", strings.NewReader(`{broken`))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("empty body fails", func(t *testing.T) {
		resp, err := http.Post(srv.URL, "application/json", nil)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}
