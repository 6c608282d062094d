package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_CORSMiddleware(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	handler := CORSMiddleware("https://shop.example")(next)

	t.Run("headers on regular request", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
		require.Equal(t, "Content-Type, Authorization", w.Header().Get("Access-Control-Allow-Headers"))
		require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight short circuits", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/callback", nil))

		require.Equal(t, http.StatusNoContent, w.Code)
		require.Empty(t, w.Body.String(), "preflight must not reach the handler")
		require.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))
	})
}
