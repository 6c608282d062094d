package render

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_JSON(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, map[string]string{"message": "Authorization successful"})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	require.JSONEq(t, `{"message": "Authorization successful"}`, w.Body.String())
}

func Test_Error(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, "Invalid state parameter in GET request", http.StatusBadRequest)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error": "Invalid state parameter in GET request"}`, w.Body.String())
}

func Test_ErrorWithDetails(t *testing.T) {
	t.Run("json details pass through", func(t *testing.T) {
		w := httptest.NewRecorder()

		ErrorWithDetails(w, "Failed to exchange authorization code", json.RawMessage(`{"error": "invalid_grant"}`), http.StatusBadRequest)

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.JSONEq(t, `
			{
				"error": "Failed to exchange authorization code",
				"details": {"error": "invalid_grant"}
			}`, w.Body.String())
	})

	t.Run("non json details are quoted", func(t *testing.T) {
		w := httptest.NewRecorder()

		ErrorWithDetails(w, "Failed to exchange authorization code", json.RawMessage("Bad Gateway"), http.StatusBadRequest)

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.JSONEq(t, `
			{
				"error": "Failed to exchange authorization code",
				"details": "Bad Gateway"
			}`, w.Body.String())
	})
}

func Test_BindAndValidate(t *testing.T) {
	type request struct {
		Code  string `json:"code"`
		State string `json:"state"`
	}

	t.Run("valid body", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(`{"code": "abc", "state": "X"}`))

		got, err := BindAndValidate[request](w, r)

		require.NoError(t, err)
		require.Equal(t, request{Code: "abc", State: "X"}, got)
	})

	t.Run("broken json", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(`{"code": `))

		_, err := BindAndValidate[request](w, r)

		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Contains(t, w.Body.String(), "Failed to parse JSON")
	})
}
