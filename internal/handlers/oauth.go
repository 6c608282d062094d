package handlers

import (
	"errors"
	"net/http"

	"github.com/guillermop/sellerauth/internal/apperrors"
	"github.com/guillermop/sellerauth/internal/handlers/render"
	"github.com/guillermop/sellerauth/internal/logger"
	"github.com/guillermop/sellerauth/internal/service/lwa"
	"github.com/guillermop/sellerauth/internal/service/oauth"
)

// handleStartOAuth issues the nonce and redirects the browser to the consent page
func handleStartOAuth(s oauthService, sessions sessionManager, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, err := sessions.Ensure(w, r)
		if err != nil {
			l.Error("Failed to establish session", "error", err.Error())
			render.Error(w, "An error occurred: "+err.Error(), http.StatusInternalServerError)
			return
		}

		authURL, err := s.BeginAuthorization(r.Context(), sid)
		if err != nil {
			l.Error("Failed to start authorization", "error", err.Error())
			render.Error(w, "An error occurred: "+err.Error(), http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, authURL, http.StatusFound)
	})
}

// handleCallbackGet is the read-only check: validates and echoes the code back
// so the front-end can confirm receipt before triggering the exchange
func handleCallbackGet(s oauthService, sessions sessionManager, l logger.Logger) http.Handler {
	type successResponse struct {
		Message  string `json:"message"`
		AuthCode string `json:"auth_code"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Unknown session validates like one with no nonce bound
		sid, _ := sessions.Load(r)

		q := r.URL.Query()
		cb := oauth.Callback{
			Code:             q.Get("spapi_oauth_code"),
			State:            q.Get("state"),
			SellingPartnerID: q.Get("selling_partner_id"),
		}

		err := s.ValidateCallback(r.Context(), sid, cb)
		switch {
		case err == nil:
			render.JSON(w, successResponse{Message: "GET request successful", AuthCode: cb.Code})
		case errors.Is(err, apperrors.ErrStateMismatch):
			render.Error(w, "Invalid state parameter in GET request", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrMissingParams):
			render.Error(w, "Missing required parameters in GET request", http.StatusBadRequest)
		default:
			l.Error("Callback validation failed unexpectedly", "error", err.Error())
			render.Error(w, "An error occurred: "+err.Error(), http.StatusInternalServerError)
		}
	})
}

// handleCallbackPost triggers the actual code-for-token exchange
func handleCallbackPost(s oauthService, sessions sessionManager, l logger.Logger) http.Handler {
	type callbackRequest struct {
		Code             string `json:"code"`
		State            string `json:"state"`
		SellingPartnerID string `json:"selling_partner_id"`
	}
	type successResponse struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Fields deliberately carry no 'required' tags: state has to be
		// compared before field presence is judged
		data, err := render.BindAndValidate[callbackRequest](w, r)
		if err != nil {
			return
		}

		sid, _ := sessions.Load(r)

		err = s.Exchange(r.Context(), sid, oauth.Callback{
			Code:             data.Code,
			State:            data.State,
			SellingPartnerID: data.SellingPartnerID,
		})

		var tokenErr *lwa.TokenError
		switch {
		case err == nil:
			render.JSON(w, successResponse{Message: "Authorization successful"})
		case errors.Is(err, apperrors.ErrStateMismatch):
			render.Error(w, "Invalid state parameter in POST request", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrMissingParams):
			render.Error(w, "Missing required parameters in POST request", http.StatusBadRequest)
		case errors.As(err, &tokenErr):
			render.ErrorWithDetails(w, "Failed to exchange authorization code", tokenErr.Response, http.StatusBadRequest)
		default:
			l.Error("Callback exchange failed unexpectedly", "error", err.Error())
			render.Error(w, "An error occurred: "+err.Error(), http.StatusInternalServerError)
		}
	})
}

func handleHome() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Welcome to the sellerauth API. Service is running."))
	})
}
