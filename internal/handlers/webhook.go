package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/guillermop/sellerauth/internal/handlers/render"
	"github.com/guillermop/sellerauth/internal/logger"
)

// handleWebhook acknowledges front-end notifications
// Payload is arbitrary JSON and is not verified, the route only confirms receipt
func handleWebhook(l logger.Logger) http.Handler {
	type successResponse struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			l.Error("Failed to parse webhook payload", "error", err.Error())
			render.Error(w, "An error occurred: "+err.Error(), http.StatusInternalServerError)
			return
		}

		l.Debug("Webhook data received", "payload", payload)
		render.JSON(w, successResponse{Message: "Webhook received successfully"})
	})
}
