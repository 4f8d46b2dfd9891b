package certificate

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the certificate route behind the given limiter.
func (h *Handler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.With(limit).Post("/v1/generate-certificate", h.GenerateCertificate)
}
