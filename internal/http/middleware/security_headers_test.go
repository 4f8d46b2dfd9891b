package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tendant/simple-certify/internal/config"
)

func TestSecurityHeaders(t *testing.T) {
	cfg := config.SecurityHeadersConfig{
		Enabled:            true,
		CSP:                "default-src 'none'",
		HSTSMaxAge:         31536000,
		FrameOptions:       "DENY",
		ContentTypeOptions: "nosniff",
		ReferrerPolicy:     "no-referrer",
	}

	w := httptest.NewRecorder()
	SecurityHeaders(cfg)(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/generate-certificate", nil))

	want := map[string]string{
		"Content-Security-Policy":   "default-src 'none'",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
		"X-Frame-Options":           "DENY",
		"X-Content-Type-Options":    "nosniff",
		"Referrer-Policy":           "no-referrer",
	}
	for name, value := range want {
		if got := w.Header().Get(name); got != value {
			t.Errorf("%s = %q, want %q", name, got, value)
		}
	}
	for _, name := range []string{"X-XSS-Protection", "Permissions-Policy"} {
		if _, ok := w.Header()[name]; ok {
			t.Errorf("%s should not be set when empty", name)
		}
	}
}

func TestSecurityHeaders_Disabled(t *testing.T) {
	cfg := config.SecurityHeadersConfig{Enabled: false, CSP: "default-src 'none'"}

	w := httptest.NewRecorder()
	SecurityHeaders(cfg)(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := w.Header().Get("Content-Security-Policy"); got != "" {
		t.Errorf("CSP header should not be set when disabled, got %v", got)
	}
}
