package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/tendant/simple-certify/internal/certificate"
	"github.com/tendant/simple-certify/internal/config"
	"github.com/tendant/simple-certify/internal/domain"
	"github.com/tendant/simple-certify/internal/otp"
	"github.com/tendant/simple-certify/internal/repository"
)

type captureSender struct {
	mu    sync.Mutex
	codes map[string]string
}

func (s *captureSender) SendCode(ctx context.Context, to, code string, expiresIn time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes == nil {
		s.codes = map[string]string{}
	}
	s.codes[to] = code
	return nil
}

func (s *captureSender) code(to string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[to]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(senders map[domain.Channel]otp.Sender, submissions bool) http.Handler {
	logger := testLogger()
	cfg := RouterConfig{
		Logger:             logger,
		CodeService:        otp.NewService(otp.Config{}, repository.NewMemoryCodeStore(), senders, logger),
		Renderer:           certificate.NewRenderer(),
		RateLimitConfig:    config.RateLimitConfig{Enabled: false},
		SecurityHeaders:    config.SecurityHeadersConfig{Enabled: true, FrameOptions: "DENY", ContentTypeOptions: "nosniff"},
		MaxRequestBodySize: 64 * 1024,
		CORSAllowedOrigins: []string{"*"},
	}
	if submissions {
		cfg.Submissions = repository.NewMemorySubmissionStore()
	}
	return NewRouter(cfg)
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

func post(t *testing.T, h http.Handler, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, env
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(nil, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", rec.Header().Get("X-Frame-Options"))
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestRouter_MethodNotAllowedIsJSON(t *testing.T) {
	router := newTestRouter(nil, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/generate-certificate", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success {
		t.Error("success should be false")
	}
}

func TestRouter_ChannelRoutesFollowSenders(t *testing.T) {
	router := newTestRouter(map[domain.Channel]otp.Sender{
		domain.ChannelSMS: &captureSender{},
	}, false)

	rec, _ := post(t, router, "/v1/issue-email-code", map[string]string{"email": "a@example.com"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("email route status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec, env := post(t, router, "/v1/issue-sms-code", map[string]string{"phone": "+15550001111"})
	if rec.Code != http.StatusOK {
		t.Fatalf("sms route status = %d, want %d (%s)", rec.Code, http.StatusOK, env.Message)
	}
	if env.Message != "SMS OTP sent successfully." {
		t.Errorf("message = %q", env.Message)
	}
}

func TestRouter_SubmissionRouteOptional(t *testing.T) {
	router := newTestRouter(nil, false)

	rec, _ := post(t, router, "/v1/submit-feedback", map[string]string{})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestRouter_VerifyThenSubmit(t *testing.T) {
	mail := &captureSender{}
	sms := &captureSender{}
	router := newTestRouter(map[domain.Channel]otp.Sender{
		domain.ChannelEmail: mail,
		domain.ChannelSMS:   sms,
	}, true)

	submit := map[string]string{
		"workshopId": "ws-1",
		"name":       "Ada Lovelace",
		"course":     "Go Basics",
		"email":      "ada@example.com",
		"phone":      "+15550001111",
		"feedback":   "Great workshop",
	}

	rec, _ := post(t, router, "/v1/submit-feedback", submit)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("unverified submit status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	if rec, env := post(t, router, "/v1/issue-email-code", map[string]string{"email": "ada@example.com"}); rec.Code != http.StatusOK {
		t.Fatalf("issue email status = %d (%s)", rec.Code, env.Message)
	}
	if rec, env := post(t, router, "/v1/issue-sms-code", map[string]string{"phone": "+15550001111"}); rec.Code != http.StatusOK {
		t.Fatalf("issue sms status = %d (%s)", rec.Code, env.Message)
	}

	rec, env := post(t, router, "/v1/verify-email-code", map[string]string{"email": "ada@example.com", "otp": "000000"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong code status = %d, want %d (%s)", rec.Code, http.StatusUnauthorized, env.Message)
	}

	rec, env = post(t, router, "/v1/verify-email-code", map[string]string{"email": "ada@example.com", "otp": mail.code("ada@example.com")})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify email status = %d (%s)", rec.Code, env.Message)
	}
	rec, env = post(t, router, "/v1/verify-email-code", map[string]string{"email": "ada@example.com", "otp": mail.code("ada@example.com")})
	if rec.Code != http.StatusConflict || !env.Success {
		t.Errorf("second verify = %d success=%v, want 409 success=true", rec.Code, env.Success)
	}

	rec, env = post(t, router, "/v1/verify-sms-code", map[string]string{"phone": "+15550001111", "otp": sms.code("+15550001111")})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify sms status = %d (%s)", rec.Code, env.Message)
	}

	rec, env = post(t, router, "/v1/submit-feedback", submit)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, want %d (%s)", rec.Code, http.StatusCreated, env.Message)
	}
	if env.ID == "" {
		t.Error("expected a submission id")
	}
}

func TestRouter_CertificateDownload(t *testing.T) {
	router := newTestRouter(nil, false)

	rec, _ := post(t, router, "/v1/generate-certificate", map[string]string{
		"name":     "Ada Lovelace",
		"workshop": "Go Basics",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("Content-Type = %q, want application/pdf", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("body is not a PDF")
	}
}
