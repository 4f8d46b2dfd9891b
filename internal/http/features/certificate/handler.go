package certificate

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/tendant/simple-certify/internal/domain"
	"github.com/tendant/simple-certify/internal/httputil"
	"github.com/tendant/simple-certify/internal/otp"
)

// Renderer draws a certificate PDF.
type Renderer interface {
	Render(req domain.CertificateRequest) ([]byte, error)
}

// Mailer emails a rendered certificate.
type Mailer interface {
	SendCertificate(ctx context.Context, to string, req domain.CertificateRequest, pdf []byte) error
}

type Handler struct {
	logger   *slog.Logger
	renderer Renderer
	mailer   Mailer
}

// NewHandler creates the certificate handler. mailer may be nil, in which
// case requests that ask for email delivery get 503.
func NewHandler(logger *slog.Logger, renderer Renderer, mailer Mailer) *Handler {
	return &Handler{logger: logger, renderer: renderer, mailer: mailer}
}

type GenerateCertificateRequest struct {
	Name     string `json:"name"`
	Workshop string `json:"workshop"`
	Email    string `json:"email,omitempty"`
}

const generateFailed = "Internal Server Error: Could not generate certificate."

// GenerateCertificate renders a certificate and returns it as a PDF
// download, or emails it when an address is given.
// POST /v1/generate-certificate
func (h *Handler) GenerateCertificate(w http.ResponseWriter, r *http.Request) {
	var req GenerateCertificateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}

	certReq := domain.CertificateRequest{
		Name:     httputil.CleanLine(req.Name),
		Workshop: httputil.CleanLine(req.Workshop),
	}
	if certReq.Name == "" || certReq.Workshop == "" {
		httputil.Error(w, http.StatusBadRequest, "Bad Request: Name and workshop are required.")
		return
	}
	for _, f := range [][2]string{{"name", certReq.Name}, {"workshop", certReq.Workshop}} {
		if err := httputil.CheckLength(f[0], f[1], httputil.MaxLineLength); err != nil {
			httputil.Error(w, http.StatusBadRequest, "Bad Request: "+err.Error()+".")
			return
		}
	}

	var to string
	if strings.TrimSpace(req.Email) != "" {
		email, err := otp.NormalizeIdentifier(domain.ChannelEmail, req.Email, "")
		if err != nil {
			httputil.Error(w, http.StatusBadRequest, "Bad Request: Invalid email address.")
			return
		}
		if h.mailer == nil {
			httputil.Error(w, http.StatusServiceUnavailable, "Certificate email delivery is not configured.")
			return
		}
		to = email
	}

	pdf, err := h.renderer.Render(certReq)
	if err != nil {
		h.logger.Error("failed to render certificate", "error", err)
		httputil.Error(w, http.StatusInternalServerError, generateFailed)
		return
	}

	if to != "" {
		if err := h.mailer.SendCertificate(r.Context(), to, certReq, pdf); err != nil {
			h.logger.Error("failed to email certificate", "email", to, "error", err)
			httputil.Error(w, http.StatusInternalServerError, generateFailed)
			return
		}
		h.logger.Info("certificate emailed", "email", to, "workshop", certReq.Workshop)
		httputil.Message(w, http.StatusOK, true, "Certificate sent by email.")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="certificate.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
