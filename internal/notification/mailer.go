// Package notification delivers verification codes and certificates by
// email and SMS.
package notification

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/smtp"
	"net/textproto"
	"sync/atomic"
	"time"

	"github.com/jordan-wright/email"

	"github.com/tendant/simple-certify/internal/config"
	"github.com/tendant/simple-certify/internal/domain"
)

// transport sends a composed message. *email.Pool satisfies it.
type transport interface {
	Send(e *email.Email, timeout time.Duration) error
}

type server struct {
	address string
	timeout time.Duration
	pool    transport
}

// Mailer sends email through one or more SMTP servers, round-robin.
// A failed send is retried once on each remaining server.
type Mailer struct {
	from    string
	servers []server
	counter atomic.Uint64
	logger  *slog.Logger
}

// NewMailer opens a connection pool per configured server. Servers that
// cannot be set up are logged and skipped; at least one must succeed.
func NewMailer(cfg config.SMTPConfig, logger *slog.Logger) (*Mailer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.From == "" {
		return nil, errors.New("smtp sender address is required")
	}

	var servers []server
	for _, s := range cfg.Servers {
		pool, err := newPool(s)
		if err != nil {
			logger.Error("error setting up smtp connection pool", "server", s.Address(), "error", err)
			continue
		}
		servers = append(servers, server{address: s.Address(), timeout: s.Timeout(), pool: pool})
	}
	if len(servers) == 0 {
		return nil, errors.New("no smtp server connection in the pool")
	}

	return &Mailer{
		from:    formatFrom(cfg.FromName, cfg.From),
		servers: servers,
		logger:  logger,
	}, nil
}

func newPool(s config.SMTPServer) (*email.Pool, error) {
	var auth smtp.Auth
	if s.Auth.User != "" || s.Auth.Password != "" {
		auth = smtp.PlainAuth("", s.Auth.User, s.Auth.Password, s.Host)
	}
	connections := s.Connections
	if connections <= 0 {
		connections = 1
	}
	tlsCfg := &tls.Config{
		InsecureSkipVerify: s.InsecureSkipVerify,
		ServerName:         s.Host,
	}
	return email.NewPool(s.Address(), connections, auth, tlsCfg)
}

func formatFrom(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%q <%s>", name, address)
}

// SendCode emails a verification code.
func (m *Mailer) SendCode(ctx context.Context, to, code string, expiresIn time.Duration) error {
	data := codeData{Code: code, Minutes: minutes(expiresIn)}
	text, err := renderText(codeText, data)
	if err != nil {
		return err
	}
	html, err := renderHTML(codeHTML, data)
	if err != nil {
		return err
	}

	e := m.newEmail(to, subjectVerificationCode)
	e.Text = text
	e.HTML = html
	return m.send(ctx, e)
}

// SendCertificate emails a rendered certificate as a PDF attachment.
func (m *Mailer) SendCertificate(ctx context.Context, to string, req domain.CertificateRequest, pdf []byte) error {
	text, err := renderText(certificateText, certificateData{Name: req.Name, Workshop: req.Workshop})
	if err != nil {
		return err
	}

	e := m.newEmail(to, certificateSubject(req.Workshop))
	e.Text = text
	if _, err := e.Attach(bytes.NewReader(pdf), certificateFilename, "application/pdf"); err != nil {
		return fmt.Errorf("attach certificate: %w", err)
	}
	return m.send(ctx, e)
}

// SendCertificateLink emails a link to a published certificate.
func (m *Mailer) SendCertificateLink(ctx context.Context, to, name, url string) error {
	html, err := renderHTML(certificateLinkHTML, certificateLinkData{Name: name, URL: url})
	if err != nil {
		return err
	}

	e := m.newEmail(to, subjectCertificateReady)
	e.HTML = html
	return m.send(ctx, e)
}

func (m *Mailer) newEmail(to, subject string) *email.Email {
	return &email.Email{
		To:      []string{to},
		From:    m.from,
		Subject: subject,
		Headers: textproto.MIMEHeader{},
	}
}

func (m *Mailer) send(ctx context.Context, e *email.Email) error {
	start := m.counter.Add(1)
	var err error
	for i := 0; i < len(m.servers); i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s := m.servers[(start+uint64(i))%uint64(len(m.servers))]
		err = s.pool.Send(e, s.timeout)
		if err == nil {
			return nil
		}
		m.logger.Error("error when trying to send email", "server", s.address, "subject", e.Subject, "error", err)
	}
	return err
}

func minutes(d time.Duration) int {
	return int(math.Ceil(d.Minutes()))
}
