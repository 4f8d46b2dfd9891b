package certificate

import (
	"bytes"
	"testing"
	"time"

	"github.com/tendant/simple-certify/internal/domain"
)

func fixedRenderer() *Renderer {
	return &Renderer{now: func() time.Time { return time.Date(2026, 3, 7, 9, 30, 0, 0, time.UTC) }}
}

func TestRender_ContainsText(t *testing.T) {
	out, err := fixedRenderer().Render(domain.CertificateRequest{Name: "Jane Doe", Workshop: "Intro to Testing"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output does not start with a PDF header: %q", out[:min(len(out), 8)])
	}

	for _, want := range []string{"Jane Doe", "Intro to Testing", "Certificate of Completion", "Date: 3/7/2026", "Signature"} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRender_SinglePage(t *testing.T) {
	out, err := fixedRenderer().Render(domain.CertificateRequest{Name: "Jane Doe", Workshop: "Intro to Testing"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	pages := bytes.Count(out, []byte("/Type /Page")) - bytes.Count(out, []byte("/Type /Pages"))
	if pages != 1 {
		t.Errorf("page count = %d, want 1", pages)
	}
	if !bytes.Contains(out, []byte("/MediaBox [0 0 600.00 400.00]")) && !bytes.Contains(out, []byte("600.00 400.00")) {
		t.Error("page should be 600x400")
	}
	if !bytes.Contains(out, []byte("Helvetica-Bold")) {
		t.Error("output should use Helvetica-Bold")
	}
}

func TestRender_Deterministic(t *testing.T) {
	req := domain.CertificateRequest{Name: "Jane Doe", Workshop: "Intro to Testing"}

	first, err := fixedRenderer().Render(req)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, err := fixedRenderer().Render(req)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("renders at the same instant should be identical")
	}
}

func TestRender_LongNameNotRejected(t *testing.T) {
	long := string(bytes.Repeat([]byte("Name "), 60))
	if _, err := fixedRenderer().Render(domain.CertificateRequest{Name: long, Workshop: "W"}); err != nil {
		t.Errorf("long names should render, got %v", err)
	}
}

func TestRender_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		req  domain.CertificateRequest
	}{
		{"missing name", domain.CertificateRequest{Workshop: "Intro to Testing"}},
		{"missing workshop", domain.CertificateRequest{Name: "Jane Doe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := fixedRenderer().Render(tt.req); err == nil {
				t.Error("Render should fail")
			}
		})
	}
}
