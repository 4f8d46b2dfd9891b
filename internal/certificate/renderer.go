// Package certificate draws single-page workshop completion certificates.
package certificate

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/tendant/simple-certify/internal/domain"
)

const (
	pageWidth  = 600.0
	pageHeight = 400.0
	fontFamily = "Helvetica"
)

type rgb struct{ r, g, b int }

var (
	titleColor  = rgb{51, 51, 179} // 0.2, 0.2, 0.7
	accentColor = rgb{26, 77, 153} // 0.1, 0.3, 0.6
	bodyColor   = rgb{0, 0, 0}     // black
	mutedColor  = rgb{51, 51, 51}  // 0.2, 0.2, 0.2
)

// textRegion is one line of text. Y is the baseline measured from the bottom edge.
type textRegion struct {
	x, y  float64
	size  float64
	color rgb
	text  func(req domain.CertificateRequest, date string) string
}

func fixed(s string) func(domain.CertificateRequest, string) string {
	return func(domain.CertificateRequest, string) string { return s }
}

var layout = []textRegion{
	{60, 320, 28, titleColor, fixed("Certificate of Completion")},
	{60, 270, 18, bodyColor, fixed("This is to certify that")},
	{60, 240, 22, accentColor, func(r domain.CertificateRequest, _ string) string { return r.Name }},
	{60, 200, 18, bodyColor, fixed("has successfully completed the workshop:")},
	{60, 170, 20, accentColor, func(r domain.CertificateRequest, _ string) string { return r.Workshop }},
	{60, 120, 14, mutedColor, func(_ domain.CertificateRequest, date string) string { return "Date: " + date }},
	{380, 60, 14, mutedColor, fixed("____________________")},
	{420, 45, 12, mutedColor, fixed("Signature")},
}

// Renderer produces certificate PDFs. The zero value is not usable; use NewRenderer.
type Renderer struct {
	now func() time.Time
}

// NewRenderer returns a renderer stamped with the current date.
func NewRenderer() *Renderer {
	return &Renderer{now: time.Now}
}

// Render draws the certificate for req and returns the PDF bytes.
// Long names are not wrapped and run off the page.
func (r *Renderer) Render(req domain.CertificateRequest) ([]byte, error) {
	if req.Name == "" || req.Workshop == "" {
		return nil, fmt.Errorf("certificate needs a name and a workshop")
	}

	now := r.now()
	date := now.Format("1/2/2006")

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.SetCompression(false)
	pdf.SetCatalogSort(true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(now)
	pdf.SetModificationDate(now)
	pdf.SetTitle("Certificate of Completion", true)
	pdf.SetCreator("simple-certify", true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, region := range layout {
		pdf.SetFont(fontFamily, "B", region.size)
		pdf.SetTextColor(region.color.r, region.color.g, region.color.b)
		pdf.Text(region.x, pageHeight-region.y, tr(region.text(req, date)))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
