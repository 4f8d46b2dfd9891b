package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

const (
	subjectVerificationCode = "Your Verification Code"
	subjectCertificateReady = "Your Workshop Certificate is Ready!"
	certificateFilename     = "certificate.pdf"
)

var (
	codeText = texttemplate.Must(texttemplate.New("code.txt").Parse(
		`Your verification code is {{.Code}}. It will expire in {{.Minutes}} minutes.`))

	codeHTML = htmltemplate.Must(htmltemplate.New("code.html").Parse(`<html><body>
<h2>Your Verification Code</h2>
<p>Your verification code is <strong>{{.Code}}</strong>.</p>
<p>It will expire in {{.Minutes}} minutes.</p>
</body></html>`))

	smsText = texttemplate.Must(texttemplate.New("code.sms").Parse(
		`Your verification code is {{.Code}}`))

	certificateText = texttemplate.Must(texttemplate.New("certificate.txt").Parse(
		"Dear {{.Name}},\n\nAttached is your certificate for completing the workshop: {{.Workshop}}.\n\nCongratulations!"))

	certificateLinkHTML = htmltemplate.Must(htmltemplate.New("certificate-link.html").Parse(`<p>Hello {{.Name}},</p>
<p>Congratulations! Your certificate for the workshop is ready.</p>
<p>You can download it here: <a href="{{.URL}}">Download Certificate</a></p>
<br>
<p>Thank you for your participation.</p>
`))
)

type codeData struct {
	Code    string
	Minutes int
}

type certificateData struct {
	Name     string
	Workshop string
}

type certificateLinkData struct {
	Name string
	URL  string
}

func render(name string, execute func(*bytes.Buffer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := execute(&buf); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func renderText(t *texttemplate.Template, data any) ([]byte, error) {
	return render(t.Name(), func(buf *bytes.Buffer) error { return t.Execute(buf, data) })
}

func renderHTML(t *htmltemplate.Template, data any) ([]byte, error) {
	return render(t.Name(), func(buf *bytes.Buffer) error { return t.Execute(buf, data) })
}

func certificateSubject(workshop string) string {
	return "Your Certificate for " + workshop
}
