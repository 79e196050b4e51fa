package notifier

import (
	"bytes"
	"embed"
	"html/template"
	"math"
	"time"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/*.html
var templateFS embed.FS

const PasswordResetOtpSubject = "Password Reset OTP"

type otpTemplateData struct {
	AppName          string
	Name             string
	Code             string
	ExpiresInMinutes int
	SentAt           time.Time
}

// Renderer builds the HTML body of the OTP email.
type Renderer struct {
	appName string
	tmpl    *template.Template
}

func NewRenderer(appName string) (*Renderer, error) {
	tmpl, err := template.New("password_reset_otp.html").
		Funcs(sprig.FuncMap()).
		ParseFS(templateFS, "templates/password_reset_otp.html")
	if err != nil {
		return nil, err
	}

	return &Renderer{appName: appName, tmpl: tmpl}, nil
}

func (r *Renderer) Subject() string {
	return PasswordResetOtpSubject + " - " + r.appName
}

func (r *Renderer) Render(n OtpNotification) (string, error) {
	minutes := int(math.Ceil(n.ExpiresAt.Sub(n.SentAt).Minutes()))
	if minutes < 1 {
		minutes = 1
	}

	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, otpTemplateData{
		AppName:          r.appName,
		Name:             n.Name,
		Code:             n.Code,
		ExpiresInMinutes: minutes,
		SentAt:           n.SentAt,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
