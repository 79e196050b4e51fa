package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-pos-auth/config"
)

// SMTPSender mails the OTP directly. ImplicitTLS dials TLS (port 465);
// otherwise the connection is upgraded with STARTTLS when the server offers it.
type SMTPSender struct {
	host        string
	port        string
	username    string
	password    string
	from        string
	implicitTLS bool
	renderer    *Renderer
	tlsConfig   *tls.Config
}

func NewSMTPSender(cfg config.SMTPConfig, from string, renderer *Renderer) *SMTPSender {
	return &SMTPSender{
		host:        cfg.Host,
		port:        cfg.Port,
		username:    cfg.Username,
		password:    cfg.Password,
		from:        from,
		implicitTLS: cfg.ImplicitTLS,
		renderer:    renderer,
		tlsConfig:   &tls.Config{ServerName: cfg.Host},
	}
}

func (s *SMTPSender) SendPasswordResetOtp(ctx context.Context, n OtpNotification) error {
	body, err := s.renderer.Render(n)
	if err != nil {
		return fmt.Errorf("render otp email: %w", err)
	}

	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err = conn.SetDeadline(deadline); err != nil {
			return err
		}
	}

	// Closing the connection unblocks any in-flight SMTP command on cancellation.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return err
	}
	defer client.Close()

	if !s.implicitTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err = client.StartTLS(s.tlsConfig); err != nil {
				return err
			}
		}
	}

	if s.username != "" {
		auth := smtp.PlainAuth("", s.username, s.password, s.host)
		if err = client.Auth(auth); err != nil {
			return err
		}
	}

	if err = client.Mail(s.from); err != nil {
		return err
	}
	if err = client.Rcpt(n.Email); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(s.buildMessage(n.Email, body)); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

func (s *SMTPSender) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(s.host, s.port)
	if s.implicitTLS {
		dialer := &tls.Dialer{Config: s.tlsConfig}
		return dialer.DialContext(ctx, "tcp", addr)
	}

	dialer := &net.Dialer{Timeout: 30 * time.Second}
	return dialer.DialContext(ctx, "tcp", addr)
}

func (s *SMTPSender) buildMessage(to, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", s.renderer.Subject())
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
