package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier sends OTP mails over plain SMTP with optional AUTH.
type SMTPNotifier struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail}
}

func (n *SMTPNotifier) SendVerificationCode(ctx context.Context, in SendVerificationCodeInput) error {
	body := otpBody("Verify your email", "Use the code below to verify your Wellnest account.", in.Code)
	return n.deliver(ctx, in.Email, "Verify your Wellnest account", body)
}

func (n *SMTPNotifier) SendResetCode(ctx context.Context, in SendResetCodeInput) error {
	body := otpBody("Reset your password", "Use the code below to reset your Wellnest password.", in.Code)
	return n.deliver(ctx, in.Email, "Reset your Wellnest password", body)
}

func (n *SMTPNotifier) deliver(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	msg := buildMessage(n.cfg.From, to, subject, htmlBody)

	// smtp.SendMail does not take a context; run it in a goroutine so a
	// cancelled worker shutdown does not hang on a stuck provider.
	done := make(chan error, 1)

	go func() { done <- n.send(addr, auth, n.cfg.From, []string{to}, msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)

	return []byte(b.String())
}

func otpBody(title, lead, code string) string {
	var b strings.Builder

	b.WriteString(`<div style="font-family:Arial,sans-serif;max-width:480px;margin:0 auto;padding:24px">`)
	fmt.Fprintf(&b, `<h2 style="color:#2d6a4f">%s</h2>`, title)
	fmt.Fprintf(&b, `<p>%s</p>`, lead)
	fmt.Fprintf(&b, `<p style="font-size:32px;letter-spacing:8px;font-weight:bold;text-align:center;padding:16px;background:#f1f5f3;border-radius:8px">%s</p>`, code)
	b.WriteString(`<p style="color:#666;font-size:13px">The code expires in 5 minutes. If you did not request it, ignore this email.</p>`)
	b.WriteString(`</div>`)

	return b.String()
}
