package services

import (
	"fmt"
	"net/smtp"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/verto-app/verto/internal/config"
)

type InviteEmail struct {
	InviteLink   string
	ProjectName  string
	InviterEmail string
}

type ReleaseUpdateEmail struct {
	ProjectName string
	Environment string
	Version     string
	UpdatedBy   string
}

// Mailer delivers invite and release-update notifications over SMTP. With no
// SMTP host configured it degrades to logging the message instead, so local
// setups still surface invite links.
type Mailer struct {
	smtp      config.SMTPConfig
	clientURL string
}

func NewMailer(cfg config.Config) *Mailer {
	return &Mailer{
		smtp:      cfg.SMTP,
		clientURL: cfg.ClientURL,
	}
}

func (m *Mailer) InviteLink(token string) string {
	base := strings.TrimRight(m.clientURL, "/")
	return base + "/?inviteToken=" + url.QueryEscape(token)
}

func (m *Mailer) SendProjectInvite(recipient string, email InviteEmail) error {
	subject := fmt.Sprintf("You're invited to collaborate on %s", email.ProjectName)
	body := strings.Join([]string{
		fmt.Sprintf("%s invited you to collaborate on %s.", email.InviterEmail, email.ProjectName),
		"Click the link below to accept the invitation:",
		email.InviteLink,
		"",
		"If you did not expect this email, you can ignore it.",
	}, "\n")

	return m.send(recipient, subject, body)
}

// SendReleaseUpdate is fan-out notification; callers treat failures as
// best-effort and only log them.
func (m *Mailer) SendReleaseUpdate(recipient string, email ReleaseUpdateEmail) error {
	subject := fmt.Sprintf("%s release updated (%s)", email.ProjectName, email.Environment)
	body := fmt.Sprintf("%s updated the %s release of %s to version %s.",
		email.UpdatedBy, email.Environment, email.ProjectName, email.Version)

	return m.send(recipient, subject, body)
}

func (m *Mailer) send(recipient, subject, body string) error {
	if !m.smtp.Configured() {
		log.Warn().
			Str("recipient", recipient).
			Str("subject", subject).
			Msg("email transport not configured, message not sent")
		return nil
	}

	msg := "From: " + m.smtp.From + "\r\n" +
		"To: " + recipient + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" + body

	var auth smtp.Auth

	if m.smtp.User != "" && m.smtp.Password != "" {
		auth = smtp.PlainAuth("", m.smtp.User, m.smtp.Password, m.smtp.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.smtp.Host, m.smtp.Port)

	if err := smtp.SendMail(addr, auth, m.smtp.From, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
