package mailer

import "log"

// Sender delivers one email with a plain text and an HTML body.
type Sender interface {
	Send(toEmail, toName, subject, text, html string) error
}

// Config selects the Sender implementation.
type Config struct {
	MailerSendKey string
	FromName      string
	FromEmail     string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
	SMTPUseTLS    bool
	DevMode       bool
}

// New picks dev logging, then MailerSend, then SMTP, then dev logging again as fallback.
func New(cfg Config) Sender {
	switch {
	case cfg.DevMode:
		return NewDevMailer()
	case cfg.MailerSendKey != "" && cfg.FromEmail != "":
		return NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.FromEmail)
	case cfg.SMTPHost != "":
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.FromEmail, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	default:
		log.Printf("[mail] no provider configured, emails will be logged")
		return NewDevMailer()
	}
}
