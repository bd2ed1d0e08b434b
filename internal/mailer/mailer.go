// Package mailer is the SMTP implementation of the notification email
// channel.
package mailer

import (
	"gopkg.in/gomail.v2"

	"github.com/officeteam/office-utilities/internal"
)

type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(cfg internal.MailerConfig) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *Mailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	return m.dialer.DialAndSend(msg)
}
