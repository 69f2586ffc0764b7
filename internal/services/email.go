package services

import (
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/example/sitwell/internal/utils"
)

// Sender delivers transactional email. Failures are surfaced to
// operators through logs and the email counters, never to the operation
// that triggered the send.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	host string
	port string
	user string
	pass string
	from string
}

// NewSMTPSender constructs an SMTPSender.
func NewSMTPSender(host, port, user, pass, from string) *SMTPSender {
	return &SMTPSender{host: host, port: port, user: user, pass: pass, from: from}
}

// Send delivers one message to one recipient.
func (s *SMTPSender) Send(to, subject, body string) error {
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.from, to, subject, body))

	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}

	return smtp.SendMail(s.host+":"+s.port, auth, s.from, []string{to}, msg)
}

// LogSender is the fallback when no SMTP relay is configured. It logs
// the message instead of sending it, so local development still shows
// OTP codes.
type LogSender struct{}

// Send logs the message.
func (LogSender) Send(to, subject, body string) error {
	utils.GetLogger().Info("email (no relay configured)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}

// dispatchEmail sends asynchronously. The code or order that triggered
// the send is already durably stored, so a failed send does not roll
// anything back; it is logged and counted for operators instead.
func dispatchEmail(sender Sender, to, subject, body string) {
	go func() {
		if err := sender.Send(to, subject, body); err != nil {
			utils.EmailsFailedTotal.Inc()
			utils.GetLogger().Error("email send failed",
				zap.String("to", to),
				zap.String("subject", subject),
				zap.Error(err))
			return
		}
		utils.EmailsSentTotal.Inc()
	}()
}
