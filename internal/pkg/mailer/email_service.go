package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendFeedbackAlert(toEmail, retailerName, sessionId, feedback string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)
	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		senderName:  senderName,
	}
}

// SendFeedbackAlert notifies a retailer that a shopper rated a try-on
// negatively. Sent best-effort from a goroutine; a failure is logged by the
// caller, never surfaced to the shopper.
func (s *emailService) SendFeedbackAlert(toEmail, retailerName, sessionId, feedback string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.senderEmail, s.senderName))
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "A shopper was unhappy with a try-on result")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Negative try-on feedback for %s</h2>
			<p>Session: <code>%s</code></p>
			<p>What the shopper said:</p>
			<blockquote style="border-left: 3px solid #ccc; padding-left: 12px;">%s</blockquote>
			<p>You can review the session in your dashboard.</p>
		</div>
	`, retailerName, sessionId, feedback)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send feedback alert to %s: %w", toEmail, err)
	}
	return nil
}
