package services

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendDeviceRequestEmail(to, deviceName, deviceType, deviceOS, code string, expiresAt time.Time) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

// SendDeviceRequestEmail carries the one-time pairing code out-of-band.
// Device metadata is included so the user can recognize their own
// request before typing the code into the app.
func (s *emailService) SendDeviceRequestEmail(to, deviceName, deviceType, deviceOS, code string, expiresAt time.Time) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "New device requests access to your vault")

	body := fmt.Sprintf(`
		<h3>A new device asks to be paired with your account</h3>
		<p>Device: <strong>%s</strong> (%s, %s)</p>
		<p>If this request comes from you, enter the following code in the app:</p>
		<p><strong>%s</strong></p>
		<p>The code expires at %s.</p>
		<p>If you did not request this, you can safely ignore this email.</p>
	`, deviceName, deviceType, deviceOS, code, expiresAt.Format(time.RFC1123))

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send device request email: %w", err)
	}

	return nil
}
