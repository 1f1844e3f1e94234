// Package email sends operator alerts over SMTP.
package email

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	sharedConfig "vossync/internal/shared/config"
)

// AlertMailer sends health transition alerts to the configured operator
// address. When disabled it silently drops everything, so callers never
// need to branch on configuration.
type AlertMailer struct {
	cfg    *sharedConfig.EmailConfig
	dialer *gomail.Dialer
}

// NewAlertMailer creates the mailer. cfg may describe a disabled mailer.
func NewAlertMailer(cfg *sharedConfig.EmailConfig) *AlertMailer {
	m := &AlertMailer{cfg: cfg}
	if cfg != nil && cfg.Enabled {
		m.dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	}
	return m
}

// Enabled reports whether alerts will actually be delivered.
func (m *AlertMailer) Enabled() bool {
	return m.dialer != nil && m.cfg.AlertTo != ""
}

// SendInstanceDown alerts that an instance stopped answering its health
// probe. The API URL is included; credentials never are.
func (m *AlertMailer) SendInstanceDown(instanceName, apiURL string, failures int, lastError string) error {
	subject := fmt.Sprintf("[vossync] instance down: %s", instanceName)
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Instance Unreachable</h2>
			<p>Instance <b>%s</b> (%s) failed its health probe %d times in a row.</p>
			<p>Last error: %s</p>
			<p>Checked at: %s</p>
		</body>
		</html>
	`, instanceName, apiURL, failures, lastError, time.Now().UTC().Format(time.RFC3339))

	plainBody := fmt.Sprintf(`Instance Unreachable

Instance %s (%s) failed its health probe %d times in a row.
Last error: %s
Checked at: %s
`, instanceName, apiURL, failures, lastError, time.Now().UTC().Format(time.RFC3339))

	return m.send(subject, htmlBody, plainBody)
}

// SendInstanceRecovered alerts that a previously down instance is
// answering again.
func (m *AlertMailer) SendInstanceRecovered(instanceName, apiURL string, responseMs int64) error {
	subject := fmt.Sprintf("[vossync] instance recovered: %s", instanceName)
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Instance Recovered</h2>
			<p>Instance <b>%s</b> (%s) is answering its health probe again (%d ms).</p>
		</body>
		</html>
	`, instanceName, apiURL, responseMs)

	plainBody := fmt.Sprintf(`Instance Recovered

Instance %s (%s) is answering its health probe again (%d ms).
`, instanceName, apiURL, responseMs)

	return m.send(subject, htmlBody, plainBody)
}

func (m *AlertMailer) send(subject, htmlBody, plainBody string) error {
	if !m.Enabled() {
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(m.cfg.FromAddress, m.cfg.FromName))
	msg.SetHeader("To", m.cfg.AlertTo)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", plainBody)
	msg.AddAlternative("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	return nil
}
