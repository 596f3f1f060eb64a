package utils

import (
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// SendMail delivers a single HTML email over SMTP. Returns (false, nil) when
// no SMTP host is configured, so callers can treat delivery as best-effort.
func SendMail(to string, subject string, html string) (bool, error) {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return false, nil
	}

	port, portErr := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if portErr != nil {
		port = 587
	}

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = os.Getenv("SMTP_USER")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	d := gomail.NewDialer(host, port, os.Getenv("SMTP_USER"), os.Getenv("SMTP_PASSWORD"))
	if err := d.DialAndSend(m); err != nil {
		return false, err
	}

	return true, nil
}
