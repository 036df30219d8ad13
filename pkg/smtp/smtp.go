package smtp

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	smtpPkg "net/smtp"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("smtp configuration incomplete")

const SummarySubject = "Your Focus Sentry session summary"

type ItfSmtp interface {
	SendMail(to, subject, body string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
}

// ConfigFromEnv reads the FOCUS_SMTP_* variables. Host, port and sender are
// required; TLS is on unless FOCUS_SMTP_USE_TLS says otherwise.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Host:     os.Getenv("FOCUS_SMTP_HOST"),
		Username: os.Getenv("FOCUS_SMTP_USERNAME"),
		Password: os.Getenv("FOCUS_SMTP_PASSWORD"),
		From:     os.Getenv("FOCUS_EMAIL_FROM"),
		UseTLS:   true,
	}

	rawPort := os.Getenv("FOCUS_SMTP_PORT")
	if cfg.Host == "" || rawPort == "" || cfg.From == "" {
		return Config{}, ErrNotConfigured
	}

	port, err := strconv.Atoi(rawPort)
	if err != nil {
		return Config{}, fmt.Errorf("%w: invalid port %q", ErrNotConfigured, rawPort)
	}
	cfg.Port = port

	if raw, ok := os.LookupEnv("FOCUS_SMTP_USE_TLS"); ok {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "1", "true", "yes":
			cfg.UseTLS = true
		default:
			cfg.UseTLS = false
		}
	}

	return cfg, nil
}

type smtp struct {
	cfg     Config
	timeout time.Duration
}

func New() (ItfSmtp, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg), nil
}

func NewWithConfig(cfg Config) ItfSmtp {
	return &smtp{cfg: cfg, timeout: 15 * time.Second}
}

func (s *smtp) SendMail(to, subject, body string) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	conn, err := net.DialTimeout("tcp", addr, s.timeout)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	// The whole exchange shares one deadline so a stalled server cannot hold
	// the sender forever.
	if err := conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
		conn.Close()
		return err
	}

	client, err := smtpPkg.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if s.cfg.UseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth := smtpPkg.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(BuildMessage(s.cfg.From, to, subject, body)); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

func BuildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}
