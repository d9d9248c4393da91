package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/gido-dev/gido/internal/config"
	"github.com/gido-dev/gido/internal/errors"
	"github.com/gido-dev/gido/internal/logging"
)

// SMTPNotifier sends plain-text email over implicit TLS (SMTPS) with PLAIN
// authentication.
type SMTPNotifier struct {
	host     string
	port     int
	username string
	password config.Secret
	from     string
	to       []string
	timeout  time.Duration

	tlsConfig *tls.Config
	now       func() time.Time
}

// SMTPOption configures an SMTPNotifier.
type SMTPOption func(*SMTPNotifier)

// WithTLSConfig overrides the TLS client configuration.
func WithTLSConfig(c *tls.Config) SMTPOption {
	return func(n *SMTPNotifier) {
		n.tlsConfig = c
	}
}

// NewSMTPNotifier creates an SMTPNotifier from cfg.
func NewSMTPNotifier(cfg config.SMTPConfig, opts ...SMTPOption) *SMTPNotifier {
	n := &SMTPNotifier{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		to:       cfg.To,
		timeout:  cfg.Timeout,
		now:      time.Now,
	}
	if n.from == "" {
		n.from = n.username
	}
	if n.timeout <= 0 {
		n.timeout = config.DefaultSMTPTimeout
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *SMTPNotifier) Name() string { return "smtp" }

func (n *SMTPNotifier) addr() string {
	return net.JoinHostPort(n.host, strconv.Itoa(n.port))
}

// Notify delivers msg to every configured recipient in one SMTP session.
// Rejected credentials produce a NotificationError with Auth set.
func (n *SMTPNotifier) Notify(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	tlsConfig := n.tlsConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{}
	}
	tlsConfig = tlsConfig.Clone()
	if tlsConfig.ServerName == "" {
		tlsConfig.ServerName = n.host
	}

	dialer := &tls.Dialer{Config: tlsConfig}
	conn, err := dialer.DialContext(ctx, "tcp", n.addr())
	if err != nil {
		return errors.NotificationError(fmt.Sprintf("smtp connect to %s failed", n.addr()), false, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, n.host)
	if err != nil {
		conn.Close()
		return errors.NotificationError("smtp handshake failed", false, err)
	}
	defer c.Close()

	auth := smtp.PlainAuth("", n.username, n.password.Reveal(), n.host)
	if err := c.Auth(auth); err != nil {
		return errors.NotificationError("smtp authentication failed", true, err)
	}

	if err := c.Mail(n.from); err != nil {
		return errors.NotificationError("smtp sender rejected", false, err)
	}
	for _, rcpt := range n.to {
		if err := c.Rcpt(rcpt); err != nil {
			return errors.NotificationError(fmt.Sprintf("smtp recipient %s rejected", rcpt), false, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return errors.NotificationError("smtp data failed", false, err)
	}
	if _, err := w.Write(n.buildMessage(msg)); err != nil {
		w.Close()
		return errors.NotificationError("smtp write failed", false, err)
	}
	if err := w.Close(); err != nil {
		return errors.NotificationError("smtp message rejected", false, err)
	}

	if err := c.Quit(); err != nil {
		logging.Debug("smtp quit failed", "error", err)
	}

	logging.Info("email sent", "to", strings.Join(n.to, ","), "subject", msg.Subject)
	return nil
}

// buildMessage renders msg as an RFC 5322 plain-text message.
func (n *SMTPNotifier) buildMessage(msg Message) []byte {
	headers := []string{
		"From: " + headerValue(n.from),
		"To: " + headerValue(strings.Join(n.to, ", ")),
		"Subject: " + mime.QEncoding.Encode("utf-8", headerValue(msg.Subject)),
		"Date: " + n.now().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"Content-Transfer-Encoding: 8bit",
	}

	body := strings.ReplaceAll(msg.Body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\n", "\r\n")

	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body + "\r\n")
}

// headerValue strips line breaks so values cannot inject headers.
func headerValue(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
