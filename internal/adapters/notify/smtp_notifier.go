package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"github.com/mikey/form-spam-filter/internal/core"
	"go.uber.org/zap"
)

// SMTPNotifier emails form owners through an SMTP relay
type SMTPNotifier struct {
	host          string
	port          int
	username      string
	password      string
	startTLS      bool
	timeout       time.Duration
	from          string
	subjectPrefix string
	logger        *zap.Logger
}

// NewSMTPNotifier creates a new SMTP notifier
func NewSMTPNotifier(
	host string,
	port int,
	username string,
	password string,
	startTLS bool,
	timeout time.Duration,
	from string,
	subjectPrefix string,
	logger *zap.Logger,
) *SMTPNotifier {
	return &SMTPNotifier{
		host:          host,
		port:          port,
		username:      username,
		password:      password,
		startTLS:      startTLS,
		timeout:       timeout,
		from:          from,
		subjectPrefix: subjectPrefix,
		logger:        logger,
	}
}

// Notify sends the submission to the form's notify address. Forms without
// one are skipped.
func (n *SMTPNotifier) Notify(ctx context.Context, form *core.Form, sub *core.Submission) error {
	if form.NotifyEmail == "" {
		return nil
	}

	msg := render(n.subjectPrefix, form, sub)
	data := n.buildMessage(form.NotifyEmail, msg, sub.CreatedAt)

	if err := n.send(ctx, form.NotifyEmail, data); err != nil {
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("form_id", form.ID),
		zap.String("submission_id", sub.ID),
		zap.String("recipient", form.NotifyEmail))
	return nil
}

func (n *SMTPNotifier) send(ctx context.Context, recipient string, data []byte) error {
	addr := net.JoinHostPort(n.host, strconv.Itoa(n.port))

	dialer := net.Dialer{Timeout: n.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP relay: %w", err)
	}

	deadline := time.Now().Add(3 * n.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	var c *smtp.Client
	if n.startTLS {
		c, err = smtp.NewClientStartTLS(conn, &tls.Config{ServerName: n.host})
		if err != nil {
			conn.Close()
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	} else {
		c = smtp.NewClient(conn)
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "localhost"
		}
		if err := c.Hello(hostname); err != nil {
			c.Close()
			return fmt.Errorf("EHLO failed: %w", err)
		}
	}
	defer c.Close()

	if n.username != "" {
		if err := c.Auth(sasl.NewPlainClient("", n.username, n.password)); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := c.Mail(n.from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := c.Rcpt(recipient, nil); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		n.logger.Warn("QUIT failed", zap.Error(err))
	}
	return nil
}

func (n *SMTPNotifier) buildMessage(recipient string, msg message, date time.Time) []byte {
	domain := "localhost"
	if _, d, ok := strings.Cut(n.from, "@"); ok && d != "" {
		domain = d
	}

	var b strings.Builder
	b.WriteString("From: " + n.from + "\r\n")
	b.WriteString("To: " + recipient + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("Date: " + date.UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("Message-ID: <" + uuid.NewString() + "@" + domain + ">\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}
