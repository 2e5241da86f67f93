// Package email sends the administrative notification mail, optionally with
// the captured execution log attached.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"time"

	"github.com/etp-webadmin/etapprover/internal/config"
)

// Message is one outgoing mail. Attachment is an optional plain-text blob
// (the execution log).
type Message struct {
	To         string
	Subject    string
	Body       string
	Attachment *Attachment
}

// Attachment is a text file attached to a message.
type Attachment struct {
	Filename string
	Content  []byte
}

// Mailer delivers messages over SMTP.
type Mailer struct {
	cfg config.SMTPConfig
}

// NewMailer creates a Mailer for the given SMTP settings.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send renders and delivers the message. The context only bounds the dial;
// net/smtp has no per-command deadline support.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		msg.To = m.cfg.To
	}
	raw, err := render(m.cfg.From, msg)
	if err != nil {
		return fmt.Errorf("render mail: %w", err)
	}

	client, err := m.dial(ctx)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", m.cfg.Addr(), err)
	}
	defer client.Close()

	if m.cfg.UseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if m.cfg.User != "" && m.cfg.Password != "" {
		auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	slog.Info("email sent", "to", msg.To, "subject", msg.Subject,
		"attachment", msg.Attachment != nil)
	return client.Quit()
}

func (m *Mailer) dial(ctx context.Context) (*smtp.Client, error) {
	d := net.Dialer{Timeout: 30 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", m.cfg.Addr())
	if err != nil {
		return nil, err
	}
	return smtp.NewClient(conn, m.cfg.Host)
}

// render builds the RFC 2045 multipart message: a plain-text part plus an
// optional base64 attachment.
func render(from string, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=utf-8")
	part, err := mw.CreatePart(textHeader)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write([]byte(msg.Body)); err != nil {
		return nil, err
	}

	if msg.Attachment != nil {
		attHeader := textproto.MIMEHeader{}
		attHeader.Set("Content-Type", "application/octet-stream")
		attHeader.Set("Content-Transfer-Encoding", "base64")
		attHeader.Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", msg.Attachment.Filename))
		part, err := mw.CreatePart(attHeader)
		if err != nil {
			return nil, err
		}
		enc := base64.NewEncoder(base64.StdEncoding, part)
		if _, err := enc.Write(msg.Attachment.Content); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
