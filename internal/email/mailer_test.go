package email

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"
)

func TestRenderPlainMessage(t *testing.T) {
	raw, err := render("sender@example.edu", Message{
		To:      "admin@example.edu",
		Subject: "Pending submissions",
		Body:    "Hello,\n\nthere are new submissions.\n",
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("rendered output is not a valid mail message: %v", err)
	}
	if got := msg.Header.Get("To"); got != "admin@example.edu" {
		t.Errorf("To = %q", got)
	}
	if got := msg.Header.Get("Subject"); got != "Pending submissions" {
		t.Errorf("Subject = %q", got)
	}

	parts := readParts(t, msg)
	if len(parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(parts))
	}
	if !strings.Contains(parts[0].body, "new submissions") {
		t.Errorf("text part = %q", parts[0].body)
	}
}

func TestRenderWithAttachment(t *testing.T) {
	logContent := "line one\nline two\n"
	raw, err := render("sender@example.edu", Message{
		To:      "admin@example.edu",
		Subject: "Run report",
		Body:    "See attached log.",
		Attachment: &Attachment{
			Filename: "etapprover_log.txt",
			Content:  []byte(logContent),
		},
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("invalid mail message: %v", err)
	}
	parts := readParts(t, msg)
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want body + attachment", len(parts))
	}

	att := parts[1]
	if !strings.Contains(att.disposition, "etapprover_log.txt") {
		t.Errorf("disposition = %q, want filename", att.disposition)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(att.body))
	if err != nil {
		t.Fatalf("attachment is not base64: %v", err)
	}
	if string(decoded) != logContent {
		t.Errorf("attachment content = %q, want %q", decoded, logContent)
	}
}

type part struct {
	disposition string
	body        string
}

func readParts(t *testing.T, msg *mail.Message) []part {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		t.Fatalf("Content-Type = %q (%v), want multipart", mediaType, err)
	}
	mr := multipart.NewReader(msg.Body, params["boundary"])
	var parts []part
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return parts
		}
		if err != nil {
			t.Fatalf("reading part: %v", err)
		}
		body, err := io.ReadAll(p)
		if err != nil {
			t.Fatalf("reading part body: %v", err)
		}
		parts = append(parts, part{
			disposition: p.Header.Get("Content-Disposition"),
			body:        string(body),
		})
	}
}
