package email

import (
	"context"
	"strings"
	"testing"
	"time"

	"paystub/internal/platform/config"
)

func TestNewWithoutSMTPIsNoop(t *testing.T) {
	m := New(config.Config{EmailEnabled: true})
	if _, ok := m.(noopMailer); !ok {
		t.Fatalf("expected noop mailer, got %T", m)
	}
	if err := m.Send(context.Background(), "a@b.c", "d@e.f", "hi", "body"); err != nil {
		t.Fatalf("noop send: %v", err)
	}
}

func TestBuildMessage(t *testing.T) {
	now := time.Date(2024, 1, 19, 9, 30, 0, 0, time.UTC)
	msg := string(buildMessage("billing@stubs.example.com", "buyer@example.com", "Your link\r\nBcc: x@y.z", "hello", now))

	for _, want := range []string{
		"From: billing@stubs.example.com\r\n",
		"To: buyer@example.com\r\n",
		"Subject: Your link  Bcc: x@y.z\r\n",
		"Date: Fri, 19 Jan 2024 09:30:00 +0000\r\n",
		"@stubs.example.com>\r\n",
		"\r\n\r\nhello",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}
