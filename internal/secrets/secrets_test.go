package secrets

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"

	"leadscout-engine/internal/config"
)

func TestSetGetDelete(t *testing.T) {
	keyring.MockInit()
	cfg := config.Default()
	cfg.Origins.Inbox.Username = "me@example.org"

	if _, err := Get(cfg, NameExa); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty keychain: got %v", err)
	}
	if err := Set(cfg, NameExa, "k-123"); err != nil {
		t.Fatal(err)
	}
	if got := APIKey(cfg, NameExa); got != "k-123" {
		t.Errorf("APIKey = %q", got)
	}

	cfg.Origins.Exa.APIKey = "from-env"
	if got := APIKey(cfg, NameExa); got != "from-env" {
		t.Errorf("config key should win, got %q", got)
	}

	if err := Set(cfg, NameIMAP, "pw"); err != nil {
		t.Fatal(err)
	}
	if pw, err := IMAPPassword(cfg)(); err != nil || pw != "pw" {
		t.Errorf("imap password = %q, %v", pw, err)
	}

	if err := Delete(cfg, NameExa); err != nil {
		t.Fatal(err)
	}
	if err := Delete(cfg, NameExa); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
}

func TestSetRejects(t *testing.T) {
	keyring.MockInit()
	cfg := config.Default()

	tests := []struct {
		name, secret, value string
	}{
		{"unknown name", "github", "x"},
		{"empty value", NameBrave, "  "},
		{"imap without username", NameIMAP, "pw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Set(cfg, tt.secret, tt.value); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestAccount(t *testing.T) {
	cfg := config.Default()
	cfg.Origins.Inbox.Username = "u"
	if got := Account(cfg, NameIMAP); got != "leadscout:imap:u@imap.gmail.com" {
		t.Errorf("imap account = %q", got)
	}
	if got := Account(cfg, NameBrave); got != "leadscout:api:brave" {
		t.Errorf("brave account = %q", got)
	}
}
