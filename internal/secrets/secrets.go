package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"leadscout-engine/internal/config"
)

// KeyringService groups the app's entries in the OS keychain.
const KeyringService = "leadscout"

// Names accepted by Set and the secrets endpoint.
const (
	NameExa   = "exa"
	NameBrave = "brave"
	NameIMAP  = "imap"
)

var ErrNotFound = errors.New("secret not found")

// Known reports whether name is a secret this app stores.
func Known(name string) bool {
	switch name {
	case NameExa, NameBrave, NameIMAP:
		return true
	}
	return false
}

// Account is the keychain account a secret is stored under. The IMAP
// password is per mailbox, API keys are per origin.
func Account(cfg config.Config, name string) string {
	if name == NameIMAP {
		return fmt.Sprintf("leadscout:imap:%s@%s", cfg.Origins.Inbox.Username, cfg.Origins.Inbox.IMAPHost)
	}
	return "leadscout:api:" + name
}

func Get(cfg config.Config, name string) (string, error) {
	v, err := keyring.Get(KeyringService, Account(cfg, name))
	if errors.Is(err, keyring.ErrNotFound) || (err == nil && strings.TrimSpace(v) == "") {
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("keychain %s: %w", name, err)
	}
	return v, nil
}

func Set(cfg config.Config, name, value string) error {
	if !Known(name) {
		return fmt.Errorf("unknown secret %q", name)
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value is empty")
	}
	if name == NameIMAP && strings.TrimSpace(cfg.Origins.Inbox.Username) == "" {
		return errors.New("origins.inbox.username is empty")
	}
	return keyring.Set(KeyringService, Account(cfg, name), value)
}

func Delete(cfg config.Config, name string) error {
	if !Known(name) {
		return fmt.Errorf("unknown secret %q", name)
	}
	err := keyring.Delete(KeyringService, Account(cfg, name))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// APIKey prefers a key already in cfg (set by env overlay) over the keychain.
func APIKey(cfg config.Config, name string) string {
	switch name {
	case NameExa:
		if cfg.Origins.Exa.APIKey != "" {
			return cfg.Origins.Exa.APIKey
		}
	case NameBrave:
		if cfg.Origins.Brave.APIKey != "" {
			return cfg.Origins.Brave.APIKey
		}
	}
	v, _ := Get(cfg, name)
	return v
}

// IMAPPassword adapts Get to the inbox origin's password hook.
func IMAPPassword(cfg config.Config) func() (string, error) {
	return func() (string, error) { return Get(cfg, NameIMAP) }
}
