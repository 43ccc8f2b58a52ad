package inbox

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/rs/zerolog"
)

// Message is one fetched email, headers from the envelope and the raw
// RFC822 bytes for body parsing.
type Message struct {
	UID     imap.UID
	From    string
	Subject string
	Date    time.Time
	Raw     []byte
}

// closeOnDone closes c when ctx ends. Call stop once the connection is done;
// a context that is never cancelled would otherwise hold the watch forever.
func closeOnDone(ctx context.Context, c io.Closer) (stop func() bool) {
	return context.AfterFunc(ctx, func() { _ = c.Close() })
}

// dial connects over TLS and logs in. The connection is closed when ctx ends
// unless stop is called first.
func dial(ctx context.Context, host string, port int, username, password string) (*imapclient.Client, func() bool, error) {
	if host == "" {
		return nil, nil, errors.New("imap host is required")
	}
	if username == "" || password == "" {
		return nil, nil, errors.New("imap username/password is required")
	}
	if port == 0 {
		port = 993
	}
	addr := net.JoinHostPort(host, fmt.Sprint(port))

	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("imap dial %s: %w", addr, err)
	}
	stop := closeOnDone(ctx, c)

	if err := c.Login(username, password).Wait(); err != nil {
		stop()
		_ = c.Close()
		return nil, nil, fmt.Errorf("imap login: %w", err)
	}
	return c, stop, nil
}

func selectMailbox(c *imapclient.Client, mailbox string) error {
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if _, err := c.Select(mailbox, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		return fmt.Errorf("imap select %q: %w", mailbox, err)
	}
	return nil
}

// fetchUnseen returns up to max unseen messages received since, newest first.
// Bodies are fetched with PEEK so nothing is marked seen here.
func fetchUnseen(ctx context.Context, c *imapclient.Client, since time.Time, max int) ([]Message, error) {
	if max <= 0 {
		max = 200
	}
	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   since,
	}
	data, err := c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search: %w", err)
	}
	uids := data.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if len(uids) > max {
		uids = uids[:max]
	}

	body := &imap.FetchItemBodySection{Specifier: imap.PartSpecifierNone, Peek: true}
	cmd := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{body},
	})
	defer func() { _ = cmd.Close() }()

	out := make([]Message, 0, len(uids))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		md := cmd.Next()
		if md == nil {
			break
		}
		buf, err := md.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}

		m := Message{UID: buf.UID}
		if env := buf.Envelope; env != nil {
			m.Subject = env.Subject
			m.Date = env.Date
			if len(env.From) > 0 {
				m.From = env.From[0].Addr()
			}
		}
		if b := buf.FindBodySection(body); b != nil {
			m.Raw = append([]byte(nil), b...)
		}
		out = append(out, m)
	}
	if err := cmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}
	return out, nil
}

// markSeen adds \Seen to uids. Store has no Wait; Close returns the status.
func markSeen(c *imapclient.Client, uids []imap.UID) error {
	if len(uids) == 0 {
		return nil
	}
	cmd := c.Store(imap.UIDSetNum(uids...), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("imap store seen: %w", err)
	}
	return nil
}

func logout(c *imapclient.Client, stop func() bool, log *zerolog.Logger) {
	defer stop()
	if err := c.Logout().Wait(); err != nil {
		log.Debug().Err(err).Msg("imap logout")
	}
	_ = c.Close()
}
