// Package inbox reads saved-search alert emails (classifieds, neighborhood
// sites, search alerts) over IMAP and turns each linked post into a
// candidate. Messages are marked seen only after the run has stored them.
package inbox

import (
	"context"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/rs/zerolog"

	"leadscout-engine/internal/config"
	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/logger"
	"leadscout-engine/internal/scrape/types"
	"leadscout-engine/internal/scrape/util"
)

const Name = "inbox"

type Config struct {
	Host        string
	Port        int
	Username    string
	Mailbox     string
	SubjectAny  []string
	MaxMessages int
	Window      time.Duration
}

func FromConfig(c config.Inbox, window time.Duration) Config {
	return Config{
		Host:        c.IMAPHost,
		Port:        c.IMAPPort,
		Username:    c.Username,
		Mailbox:     c.Mailbox,
		SubjectAny:  c.SubjectAny,
		MaxMessages: c.MaxMessages,
		Window:      window,
	}
}

// PasswordFunc looks up the IMAP password, normally from the OS keychain.
type PasswordFunc func() (string, error)

type Fetcher struct {
	cfg      Config
	password PasswordFunc
	log      *zerolog.Logger
	now      func() time.Time
}

func New(cfg Config, password PasswordFunc) *Fetcher {
	return &Fetcher{
		cfg:      cfg,
		password: password,
		log:      logger.Named(Name),
		now:      time.Now,
	}
}

func (f *Fetcher) Name() string { return Name }

func (f *Fetcher) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	res := types.ScrapeResult{Origin: Name, Pages: 1}

	pw, err := f.password()
	if err != nil {
		return res, domain.Unavailable(Name, "auth", err)
	}
	c, stop, err := dial(ctx, f.cfg.Host, f.cfg.Port, f.cfg.Username, pw)
	if err != nil {
		return res, domain.Unavailable(Name, "login", err)
	}
	defer logout(c, stop, f.log)

	if err := selectMailbox(c, f.cfg.Mailbox); err != nil {
		return res, domain.Unavailable(Name, "select", err)
	}

	since := time.Time{}
	if f.cfg.Window > 0 {
		since = f.now().Add(-f.cfg.Window)
	}
	msgs, err := fetchUnseen(ctx, c, since, f.cfg.MaxMessages)
	if err != nil {
		return res, domain.Unavailable(Name, "fetch", err)
	}

	var done []imap.UID
	for _, m := range msgs {
		if !containsAnyFold(m.Subject, f.cfg.SubjectAny) {
			continue
		}
		cands, malformed := Candidates(m)
		res.Malformed += malformed
		for _, c := range cands {
			res.Add(c)
		}
		done = append(done, m.UID)
	}

	if len(done) > 0 {
		res.Finalize = func(ctx context.Context) error {
			return f.markSeen(ctx, done)
		}
	}

	f.log.Info().Int("messages", len(msgs)).Int("matched", len(done)).
		Int("candidates", len(res.Candidates)).Msg("inbox done")
	return res, nil
}

// Candidates converts one alert email into candidates. A message whose body
// cannot be parsed counts as one malformed item.
func Candidates(m Message) ([]domain.RawCandidate, int) {
	p, err := parseMessage(m.Raw)
	if err != nil {
		return nil, 1
	}
	subject := m.Subject
	if subject == "" {
		subject = p.Subject
	}
	from := m.From
	if from == "" {
		from = p.From
	}
	date := m.Date
	if date.IsZero() {
		date = p.Date
	}

	var out []domain.RawCandidate
	for _, l := range extractLinks(p) {
		c := domain.RawCandidate{
			Origin: Name,
			URL:    l.URL,
			Title:  l.Title,
			Text:   util.CleanText(l.Context + " " + subject),
			Meta:   map[string]string{domain.MetaPoster: from},
		}
		if c.Title == "" {
			c.Title = util.CleanText(subject)
		}
		if !date.IsZero() {
			t := date.UTC()
			c.PostedAt = &t
		}
		out = append(out, c)
	}
	return out, 0
}

func (f *Fetcher) markSeen(ctx context.Context, uids []imap.UID) error {
	pw, err := f.password()
	if err != nil {
		return err
	}
	c, stop, err := dial(ctx, f.cfg.Host, f.cfg.Port, f.cfg.Username, pw)
	if err != nil {
		return err
	}
	defer logout(c, stop, f.log)
	if err := selectMailbox(c, f.cfg.Mailbox); err != nil {
		return err
	}
	return markSeen(c, uids)
}
