// Package enrich fronts the external contact-enrichment service. It only
// validates the domain, caches answers, and passes the payload through.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"leadscout-engine/internal/config"
	"leadscout-engine/internal/scrape/util"
)

var (
	ErrNotConfigured = errors.New("enrichment service not configured")
	ErrBadDomain     = errors.New("invalid domain")
	ErrUpstream      = errors.New("enrichment service failed")
)

var domainRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)

// Cache is the part of the store the client needs.
type Cache interface {
	GetEnrichment(ctx context.Context, domain string, maxAge time.Duration, now time.Time) ([]byte, bool, error)
	PutEnrichment(ctx context.Context, domain string, payload []byte, now time.Time) error
}

type Client struct {
	baseURL string
	maxAge  time.Duration
	hc      *http.Client
	cache   Cache
	now     func() time.Time
}

func New(cfg config.Config, cache Cache) *Client {
	e := cfg.Enrichment
	maxAge := time.Duration(e.CacheDays) * 24 * time.Hour
	if e.CacheDays == 0 {
		maxAge = 7 * 24 * time.Hour
	}
	return &Client{
		baseURL: strings.TrimSpace(e.BaseURL),
		maxAge:  maxAge,
		hc:      util.NewClient(time.Duration(e.TimeoutSeconds) * time.Second),
		cache:   cache,
		now:     time.Now,
	}
}

// Result is a lookup answer. Payload is whatever the service returned.
type Result struct {
	Domain  string          `json:"domain"`
	Cached  bool            `json:"cached"`
	Payload json.RawMessage `json:"payload"`
}

// NormalizeDomain accepts a bare domain or a URL and returns the lowercase
// host without www.
func NormalizeDomain(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.Contains(s, "://") {
		s = util.HostOf(s)
	} else if i := strings.IndexAny(s, "/?#:"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "www.")
	if len(s) > 253 || !domainRe.MatchString(s) {
		return "", ErrBadDomain
	}
	return s, nil
}

func (c *Client) Lookup(ctx context.Context, raw string) (Result, error) {
	d, err := NormalizeDomain(raw)
	if err != nil {
		return Result{}, err
	}
	if c.cache != nil {
		b, ok, err := c.cache.GetEnrichment(ctx, d, c.maxAge, c.now())
		if err != nil {
			return Result{}, err
		}
		if ok {
			return Result{Domain: d, Cached: true, Payload: b}, nil
		}
	}
	if c.baseURL == "" {
		return Result{}, ErrNotConfigured
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	q := u.Query()
	q.Set("domain", d)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Accept", "application/json")
	b, err := util.Do(ctx, c.hc, nil, req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if !json.Valid(b) {
		return Result{}, fmt.Errorf("%w: response is not json", ErrUpstream)
	}

	if c.cache != nil {
		if err := c.cache.PutEnrichment(ctx, d, b, c.now()); err != nil {
			return Result{}, err
		}
	}
	return Result{Domain: d, Payload: b}, nil
}
