package util

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const UserAgent = "leadscout/1.0 (+local)"

// maxBody caps any single response we read into memory.
const maxBody = 8 << 20

// StatusError is a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Code)
}

// Rejected reports an auth or quota refusal. Retrying other queries against
// the same origin in the same run will not help.
func (e *StatusError) Rejected() bool {
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return true
	}
	return false
}

func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// Do sends req after waiting on lim, checks the status and returns the body
// (capped). The caller's headers win over the default User-Agent.
func Do(ctx context.Context, hc *http.Client, lim *HostLimiter, req *http.Request) ([]byte, error) {
	if err := lim.WaitURL(ctx, req.URL.String()); err != nil {
		return nil, err
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", UserAgent)
	}
	res, err := hc.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))
		return nil, &StatusError{URL: req.URL.String(), Code: res.StatusCode}
	}
	return io.ReadAll(io.LimitReader(res.Body, maxBody))
}

// GetDocument fetches raw and parses it as HTML.
func GetDocument(ctx context.Context, hc *http.Client, lim *HostLimiter, raw string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	b, err := Do(ctx, hc, lim, req)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytesReader(b))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", raw, err)
	}
	return doc, nil
}

// DoJSON sends req and decodes a JSON response into out.
func DoJSON(ctx context.Context, hc *http.Client, lim *HostLimiter, req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	b, err := Do(ctx, hc, lim, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Redacted(), err)
	}
	return nil
}
