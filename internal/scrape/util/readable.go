package util

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// Article is the main content of a page as plain text.
type Article struct {
	Title     string
	Text      string
	Published *time.Time
}

// ReadArticle fetches raw and extracts its main content. Used to fill in
// search results whose snippet is too short to classify.
func ReadArticle(ctx context.Context, hc *http.Client, lim *HostLimiter, raw string) (Article, error) {
	pageURL, err := url.Parse(raw)
	if err != nil {
		return Article{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return Article{}, err
	}
	b, err := Do(ctx, hc, lim, req)
	if err != nil {
		return Article{}, err
	}

	rp := readability.NewParser()
	parsed, err := rp.Parse(bytesReader(b), pageURL)
	if err != nil {
		return Article{}, fmt.Errorf("readability %s: %w", raw, err)
	}

	a := Article{Title: CleanText(parsed.Title)}
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(parsed.Content)); err == nil {
		a.Text = CleanText(doc.Text())
	}
	if a.Text == "" {
		a.Text = CleanText(parsed.Excerpt)
	}
	if parsed.PublishedTime != nil && !parsed.PublishedTime.IsZero() {
		t := parsed.PublishedTime.UTC()
		a.Published = &t
	}
	return a, nil
}

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }
