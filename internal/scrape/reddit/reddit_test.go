package reddit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leadscout-engine/internal/domain"
)

const atomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>search results</title>
  <entry>
    <author><name>/u/palmtree_dad</name></author>
    <content type="html">&lt;div class="md"&gt;&lt;p&gt;I need someone to install sod in my backyard.&lt;/p&gt;&lt;p&gt;Any recommendations?&lt;/p&gt;&lt;/div&gt;</content>
    <id>t3_abc</id>
    <link href="https://www.reddit.com/r/fortlauderdale/comments/abc/need_sod/" />
    <published>2026-10-11T14:00:00+00:00</published>
    <updated>2026-10-11T14:00:00+00:00</updated>
    <title>Need sod installed</title>
  </entry>
  <entry>
    <id>t3_nolink</id>
    <title>No link entry</title>
  </entry>
</feed>`

func TestFetch(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path+"?"+r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(atomFeed))
	}))
	defer srv.Close()

	f := New(Config{Endpoint: srv.URL, Subreddits: []string{"fortlauderdale"}, Queries: []string{"sod"}}, srv.Client())
	res, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(paths) != 1 || !strings.HasPrefix(paths[0], "/r/fortlauderdale/search.rss?") || !strings.Contains(paths[0], "restrict_sr=on") {
		t.Fatalf("requested %v", paths)
	}
	if len(res.Candidates) != 1 || res.Malformed != 1 {
		t.Fatalf("candidates=%d malformed=%d", len(res.Candidates), res.Malformed)
	}

	c := res.Candidates[0]
	if c.Title != "Need sod installed" {
		t.Errorf("title got %q", c.Title)
	}
	if c.Text != "I need someone to install sod in my backyard. Any recommendations?" {
		t.Errorf("text got %q", c.Text)
	}
	if c.Meta[domain.MetaPoster] != "/u/palmtree_dad" || c.Meta[domain.MetaSubforum] != "r/fortlauderdale" {
		t.Errorf("meta got %v", c.Meta)
	}
	want := time.Date(2026, 10, 11, 14, 0, 0, 0, time.UTC)
	if c.PostedAt == nil || !c.PostedAt.Equal(want) {
		t.Errorf("posted_at got %v", c.PostedAt)
	}
}

func TestFetch_PartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/r/Miami/") {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(atomFeed))
	}))
	defer srv.Close()

	f := New(Config{Endpoint: srv.URL, Subreddits: []string{"Miami", "fortlauderdale"}, Queries: []string{"sod"}}, srv.Client())
	res, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("one good feed means no origin failure, got %v", err)
	}
	if res.Pages != 2 || len(res.PageErrors) != 1 || len(res.Candidates) != 1 {
		t.Fatalf("pages=%d errors=%d candidates=%d", res.Pages, len(res.PageErrors), len(res.Candidates))
	}
}

func TestFetch_AllFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := New(Config{Endpoint: srv.URL, Subreddits: []string{"Miami"}, Queries: []string{"sod", "pavers"}}, srv.Client())
	if _, err := f.Fetch(context.Background()); !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("want ErrSourceUnavailable, got %v", err)
	}
}
