package inbox

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"leadscout-engine/internal/domain"
)

const htmlAlert = "From: Craigslist Alerts <alerts@craigslist.org>\r\n" +
	"To: me@example.com\r\n" +
	"Subject: craigslist search alert: sod\r\n" +
	"Date: Sat, 10 Oct 2026 09:15:00 -0400\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
	"\r\n" +
	"--b1\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Need sod in backyard https://miami.craigslist.org/brw/lbg/d/need-sod/7712345678.html\r\n" +
	"--b1\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><body>" +
	"<p><a href=\"https://miami.craigslist.org/brw/lbg/d/need-sod/7712345678.html\">Need sod in backyard</a> (Davie)</p>" +
	"<p><a href=\"https://www.google.com/url?q=https://nextdoor.com/p/xyz&sa=D\">Looking for a tree guy</a></p>" +
	"<p><a href=\"https://accounts.craigslist.org/unsubscribe?id=1\">Unsubscribe</a></p>" +
	"</body></html>\r\n" +
	"--b1--\r\n"

const plainAlert = "From: alerts@example.com\r\n" +
	"Subject: google alert - landscaper miami\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"Anyone know a landscaper? https://www.reddit.com/r/Miami/comments/q1/landscaper/.\r\n" +
	"Manage your alerts: https://www.google.com/alerts/settings\r\n"

func TestCandidates_HTMLAlert(t *testing.T) {
	cands, malformed := Candidates(Message{Raw: []byte(htmlAlert)})
	if malformed != 0 {
		t.Fatalf("malformed got %d", malformed)
	}
	if len(cands) != 2 {
		t.Fatalf("candidates got %d: %+v", len(cands), cands)
	}

	first := cands[0]
	if first.URL != "https://miami.craigslist.org/brw/lbg/d/need-sod/7712345678.html" {
		t.Errorf("url got %q", first.URL)
	}
	if first.Title != "Need sod in backyard" {
		t.Errorf("title got %q", first.Title)
	}
	if !strings.Contains(first.Text, "Davie") || !strings.Contains(first.Text, "search alert") {
		t.Errorf("text should carry context and subject, got %q", first.Text)
	}
	want := time.Date(2026, 10, 10, 13, 15, 0, 0, time.UTC)
	if first.PostedAt == nil || !first.PostedAt.Equal(want) {
		t.Errorf("posted_at got %v", first.PostedAt)
	}
	if first.Meta[domain.MetaPoster] != "alerts@craigslist.org" {
		t.Errorf("poster got %q", first.Meta[domain.MetaPoster])
	}

	if cands[1].URL != "https://nextdoor.com/p/xyz" {
		t.Errorf("google redirect not unwrapped, got %q", cands[1].URL)
	}
}

func TestCandidates_PlainAlert(t *testing.T) {
	cands, _ := Candidates(Message{Raw: []byte(plainAlert), Subject: "google alert - landscaper miami"})
	if len(cands) != 1 {
		t.Fatalf("candidates got %d: %+v", len(cands), cands)
	}
	if cands[0].URL != "https://www.reddit.com/r/Miami/comments/q1/landscaper/" {
		t.Errorf("url got %q", cands[0].URL)
	}
	if cands[0].PostedAt != nil {
		t.Errorf("no date header means absent timestamp, got %v", cands[0].PostedAt)
	}
}

func TestContainsAnyFold(t *testing.T) {
	if !containsAnyFold("Craigslist Search Alert", []string{"craigslist"}) {
		t.Fatal("case-insensitive match failed")
	}
	if containsAnyFold("Your invoice", []string{"craigslist", "nextdoor"}) {
		t.Fatal("unexpected match")
	}
	if !containsAnyFold("anything", nil) {
		t.Fatal("empty filter should match all")
	}
}

func TestFetch_PasswordMissing(t *testing.T) {
	f := New(Config{Host: "imap.example.com", Username: "me"}, func() (string, error) {
		return "", errors.New("no secret")
	})
	_, err := f.Fetch(context.Background())
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("want ErrSourceUnavailable, got %v", err)
	}
}

type countingCloser struct{ closed chan struct{} }

func (c *countingCloser) Close() error {
	close(c.closed)
	return nil
}

func TestCloseOnDone(t *testing.T) {
	t.Run("uncancellable context detaches on stop", func(t *testing.T) {
		c := &countingCloser{closed: make(chan struct{})}
		stop := closeOnDone(context.WithoutCancel(context.Background()), c)
		if !stop() {
			t.Fatal("stop should detach a watch that never fired")
		}
		select {
		case <-c.closed:
			t.Fatal("closer ran without cancellation")
		default:
		}
	})

	t.Run("cancel closes the connection", func(t *testing.T) {
		c := &countingCloser{closed: make(chan struct{})}
		ctx, cancel := context.WithCancel(context.Background())
		stop := closeOnDone(ctx, c)
		cancel()
		select {
		case <-c.closed:
		case <-time.After(2 * time.Second):
			t.Fatal("closer not called after cancel")
		}
		if stop() {
			t.Fatal("stop after the watch fired should report false")
		}
	})
}
