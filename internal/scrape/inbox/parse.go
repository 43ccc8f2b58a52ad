package inbox

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"leadscout-engine/internal/scrape/util"
)

// Link is one post referenced by an alert email.
type Link struct {
	URL     string
	Title   string
	Context string
}

type parsed struct {
	Subject string
	From    string
	Date    time.Time
	Plain   string
	HTML    string
}

const maxPart = 4 << 20

// parseMessage reads headers and the best text/plain and text/html parts.
func parseMessage(raw []byte) (parsed, error) {
	var p parsed
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return p, err
	}
	defer mr.Close()

	p.Subject, _ = mr.Header.Subject()
	p.Date, _ = mr.Header.Date()
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		p.From = from[0].Address
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// unknown charsets still yield a readable body
			if part == nil {
				break
			}
		}
		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		b, _ := io.ReadAll(io.LimitReader(part.Body, maxPart))
		switch {
		case strings.HasPrefix(ct, "text/html") && len(b) > len(p.HTML):
			p.HTML = string(b)
		case (ct == "" || strings.HasPrefix(ct, "text/plain")) && len(b) > len(p.Plain):
			p.Plain = string(b)
		}
	}
	return p, nil
}

var (
	reURL  = regexp.MustCompile(`https?://[^\s<>"']+`)
	junkRe = regexp.MustCompile(`(?i)unsubscribe|preferences|privacy|manage (your )?alerts|settings|help center|terms`)
)

// extractLinks pulls post links out of an alert. HTML anchors carry their
// own text as context; naked URLs in plain text take the line they sit on.
func extractLinks(p parsed) []Link {
	seen := map[string]bool{}
	var out []Link
	add := func(href, title, context string) {
		target, ok := util.UnwrapRedirect(strings.TrimSpace(href))
		if !ok || !strings.HasPrefix(target, "http") {
			return
		}
		if junkRe.MatchString(target) || junkRe.MatchString(title) {
			return
		}
		key := util.CanonicalizeURL(target)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, Link{URL: target, Title: util.CleanText(title), Context: util.CleanText(context)})
	}

	if p.HTML != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.HTML)); err == nil {
			doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
				href, _ := a.Attr("href")
				title := a.Text()
				if strings.TrimSpace(title) == "" {
					return
				}
				ctx := a.Parent().Text()
				add(href, title, util.Truncate(util.CleanText(ctx), 400))
			})
		}
	}

	if len(out) == 0 && p.Plain != "" {
		for _, line := range strings.Split(p.Plain, "\n") {
			for _, u := range reURL.FindAllString(line, -1) {
				u = strings.TrimRight(u, ".,);:]\"'")
				ctx := strings.TrimSpace(strings.Replace(line, u, "", 1))
				add(u, ctx, ctx)
			}
		}
	}
	return out
}

func containsAnyFold(s string, needles []string) bool {
	if len(needles) == 0 {
		return true
	}
	low := strings.ToLower(s)
	for _, n := range needles {
		if n != "" && strings.Contains(low, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
