package reddit

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"leadscout-engine/internal/config"
	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/logger"
	"leadscout-engine/internal/scrape/types"
	"leadscout-engine/internal/scrape/util"
)

const Name = "reddit"

type Config struct {
	Endpoint   string
	Subreddits []string
	Queries    []string
	MinDelay   time.Duration
}

func FromConfig(c config.Forum) Config {
	return Config{
		Endpoint:   c.Endpoint,
		Subreddits: c.Subreddits,
		Queries:    c.Queries,
		MinDelay:   c.MinDelay(),
	}
}

type Fetcher struct {
	cfg    Config
	hc     *http.Client
	lim    *util.HostLimiter
	parser *gofeed.Parser
	log    *zerolog.Logger
}

func New(cfg Config, hc *http.Client) *Fetcher {
	if hc == nil {
		hc = util.NewClient(20 * time.Second)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://www.reddit.com"
	}
	return &Fetcher{
		cfg:    cfg,
		hc:     hc,
		lim:    util.NewHostLimiter(cfg.MinDelay, 1),
		parser: gofeed.NewParser(),
		log:    logger.Named(Name),
	}
}

func (f *Fetcher) Name() string { return Name }

// FeedURL is the subreddit-restricted search feed, newest first.
func (f *Fetcher) FeedURL(sub, q string) string {
	v := url.Values{}
	v.Set("q", q)
	v.Set("restrict_sr", "on")
	v.Set("sort", "new")
	return fmt.Sprintf("%s/r/%s/search.rss?%s", strings.TrimRight(f.cfg.Endpoint, "/"), url.PathEscape(sub), v.Encode())
}

func (f *Fetcher) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	res := types.ScrapeResult{Origin: Name}
	seen := map[string]bool{}

	for _, sub := range f.cfg.Subreddits {
		for _, q := range f.cfg.Queries {
			res.Pages++
			feed, err := f.feed(ctx, f.FeedURL(sub, q))
			if err != nil {
				f.log.Warn().Err(err).Str("subreddit", sub).Str("query", q).Msg("feed failed")
				res.PageFailed(err)
				continue
			}

			for _, item := range feed.Items {
				if item.Link == "" || seen[item.Link] {
					if item.Link == "" {
						res.Malformed++
					}
					continue
				}
				seen[item.Link] = true

				body := item.Content
				if body == "" {
					body = item.Description
				}
				c := domain.RawCandidate{
					Origin: Name,
					URL:    item.Link,
					Title:  util.CleanText(item.Title),
					Text:   stripHTML(body),
					Meta: map[string]string{
						domain.MetaSubforum: "r/" + sub,
						domain.MetaQuery:    q,
					},
				}
				switch {
				case item.PublishedParsed != nil:
					t := item.PublishedParsed.UTC()
					c.PostedAt = &t
				case item.UpdatedParsed != nil:
					t := item.UpdatedParsed.UTC()
					c.PostedAt = &t
				}
				if item.Author != nil && item.Author.Name != "" {
					c.Meta[domain.MetaPoster] = item.Author.Name
				}
				res.Add(c)
			}
		}
	}

	f.log.Info().Int("feeds", res.Pages).Int("candidates", len(res.Candidates)).Msg("reddit done")
	return res, res.Outcome()
}

func (f *Fetcher) feed(ctx context.Context, raw string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/atom+xml, application/rss+xml")
	b, err := util.Do(ctx, f.hc, f.lim, req)
	if err != nil {
		return nil, err
	}
	feed, err := f.parser.Parse(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", raw, err)
	}
	return feed, nil
}

func stripHTML(s string) string {
	if !strings.ContainsRune(s, '<') {
		return util.CleanText(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return util.CleanText(s)
	}
	doc.Find("p, br, div, li").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml(" ")
	})
	return util.CleanText(doc.Text())
}
