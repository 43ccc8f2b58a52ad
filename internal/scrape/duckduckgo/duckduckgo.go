// Package duckduckgo is the key-less keyword search origin. It runs search
// dorks against the HTML endpoint and keeps every organic hit that is not a
// contractor directory.
package duckduckgo

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"leadscout-engine/internal/config"
	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/logger"
	"leadscout-engine/internal/scrape/types"
	"leadscout-engine/internal/scrape/util"
)

const Name = "duckduckgo"

// Directories and lead-gen marketplaces only ever list businesses.
var domainBlocklist = []string{
	"homeadvisor.com",
	"angi.com",
	"angieslist.com",
	"thumbtack.com",
	"yelp.com",
	"bbb.org",
	"yellowpages.com",
	"porch.com",
	"houzz.com",
	"bark.com",
	"networx.com",
	"mapquest.com",
	"duckduckgo.com",
}

// challengeSelector matches the bot-check page DDG serves with a 200 when it
// throttles a client.
const challengeSelector = ".anomaly-modal, .anomaly-modal__modal, #challenge-form, form[action*='anomaly']"

var errChallenged = errors.New("duckduckgo served a bot challenge")

type Config struct {
	Endpoint string
	Queries  []string
	Limit    int // queries per run
	MinDelay time.Duration
}

func FromConfig(c config.Search, queries []string) Config {
	if len(c.Queries) > 0 {
		queries = c.Queries
	}
	return Config{
		Endpoint: c.Endpoint,
		Queries:  queries,
		Limit:    c.Limit,
		MinDelay: c.MinDelay(),
	}
}

type Scraper struct {
	cfg Config
	hc  *http.Client
	lim *util.HostLimiter
	log *zerolog.Logger
}

func New(cfg Config, hc *http.Client) *Scraper {
	if hc == nil {
		hc = util.NewClient(12 * time.Second)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://html.duckduckgo.com/html/"
	}
	return &Scraper{
		cfg: cfg,
		hc:  hc,
		lim: util.NewHostLimiter(cfg.MinDelay, 1),
		log: logger.Named(Name),
	}
}

func (s *Scraper) Name() string { return Name }

func (s *Scraper) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	res := types.ScrapeResult{Origin: Name}
	seen := map[string]bool{}

	queries := s.cfg.Queries
	if s.cfg.Limit > 0 && len(queries) > s.cfg.Limit {
		queries = queries[:s.cfg.Limit]
	}

	for _, q := range queries {
		res.Pages++
		doc, err := util.GetDocument(ctx, s.hc, s.lim, s.cfg.Endpoint+"?q="+url.QueryEscape(q))
		if err != nil {
			s.log.Warn().Err(err).Str("query", q).Msg("search failed")
			res.PageFailed(err)
			continue
		}
		if doc.Find(challengeSelector).Length() > 0 {
			s.log.Warn().Str("query", q).Msg("challenged, skipping remaining queries")
			res.PageFailed(errChallenged)
			break
		}

		// DDG HTML results: <div class="result"><a class="result__a" href="..."> + snippet
		doc.Find("div.result, div.web-result").Each(func(_ int, r *goquery.Selection) {
			a := r.Find("a.result__a").First()
			href, _ := a.Attr("href")
			target, ok := util.UnwrapRedirect(strings.TrimSpace(href))
			if !ok || href == "" {
				res.Malformed++
				return
			}
			if strings.HasPrefix(target, "//") {
				target = "https:" + target
			}
			host := util.HostOf(target)
			if host == "" || isBlockedDomain(host) || seen[target] {
				return
			}
			seen[target] = true

			res.Add(domain.RawCandidate{
				Origin: Name,
				URL:    target,
				Title:  util.CleanText(a.Text()),
				Text:   util.CleanText(r.Find(".result__snippet").First().Text()),
				Meta:   map[string]string{domain.MetaQuery: q},
			})
		})
	}

	s.log.Info().Int("queries", res.Pages).Int("candidates", len(res.Candidates)).Msg("duckduckgo done")
	return res, res.Outcome()
}

func isBlockedDomain(host string) bool {
	for _, b := range domainBlocklist {
		if host == b || strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	return false
}
