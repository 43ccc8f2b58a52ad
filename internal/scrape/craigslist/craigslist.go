package craigslist

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
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

const Name = "craigslist"

const defaultLimit = 15

type Config struct {
	Bases      []string
	Regions    []string // "" for the whole site, "/brw" etc. for sub-areas
	Categories []string
	Queries    []string
	Limit      int // search pages per run
	MinDelay   time.Duration
}

func FromConfig(c config.Classifieds) Config {
	return Config{
		Bases:      c.Bases,
		Regions:    c.Regions,
		Categories: c.Categories,
		Queries:    c.Queries,
		Limit:      c.Limit,
		MinDelay:   c.MinDelay(),
	}
}

type Scraper struct {
	cfg Config
	hc  *http.Client
	lim *util.HostLimiter
	log *zerolog.Logger
	now func() time.Time
}

func New(cfg Config, hc *http.Client) *Scraper {
	if hc == nil {
		hc = util.NewClient(20 * time.Second)
	}
	if cfg.Limit <= 0 {
		cfg.Limit = defaultLimit
	}
	if len(cfg.Regions) == 0 {
		cfg.Regions = []string{""}
	}
	return &Scraper{
		cfg: cfg,
		hc:  hc,
		lim: util.NewHostLimiter(cfg.MinDelay, 1),
		log: logger.Named(Name),
		now: time.Now,
	}
}

func (s *Scraper) Name() string { return Name }

// Targets lists the search pages for one run. The full cross product is
// shuffled with a seed derived from the day, so reruns on the same day hit
// the same pages and consecutive days rotate through the rest.
func (s *Scraper) Targets(day time.Time) []string {
	var all []string
	for _, base := range s.cfg.Bases {
		base = strings.TrimRight(base, "/")
		for _, reg := range s.cfg.Regions {
			for _, cat := range s.cfg.Categories {
				for _, q := range s.cfg.Queries {
					all = append(all, fmt.Sprintf("%s/search%s/%s?query=%s", base, reg, cat, url.QueryEscape(q)))
				}
			}
		}
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(day.UTC().Format("2006-01-02")))
	seed := h.Sum64()
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	r.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })

	if len(all) > s.cfg.Limit {
		all = all[:s.cfg.Limit]
	}
	return all
}

func (s *Scraper) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	res := types.ScrapeResult{Origin: Name}
	seen := map[string]bool{}

	for _, target := range s.Targets(s.now()) {
		if ctx.Err() != nil {
			res.PageFailed(ctx.Err())
			res.Pages++
			break
		}
		res.Pages++

		doc, err := util.GetDocument(ctx, s.hc, s.lim, target)
		if err != nil {
			s.log.Warn().Err(err).Str("url", target).Msg("search page failed")
			res.PageFailed(err)
			continue
		}
		s.parse(doc, target, seen, &res)
	}

	s.log.Info().Int("pages", res.Pages).Int("page_errors", len(res.PageErrors)).
		Int("candidates", len(res.Candidates)).Int("malformed", res.Malformed).Msg("craigslist done")
	return res, res.Outcome()
}

func (s *Scraper) parse(doc *goquery.Document, pageURL string, seen map[string]bool, res *types.ScrapeResult) {
	items := doc.Find("li.cl-static-search-result, li.result-row, .cl-results-list li")
	if items.Length() == 0 {
		items = doc.Find("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			return postingPath(href)
		})
	}

	items.Each(func(_ int, item *goquery.Selection) {
		link := item
		if goquery.NodeName(item) != "a" {
			link = item.Find(".titlestring").First()
			if link.Length() == 0 || goquery.NodeName(link) != "a" {
				link = item.Find("a[href]").First()
			}
		}
		href, _ := link.Attr("href")
		href = absolute(pageURL, strings.TrimSpace(href))

		title := util.CleanText(item.Find(".titlestring, .title, .result-title").First().Text())
		if title == "" {
			title = util.CleanText(link.Text())
		}
		if href == "" || title == "" {
			res.Malformed++
			s.log.Debug().Str("origin", Name).Str("page", pageURL).Msg("row without link or title")
			return
		}
		if seen[href] {
			return
		}
		seen[href] = true

		c := domain.RawCandidate{
			Origin: Name,
			URL:    href,
			Title:  title,
			Text:   util.CleanText(item.Text()),
			Meta: map[string]string{
				domain.MetaCategory: category(pageURL),
				domain.MetaQuery:    query(pageURL),
			},
		}
		if agency := util.InferAgency(href); agency != "" {
			c.Meta[domain.MetaAgency] = agency
		}
		if dt, ok := item.Find("time[datetime], .result-date[datetime]").First().Attr("datetime"); ok {
			c.PostedAt = util.ParseTime(dt, util.Eastern())
		}
		res.Add(c)
	})
}

// postingPath matches listing links such as /brw/lbg/d/need-sod/7712345678.html.
func postingPath(href string) bool {
	if !strings.HasSuffix(href, ".html") {
		return false
	}
	i := strings.LastIndexByte(href, '/')
	id := strings.TrimSuffix(href[i+1:], ".html")
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func absolute(pageURL, href string) string {
	if href == "" {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func category(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	return parts[len(parts)-1]
}

func query(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("query")
}
