// Package govbids reads county procurement boards. Each board is a single
// listing page; rows that mention one of the configured project keywords
// become candidates.
package govbids

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
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

type Layout int

const (
	// Cards is the Miami-Dade solicitations page: div cards, table rows as fallback.
	Cards Layout = iota
	// Table is a bonfire portal: title in the 2nd cell, closing date in the last.
	Table
)

type Config struct {
	Name     string
	URL      string
	Agency   string
	Keywords []string
	Layout   Layout
	MinDelay time.Duration
}

func MiamiDade(c config.GovBids) Config {
	return Config{
		Name:     "miamidade",
		URL:      c.URL,
		Agency:   c.Agency,
		Keywords: c.Keywords,
		Layout:   Cards,
		MinDelay: c.MinDelay(),
	}
}

func Broward(c config.GovBids) Config {
	return Config{
		Name:     "broward",
		URL:      c.URL,
		Agency:   c.Agency,
		Keywords: c.Keywords,
		Layout:   Table,
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
		hc = util.NewClient(30 * time.Second)
	}
	return &Scraper{
		cfg: cfg,
		hc:  hc,
		lim: util.NewHostLimiter(cfg.MinDelay, 1),
		log: logger.Named(cfg.Name),
	}
}

func (s *Scraper) Name() string { return s.cfg.Name }

func (s *Scraper) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	res := types.ScrapeResult{Origin: s.cfg.Name, Pages: 1}

	doc, err := util.GetDocument(ctx, s.hc, s.lim, s.cfg.URL)
	if err != nil {
		res.PageFailed(err)
		return res, res.Outcome()
	}

	switch s.cfg.Layout {
	case Table:
		s.parseTable(doc, &res)
	default:
		s.parseCards(doc, &res)
	}

	s.log.Info().Int("candidates", len(res.Candidates)).Int("malformed", res.Malformed).Msg("board read")
	return res, nil
}

func (s *Scraper) parseCards(doc *goquery.Document, res *types.ScrapeResult) {
	rows := doc.Find("div.solicitation-card")
	if rows.Length() == 0 {
		rows = doc.Find("tr")
	}
	rows.Each(func(_ int, row *goquery.Selection) {
		text := util.CleanText(row.Text())
		if !s.relevant(text) {
			return
		}
		title := util.CleanText(row.Find("h3").First().Text())
		if title == "" {
			title = util.CleanText(row.Find("a").First().Text())
		}
		closing := util.CleanText(row.Find(".closing-date, .due-date").First().Text())
		if closing == "" {
			closing = firstDate(text)
		}
		res.Add(s.candidate(row, title, text, closing))
	})
}

func (s *Scraper) parseTable(doc *goquery.Document, res *types.ScrapeResult) {
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < 3 {
			return
		}
		text := util.CleanText(row.Text())
		if !s.relevant(text) {
			return
		}
		title := util.CleanText(cols.Eq(1).Text())
		closing := util.CleanText(cols.Last().Text())
		res.Add(s.candidate(row, title, text, closing))
	})
}

func (s *Scraper) candidate(row *goquery.Selection, title, text, closing string) domain.RawCandidate {
	if title == "" {
		title = util.Truncate(text, 80)
	}
	link := s.cfg.URL
	if href, ok := row.Find("a[href]").First().Attr("href"); ok {
		if abs := resolve(s.cfg.URL, href); abs != "" {
			link = abs
		}
	}

	meta := map[string]string{domain.MetaAgency: s.cfg.Agency}
	if closing != "" {
		if t := util.ParseTime(closing, util.Eastern()); t != nil {
			closing = t.Format("2006-01-02")
		}
		meta[domain.MetaClosingDate] = closing
	}

	c := domain.RawCandidate{
		Origin: s.cfg.Name,
		URL:    link,
		Title:  title,
		Text:   text,
		Meta:   meta,
	}
	if posted, ok := row.Find("[data-posted]").First().Attr("data-posted"); ok {
		c.PostedAt = util.ParseTime(posted, util.Eastern())
	}
	return c
}

func (s *Scraper) relevant(text string) bool {
	if len(s.cfg.Keywords) == 0 {
		return true
	}
	low := strings.ToLower(text)
	for _, k := range s.cfg.Keywords {
		if strings.Contains(low, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

var reDate = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)

func firstDate(text string) string {
	return reDate.FindString(text)
}

func resolve(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
