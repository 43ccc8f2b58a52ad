package brave

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"leadscout-engine/internal/config"
	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/logger"
	"leadscout-engine/internal/scrape/types"
	"leadscout-engine/internal/scrape/util"
)

const Name = "brave"

type Config struct {
	Endpoint        string
	APIKey          string
	Queries         []string
	NumResults      int
	Window          time.Duration
	HydrateMinChars int // 0 disables hydration
	MinDelay        time.Duration
}

func FromConfig(c config.Search, window time.Duration, queries []string) Config {
	if len(c.Queries) > 0 {
		queries = c.Queries
	}
	return Config{
		Endpoint:        c.Endpoint,
		APIKey:          c.APIKey,
		Queries:         queries,
		NumResults:      c.NumResults,
		Window:          window,
		HydrateMinChars: c.HydrateMinChars,
		MinDelay:        c.MinDelay(),
	}
}

type Client struct {
	cfg Config
	hc  *http.Client
	lim *util.HostLimiter
	log *zerolog.Logger
}

func New(cfg Config, hc *http.Client) *Client {
	if hc == nil {
		hc = util.NewClient(20 * time.Second)
	}
	if cfg.NumResults <= 0 || cfg.NumResults > 20 {
		cfg.NumResults = 20
	}
	return &Client{
		cfg: cfg,
		hc:  hc,
		lim: util.NewHostLimiter(cfg.MinDelay, 1),
		log: logger.Named(Name),
	}
}

func (c *Client) Name() string { return Name }

type webResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			PageAge     string `json:"page_age"`
			Age         string `json:"age"`
			Profile     struct {
				Name string `json:"name"`
			} `json:"profile"`
		} `json:"results"`
	} `json:"web"`
}

func (c *Client) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	res := types.ScrapeResult{Origin: Name}
	if c.cfg.APIKey == "" {
		return res, domain.Unavailable(Name, "auth", errors.New("no api key configured"))
	}

	for _, q := range c.cfg.Queries {
		res.Pages++
		out, err := c.search(ctx, q)
		if err != nil {
			res.PageFailed(err)
			var se *util.StatusError
			if errors.As(err, &se) && se.Rejected() {
				return res, domain.Unavailable(Name, "search", err)
			}
			c.log.Warn().Err(err).Str("query", q).Msg("search failed")
			continue
		}

		for _, r := range out.Web.Results {
			cand := domain.RawCandidate{
				Origin: Name,
				URL:    r.URL,
				Title:  util.CleanText(r.Title),
				Text:   util.CleanText(r.Description),
				Meta:   map[string]string{domain.MetaQuery: q},
			}
			cand.PostedAt = util.ParseTime(r.PageAge, time.UTC)
			if cand.PostedAt == nil {
				cand.PostedAt = util.ParseTime(r.Age, time.UTC)
			}
			if r.Profile.Name != "" {
				cand.Meta[domain.MetaPoster] = r.Profile.Name
			}
			c.hydrate(ctx, &cand)
			res.Add(cand)
		}
	}

	c.log.Info().Int("queries", res.Pages).Int("candidates", len(res.Candidates)).Msg("brave done")
	return res, res.Outcome()
}

// hydrate replaces a too-short snippet with the page's main text. Failures
// keep the snippet.
func (c *Client) hydrate(ctx context.Context, cand *domain.RawCandidate) {
	if c.cfg.HydrateMinChars <= 0 || len(cand.Text) >= c.cfg.HydrateMinChars || cand.URL == "" {
		return
	}
	a, err := util.ReadArticle(ctx, c.hc, c.lim, cand.URL)
	if err != nil {
		c.log.Debug().Err(err).Str("url", cand.URL).Msg("hydrate failed")
		return
	}
	if len(a.Text) > len(cand.Text) {
		cand.Text = util.Truncate(a.Text, 4000)
	}
	if cand.PostedAt == nil {
		cand.PostedAt = a.Published
	}
}

func (c *Client) search(ctx context.Context, q string) (webResponse, error) {
	v := url.Values{}
	v.Set("q", q)
	v.Set("count", strconv.Itoa(c.cfg.NumResults))
	if f := freshness(c.cfg.Window); f != "" {
		v.Set("freshness", f)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+v.Encode(), nil)
	if err != nil {
		return webResponse{}, err
	}
	req.Header.Set("X-Subscription-Token", c.cfg.APIKey)

	var out webResponse
	err = util.DoJSON(ctx, c.hc, c.lim, req, &out)
	return out, err
}

// freshness maps the staleness window onto Brave's coarse buckets.
func freshness(window time.Duration) string {
	day := 24 * time.Hour
	switch {
	case window <= 0:
		return ""
	case window <= day:
		return "pd"
	case window <= 7*day:
		return "pw"
	case window <= 31*day:
		return "pm"
	default:
		return "py"
	}
}
