package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"leadscout-engine/internal/config"
	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/logger"
	"leadscout-engine/internal/scrape/types"
	"leadscout-engine/internal/scrape/util"
)

const Name = "exa"

type Config struct {
	Endpoint   string
	APIKey     string
	Queries    []string
	NumResults int
	Window     time.Duration // only results published inside it
	MinDelay   time.Duration
}

func FromConfig(c config.Search, window time.Duration, queries []string) Config {
	if len(c.Queries) > 0 {
		queries = c.Queries
	}
	return Config{
		Endpoint:   c.Endpoint,
		APIKey:     c.APIKey,
		Queries:    queries,
		NumResults: c.NumResults,
		Window:     window,
		MinDelay:   c.MinDelay(),
	}
}

type Client struct {
	cfg Config
	hc  *http.Client
	lim *util.HostLimiter
	log *zerolog.Logger
	now func() time.Time
}

func New(cfg Config, hc *http.Client) *Client {
	if hc == nil {
		hc = util.NewClient(30 * time.Second)
	}
	if cfg.NumResults <= 0 {
		cfg.NumResults = 10
	}
	return &Client{
		cfg: cfg,
		hc:  hc,
		lim: util.NewHostLimiter(cfg.MinDelay, 1),
		log: logger.Named(Name),
		now: time.Now,
	}
}

func (c *Client) Name() string { return Name }

type searchRequest struct {
	Query              string   `json:"query"`
	NumResults         int      `json:"numResults"`
	StartPublishedDate string   `json:"startPublishedDate,omitempty"`
	Contents           contents `json:"contents"`
}

type contents struct {
	Text bool `json:"text"`
}

type searchResponse struct {
	Results []struct {
		ID            string `json:"id"`
		URL           string `json:"url"`
		Title         string `json:"title"`
		Author        string `json:"author"`
		PublishedDate string `json:"publishedDate"`
		Text          string `json:"text"`
	} `json:"results"`
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
			var se *util.StatusError
			if errors.As(err, &se) && se.Rejected() {
				res.PageFailed(err)
				return res, domain.Unavailable(Name, "search", err)
			}
			c.log.Warn().Err(err).Str("query", q).Msg("search failed")
			res.PageFailed(err)
			continue
		}

		for _, r := range out.Results {
			cand := domain.RawCandidate{
				Origin:   Name,
				URL:      r.URL,
				Title:    util.CleanText(r.Title),
				Text:     util.CleanText(r.Text),
				PostedAt: util.ParseTime(r.PublishedDate, time.UTC),
				Meta:     map[string]string{domain.MetaQuery: q},
			}
			if r.Author != "" {
				cand.Meta[domain.MetaPoster] = r.Author
			}
			res.Add(cand)
		}
	}

	c.log.Info().Int("queries", res.Pages).Int("candidates", len(res.Candidates)).Msg("exa done")
	return res, res.Outcome()
}

func (c *Client) search(ctx context.Context, q string) (searchResponse, error) {
	body := searchRequest{
		Query:      q,
		NumResults: c.cfg.NumResults,
		Contents:   contents{Text: true},
	}
	if c.cfg.Window > 0 {
		body.StartPublishedDate = c.now().Add(-c.cfg.Window).UTC().Format(time.RFC3339)
	}
	b, err := json.Marshal(body)
	if err != nil {
		return searchResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(b))
	if err != nil {
		return searchResponse{}, fmt.Errorf("exa request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)

	var out searchResponse
	if err := util.DoJSON(ctx, c.hc, c.lim, req, &out); err != nil {
		return searchResponse{}, err
	}
	return out, nil
}
