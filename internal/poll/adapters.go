package poll

import (
	"time"

	"leadscout-engine/internal/config"
	"leadscout-engine/internal/queries"
	"leadscout-engine/internal/scrape/brave"
	"leadscout-engine/internal/scrape/craigslist"
	"leadscout-engine/internal/scrape/duckduckgo"
	"leadscout-engine/internal/scrape/exa"
	"leadscout-engine/internal/scrape/govbids"
	"leadscout-engine/internal/scrape/inbox"
	"leadscout-engine/internal/scrape/reddit"
	"leadscout-engine/internal/scrape/types"
	"leadscout-engine/internal/secrets"
)

// legacyOrigins is the reduced set a legacy run uses.
var legacyOrigins = map[string]bool{
	craigslist.Name: true,
	"miamidade":     true,
	"broward":       true,
}

// BuildAdapters returns the enabled adapters for mode. Search origins get
// the generated queries unless their config lists its own.
func BuildAdapters(cfg config.Config, mode string, qs queries.Set) []types.Adapter {
	o := cfg.Origins
	window := cfg.StalenessWindow()
	dorks := queries.DorkStrings(qs.Dorks)

	var out []types.Adapter
	add := func(name string, enabled bool, build func() types.Adapter) {
		if !enabled || (mode == ModeLegacy && !legacyOrigins[name]) {
			return
		}
		out = append(out, build())
	}

	add(craigslist.Name, o.Craigslist.Enabled, func() types.Adapter {
		return craigslist.New(craigslist.FromConfig(o.Craigslist), nil)
	})
	add("miamidade", o.MiamiDade.Enabled, func() types.Adapter {
		return govbids.New(govbids.MiamiDade(o.MiamiDade), nil)
	})
	add("broward", o.Broward.Enabled, func() types.Adapter {
		return govbids.New(govbids.Broward(o.Broward), nil)
	})
	add(exa.Name, o.Exa.Enabled, func() types.Adapter {
		c := o.Exa
		c.APIKey = secrets.APIKey(cfg, secrets.NameExa)
		return exa.New(exa.FromConfig(c, window, qs.Semantic), nil)
	})
	add(brave.Name, o.Brave.Enabled, func() types.Adapter {
		c := o.Brave
		c.APIKey = secrets.APIKey(cfg, secrets.NameBrave)
		return brave.New(brave.FromConfig(c, window, dorks), nil)
	})
	add(duckduckgo.Name, o.DuckDuckGo.Enabled, func() types.Adapter {
		return duckduckgo.New(duckduckgo.FromConfig(o.DuckDuckGo, dorks), nil)
	})
	add(reddit.Name, o.Reddit.Enabled, func() types.Adapter {
		return reddit.New(reddit.FromConfig(o.Reddit), nil)
	})
	add(inbox.Name, o.Inbox.Enabled, func() types.Adapter {
		return inbox.New(inbox.FromConfig(o.Inbox, window), secrets.IMAPPassword(cfg))
	})
	return out
}

// QuerySet generates the queries a run hands to the search origins.
func QuerySet(cfg config.Config, now time.Time) queries.Set {
	return queries.Set{
		GeneratedAt: now.UTC(),
		Semantic:    queries.Semantic(cfg, now),
		Dorks:       queries.Dorks(cfg),
		Subreddits:  cfg.Origins.Reddit.Subreddits,
	}
}
