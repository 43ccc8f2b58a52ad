// Package queries builds the search strings handed to the search origins and
// the operator notes for running them by hand.
package queries

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"leadscout-engine/internal/config"
)

const (
	maxRegions          = 5 // reddit gets the widest region spread
	maxSecondaryRegions = 3
	maxLocations        = 4
	maxKeywords         = 5
)

// siteTemplates are keyed by the site they target. %[1]s is the region and
// %[2]s the after: cutoff.
var siteTemplates = map[string]struct {
	regions   int
	templates []string
}{
	"reddit.com": {maxRegions, []string{
		`site:reddit.com "%[1]s" "looking for" landscaper OR "need landscaping" after:%[2]s`,
		`site:reddit.com/r/forhire "%[1]s" landscaping OR "yard work" after:%[2]s`,
		`site:reddit.com/r/HomeImprovement "%[1]s" recommend landscaper after:%[2]s`,
		`site:reddit.com "%[1]s" "hire" "lawn" OR "garden" after:%[2]s`,
	}},
	"nextdoor.com": {maxSecondaryRegions, []string{
		`site:nextdoor.com "%[1]s" "recommendation" landscaper after:%[2]s`,
		`site:nextdoor.com "%[1]s" "looking for" "yard work" after:%[2]s`,
	}},
	"facebook.com": {maxSecondaryRegions, []string{
		`site:facebook.com/marketplace "%[1]s" landscaping service wanted after:%[2]s`,
		`site:facebook.com "%[1]s" "hiring" landscaper after:%[2]s`,
	}},
	"craigslist.org": {maxSecondaryRegions, []string{
		`site:craigslist.org "%[1]s" "gigs" landscaping OR pavers after:%[2]s`,
	}},
}

// Semantic returns natural-language-ish queries for the semantic and keyword
// search origins, restricted to posts after now minus the staleness window.
// Sites without templates are ignored.
func Semantic(cfg config.Config, now time.Time) []string {
	after := now.UTC().Add(-cfg.StalenessWindow()).Format("2006-01-02")
	var out []string
	for _, site := range cfg.Queries.Sites {
		st, ok := siteTemplates[strings.ToLower(site)]
		if !ok {
			continue
		}
		for _, region := range head(cfg.Queries.Regions, st.regions) {
			for _, tmpl := range st.templates {
				out = append(out, fmt.Sprintf(tmpl, region, after))
			}
		}
	}
	return out
}

// Dork is one keyword-search query and where it came from.
type Dork struct {
	Query    string `json:"query"`
	Template string `json:"template"`
	Location string `json:"location"`
	Keyword  string `json:"keyword"`
}

var dorkTemplates = map[string]string{
	"reddit_hiring":    `site:reddit.com/r/forhire "{keyword}" "{location}" hiring`,
	"reddit_recommend": `site:reddit.com "{location}" "recommend" "{keyword}"`,
	"twitter_looking":  `site:twitter.com "{location}" "looking for" "{keyword}" -retweets`,
	"nextdoor_need":    `site:nextdoor.com "{location}" "need" "{keyword}"`,
	"facebook_wanted":  `site:facebook.com "{location}" "{keyword}" wanted`,
	"yelp_request":     `site:yelp.com "{location}" "{keyword}" quote request`,
}

// Dorks expands every template over locations x keywords, in template name
// order so the output is stable.
func Dorks(cfg config.Config) []Dork {
	names := make([]string, 0, len(dorkTemplates))
	for name := range dorkTemplates {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Dork
	for _, name := range names {
		for _, loc := range head(cfg.Queries.Locations, maxLocations) {
			for _, kw := range head(cfg.Queries.Keywords, maxKeywords) {
				q := strings.NewReplacer("{location}", loc, "{keyword}", kw).Replace(dorkTemplates[name])
				out = append(out, Dork{Query: q, Template: name, Location: loc, Keyword: kw})
			}
		}
	}
	return out
}

// DorkStrings is Dorks reduced to the query text.
func DorkStrings(ds []Dork) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Query
	}
	return out
}

func head(xs []string, n int) []string {
	if len(xs) > n {
		return xs[:n]
	}
	return xs
}
