package queries

import (
	"strings"
	"testing"
	"time"

	"leadscout-engine/internal/config"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Run.StalenessDays = 30
	cfg.Queries.Regions = []string{"Miami", "Weston"}
	cfg.Queries.Sites = []string{"reddit.com", "nextdoor.com", "myspace.com"}
	cfg.Queries.Locations = []string{"Miami", "Davie"}
	cfg.Queries.Keywords = []string{"pavers", "sod"}
	return cfg
}

func TestSemantic(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	got := Semantic(testConfig(), now)

	// 2 regions x (4 reddit + 2 nextdoor); unknown site skipped
	if len(got) != 12 {
		t.Fatalf("len = %d, got %v", len(got), got)
	}
	for _, q := range got {
		if !strings.HasSuffix(q, "after:2026-09-15") {
			t.Errorf("missing cutoff: %q", q)
		}
	}
	if !strings.Contains(got[0], `site:reddit.com "Miami"`) {
		t.Errorf("first query = %q", got[0])
	}
}

func TestDorks(t *testing.T) {
	ds := Dorks(testConfig())
	if len(ds) != len(dorkTemplates)*2*2 {
		t.Fatalf("len = %d", len(ds))
	}
	if ds[0].Template != "facebook_wanted" {
		t.Errorf("first template = %s, want sorted order", ds[0].Template)
	}
	for _, d := range ds {
		if strings.Contains(d.Query, "{") {
			t.Errorf("unexpanded placeholder: %q", d.Query)
		}
		if !strings.Contains(d.Query, d.Location) || !strings.Contains(d.Query, d.Keyword) {
			t.Errorf("query %q lacks %s/%s", d.Query, d.Location, d.Keyword)
		}
	}
}

func TestDorksCapsLists(t *testing.T) {
	cfg := testConfig()
	cfg.Queries.Locations = []string{"a", "b", "c", "d", "e", "f"}
	cfg.Queries.Keywords = []string{"1", "2", "3", "4", "5", "6", "7"}
	if n := len(Dorks(cfg)); n != len(dorkTemplates)*maxLocations*maxKeywords {
		t.Fatalf("len = %d", n)
	}
}

func TestInstructionsDeterministic(t *testing.T) {
	cfg := testConfig()
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	set := Set{GeneratedAt: now, Semantic: Semantic(cfg, now), Dorks: Dorks(cfg), Subreddits: []string{"Miami", "r/lawncare"}}

	a, b := Instructions(set), Instructions(set)
	if a != b {
		t.Fatal("instructions differ between calls")
	}
	for _, want := range []string{"# Lead search queries", "### yelp_request", "- `r/Miami`", "- `r/lawncare`", "2026-10-15T09:00:00Z"} {
		if !strings.Contains(a, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestInstructionsEmpty(t *testing.T) {
	out := Instructions(Set{})
	if strings.Count(out, "_none configured_") != 3 {
		t.Fatalf("got %s", out)
	}
}
