package dedup

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/rank"
)

var generic = []string{"https://broward.bonfirehub.com/portal"}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantByURL bool
		wantKey   string
	}{
		{"plain", "http://www.reddit.com/r/Miami/comments/abc/need_sod/?utm_source=share", true, "url:https://reddit.com/r/Miami/comments/abc/need_sod"},
		{"ddg wrapper", "https://duckduckgo.com/l/?uddg=https%3A%2F%2Fnextdoor.com%2Fp%2Fxyz", true, "url:https://nextdoor.com/p/xyz"},
		{"broken wrapper", "https://duckduckgo.com/l/?rut=1", false, ""},
		{"generic page", "https://broward.bonfirehub.com/portal/?tab=openOpportunities", false, ""},
		{"not http", "mailto:x@example.com", false, ""},
		{"empty", "", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := Resolve(domain.RawCandidate{URL: tt.url, Title: "Landscaping RFP", Text: "Grounds maintenance zone 3"}, generic)
			if id.ByURL != tt.wantByURL {
				t.Fatalf("ByURL got %v, want %v (key %s)", id.ByURL, tt.wantByURL, id.Key)
			}
			if tt.wantByURL && id.Key != tt.wantKey {
				t.Fatalf("key got %q, want %q", id.Key, tt.wantKey)
			}
			if !tt.wantByURL && !strings.HasPrefix(id.Key, "fp:") {
				t.Fatalf("want fingerprint key, got %q", id.Key)
			}
		})
	}
}

func TestFingerprint_IgnoresMarkupAndCase(t *testing.T) {
	a := Fingerprint("<p>Landscaping   RFP</p>")
	b := Fingerprint("landscaping rfp")
	if a != b {
		t.Fatalf("fingerprints differ: %s vs %s", a, b)
	}
	if len(a) != 32 {
		t.Fatalf("want 32 hex chars, got %d", len(a))
	}
}

func newMerger() Merger {
	return Merger{
		Scorer: rank.WeightedScorer{Confidence: 0.35, Project: 0.25, Recency: 0.25, Trust: 0.15},
		Decay:  rank.Decay{HalfLifeDays: 7, UnknownAgeFactor: 0.35},
		Trust: func(origin string) float64 {
			if origin == "reddit" {
				return 0.65
			}
			return 0.4
		},
	}
}

func candidate(origin, url string, tags []string, conf float64, posted *time.Time) domain.ClassifiedCandidate {
	return domain.ClassifiedCandidate{
		RawCandidate: domain.RawCandidate{
			Origin:   origin,
			URL:      url,
			Title:    "Need sod",
			Text:     "I need someone to install sod in my backyard",
			PostedAt: posted,
			Meta:     map[string]string{domain.MetaPoster: "u1"},
		},
		Intent:        domain.IntentHomeowner,
		Confidence:    conf,
		Tags:          tags,
		ProjectWeight: 0.7,
	}
}

func TestMerge_Idempotent(t *testing.T) {
	m := newMerger()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	posted := now.Add(-48 * time.Hour)
	c := candidate("reddit", "https://reddit.com/r/Miami/comments/abc", []string{"sod"}, 0.5, &posted)
	id := Resolve(c.RawCandidate, nil)

	once := m.Merge(nil, id, c, "run-1", now)
	twice := m.Merge(&once, id, c, "run-1", now)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("re-merge changed lead:\n once=%+v\ntwice=%+v", once, twice)
	}

	later := now.Add(6 * time.Hour)
	third := m.Merge(&once, id, c, "run-2", later)
	if !third.LastSeen.Equal(later) {
		t.Fatalf("last_seen got %v, want %v", third.LastSeen, later)
	}
	third.LastSeen = once.LastSeen
	third.LastRunID = once.LastRunID
	if !reflect.DeepEqual(once, third) {
		t.Fatalf("only last_seen and run id may change:\n once=%+v\nthird=%+v", once, third)
	}
}

func TestMerge_CrossOriginUnionsTags(t *testing.T) {
	m := newMerger()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	a := candidate("reddit", "https://www.reddit.com/r/Miami/comments/abc/", []string{"sod"}, 0.4, nil)
	b := candidate("duckduckgo", "https://duckduckgo.com/l/?uddg=https%3A%2F%2Freddit.com%2Fr%2FMiami%2Fcomments%2Fabc", []string{"irrigation", "sod"}, 0.6, nil)

	ida, idb := Resolve(a.RawCandidate, nil), Resolve(b.RawCandidate, nil)
	if ida.Key != idb.Key {
		t.Fatalf("same canonical url must share a key: %q vs %q", ida.Key, idb.Key)
	}

	l := m.Merge(nil, ida, a, "run-1", now)
	l = m.Merge(&l, idb, b, "run-1", now)
	if want := []string{"irrigation", "sod"}; !reflect.DeepEqual(l.Tags, want) {
		t.Fatalf("tags got %v, want %v", l.Tags, want)
	}
	if l.Confidence != 0.6 || l.Trust != 0.65 {
		t.Fatalf("confidence=%v trust=%v, want max of both", l.Confidence, l.Trust)
	}
	if l.Origin != "reddit" {
		t.Fatalf("origin should stay with the first sighting, got %q", l.Origin)
	}
}

func TestMerge_StatusTransitions(t *testing.T) {
	m := newMerger()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	c := candidate("reddit", "https://reddit.com/x", []string{"sod"}, 0.5, nil)
	id := Resolve(c.RawCandidate, nil)

	stale := m.Merge(nil, id, c, "r0", now.Add(-40*24*time.Hour))
	stale.Status = domain.StatusStale
	if got := m.Merge(&stale, id, c, "r1", now).Status; got != domain.StatusActive {
		t.Fatalf("stale lead seen again should be active, got %s", got)
	}

	rejected := stale
	rejected.Status = domain.StatusRejected
	if got := m.Merge(&rejected, id, c, "r1", now).Status; got != domain.StatusRejected {
		t.Fatalf("rejected must stay rejected, got %s", got)
	}
}

func TestMerge_UnknownAgeDiscounted(t *testing.T) {
	m := newMerger()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-time.Hour)

	known := m.Merge(nil, Identity{Key: "k1"}, candidate("reddit", "u", []string{"sod"}, 0.5, &fresh), "r", now)
	unknown := m.Merge(nil, Identity{Key: "k2"}, candidate("reddit", "u", []string{"sod"}, 0.5, nil), "r", now)
	if unknown.Recency != 0.35 {
		t.Fatalf("unknown age recency got %v", unknown.Recency)
	}
	if unknown.Score >= known.Score {
		t.Fatalf("unknown age should score below a fresh post: %v >= %v", unknown.Score, known.Score)
	}
}

func TestMerge_FillsEmptyFields(t *testing.T) {
	m := newMerger()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	first := candidate("broward", "https://broward.bonfirehub.com/opportunities/1", nil, 0.5, nil)
	id := Resolve(first.RawCandidate, nil)
	l := m.Merge(nil, id, first, "r", now)
	if l.ClosingDate != "" {
		t.Fatalf("closing got %q", l.ClosingDate)
	}

	second := first
	second.Meta = map[string]string{domain.MetaClosingDate: "2026-11-03", domain.MetaAgency: "Broward County"}
	l = m.Merge(&l, id, second, "r", now)
	if l.ClosingDate != "2026-11-03" {
		t.Fatalf("closing date not filled, got %q", l.ClosingDate)
	}
	if l.Agency != "u1" {
		t.Fatalf("existing agency label must be kept, got %q", l.Agency)
	}
}
