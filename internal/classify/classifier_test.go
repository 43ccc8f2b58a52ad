package classify

import (
	"reflect"
	"testing"
	"time"

	"leadscout-engine/internal/config"
	"leadscout-engine/internal/domain"
)

func defaultClassifier(t *testing.T) *Classifier {
	t.Helper()
	return New(config.Default().Classifier)
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

func TestHomeownerExample(t *testing.T) {
	c := defaultClassifier(t)
	r := c.Classify("I need someone to install sod in my backyard in Miami, any recommendations?")
	if r.Intent != domain.IntentHomeowner {
		t.Fatalf("expected homeowner-seeking, got %s (pos=%.1f neg=%.1f tags=%v)", r.Intent, r.Positive, r.Negative, r.Tags)
	}
	if !hasTag(r.Tags, "sod") {
		t.Errorf("expected sod tag, got %v", r.Tags)
	}
	if r.Confidence <= 0 || r.Confidence > 1 {
		t.Errorf("confidence out of range: %v", r.Confidence)
	}
}

func TestProfessionalExample(t *testing.T) {
	c := defaultClassifier(t)
	r := c.Classify("We install pavers and travertine, licensed and insured, free estimates")
	if r.Intent != domain.IntentProfessional {
		t.Fatalf("expected professional-offering, got %s", r.Intent)
	}
	if !hasTag(r.Tags, "pavers") {
		t.Errorf("tags are extracted even for ads, got %v", r.Tags)
	}
}

func TestClassifyTable(t *testing.T) {
	c := defaultClassifier(t)
	tests := []struct {
		name string
		text string
		want domain.Intent
	}{
		{"negative only", "Family owned landscaping company, call us today", domain.IntentProfessional},
		{"negative beats need", "I need work. Our crew lays pavers fast", domain.IntentProfessional},
		{"need without project", "I need a ride to the airport", domain.IntentIrrelevant},
		{"project without need", "Pavers are nice in the summer", domain.IntentIrrelevant},
		{"sales flag", "Selling a used couch", domain.IntentProfessional},
		{"empty", "", domain.IntentIrrelevant},
		{"markup stripped", "<p>Looking for someone to do <b>tree removal</b></p><p>in my yard</p>", domain.IntentHomeowner},
		{"accents folded", "Does anyone know a good landscapér for my lawn?", domain.IntentHomeowner},
		{"gov solicitation", "Invitation to Bid: Grounds Maintenance and Irrigation Repair", domain.IntentHomeowner},
		{"boilerplate ignored", "Need sod for my yard. do NOT contact me with unsolicited services or offers", domain.IntentHomeowner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := c.Classify(tt.text)
			if r.Intent != tt.want {
				t.Errorf("Classify(%q) = %s, want %s (pos=%.1f neg=%.1f tags=%v)",
					tt.text, r.Intent, tt.want, r.Positive, r.Negative, r.Tags)
			}
		})
	}
}

func tieDictionary(tieBreak string) config.Dictionary {
	return config.Dictionary{
		Version:   "test",
		Negative:  []config.Phrase{{Text: "we install", Weight: 2}},
		Positive:  []config.Phrase{{Text: "i need", Weight: 2}},
		Projects:  []config.Project{{Tag: "sod", Weight: 0.7, Terms: []string{"sod"}}},
		MinSignal: 1,
		MaxSignal: 6,
		TieBreak:  tieBreak,
	}
}

func TestTieFavorsProfessional(t *testing.T) {
	c := New(tieDictionary("professional"))
	r := c.Classify("I need sod. We install sod.")
	if r.Positive != r.Negative {
		t.Fatalf("test text should tie, got pos=%.1f neg=%.1f", r.Positive, r.Negative)
	}
	if r.Intent != domain.IntentProfessional {
		t.Errorf("tie should resolve to professional, got %s", r.Intent)
	}
	if !r.Ambiguous {
		t.Error("tie should be flagged ambiguous")
	}
}

func TestHomeownerTieBreakPolicy(t *testing.T) {
	const text = "I need sod. We install sod."
	tests := []struct {
		name     string
		pos, neg float64
		want     domain.Intent
	}{
		{"equal weight stays professional", 2, 2, domain.IntentProfessional},
		{"heavier need wins", 3, 2, domain.IntentHomeowner},
		{"heavier negative wins", 2, 3, domain.IntentProfessional},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tieDictionary(TieBreakHomeowner)
			d.Positive[0].Weight = tt.pos
			d.Negative[0].Weight = tt.neg
			if r := New(d).Classify(text); r.Intent != tt.want {
				t.Errorf("pos=%.0f neg=%.0f: got %s, want %s", tt.pos, tt.neg, r.Intent, tt.want)
			}
		})
	}

	d := tieDictionary("professional")
	d.Positive[0].Weight = 3
	if r := New(d).Classify(text); r.Intent != domain.IntentProfessional {
		t.Errorf("default policy lets any negative decide, got %s", r.Intent)
	}
}

func TestConfidenceCapped(t *testing.T) {
	d := tieDictionary("professional")
	d.Positive = append(d.Positive,
		config.Phrase{Text: "my yard", Weight: 5},
		config.Phrase{Text: "any recommendations", Weight: 5})
	r := New(d).Classify("i need sod for my yard any recommendations")
	if r.Confidence != 1 {
		t.Errorf("expected confidence capped at 1, got %v", r.Confidence)
	}
}

func TestDeterministic(t *testing.T) {
	c := defaultClassifier(t)
	text := "Looking for a landscaper for pavers, sod and irrigation in Weston"
	a := c.Classify(text)
	b := c.Classify(text)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("non-deterministic result: %+v vs %+v", a, b)
	}
	if len(a.Tags) < 3 {
		t.Errorf("expected every matching tag, got %v", a.Tags)
	}
	if !hasTag(a.Tags, "irrigation") || !hasTag(a.Tags, "pavers") || !hasTag(a.Tags, "sod") {
		t.Errorf("missing tags in %v", a.Tags)
	}
}

func TestWordBoundaries(t *testing.T) {
	c := defaultClassifier(t)
	r := c.Classify("I need soda and a sofa")
	if hasTag(r.Tags, "sod") {
		t.Errorf("sod must not match inside soda, got %v", r.Tags)
	}
}

func TestCandidateAge(t *testing.T) {
	c := defaultClassifier(t)
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	posted := now.Add(-72 * time.Hour)

	cc := c.Candidate(domain.RawCandidate{
		Origin: "reddit", Title: "Need pavers", Text: "I need pavers for my backyard", PostedAt: &posted,
	}, now)
	if !cc.AgeKnown || cc.AgeDays != 3 {
		t.Errorf("expected 3 known days, got %v %v", cc.AgeDays, cc.AgeKnown)
	}
	if cc.Intent != domain.IntentHomeowner {
		t.Errorf("got %s", cc.Intent)
	}
	if cc.ProjectWeight != 0.9 {
		t.Errorf("expected pavers weight 0.9, got %v", cc.ProjectWeight)
	}

	undated := c.Candidate(domain.RawCandidate{Origin: "duckduckgo", Text: "I need sod"}, now)
	if !undated.UnknownAge() {
		t.Error("missing timestamp must give unknown age")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"I'm  looking-for   Pavers!!", "i m looking for pavers"},
		{"Café  JARDÍN", "cafe jardin"},
		{"<div>Tree</div><div>Removal</div>", "tree removal"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
