package rank

import (
	"math"
	"reflect"
	"testing"
	"time"

	"leadscout-engine/internal/config"
)

func defaultScorer() WeightedScorer { return FromConfig(config.Default()) }

func TestScoreRange(t *testing.T) {
	s := defaultScorer()
	if got := s.Score(Inputs{}); got != 0 {
		t.Errorf("zero inputs should score 0, got %v", got)
	}
	if got := s.Score(Inputs{1, 1, 1, 1}); got != 100 {
		t.Errorf("full inputs should score 100, got %v", got)
	}
	if got := s.Score(Inputs{5, 5, 5, 5}); got != 100 {
		t.Errorf("inputs are clamped, got %v", got)
	}
}

func TestScoreMonotonic(t *testing.T) {
	s := defaultScorer()
	base := Inputs{Confidence: 0.4, ProjectWeight: 0.5, Recency: 0.3, Trust: 0.6}
	bump := []struct {
		name string
		mod  func(Inputs, float64) Inputs
	}{
		{"confidence", func(in Inputs, v float64) Inputs { in.Confidence = v; return in }},
		{"project", func(in Inputs, v float64) Inputs { in.ProjectWeight = v; return in }},
		{"recency", func(in Inputs, v float64) Inputs { in.Recency = v; return in }},
		{"trust", func(in Inputs, v float64) Inputs { in.Trust = v; return in }},
	}
	for _, b := range bump {
		t.Run(b.name, func(t *testing.T) {
			prev := -1.0
			for v := 0.0; v <= 1.0001; v += 0.05 {
				got := s.Score(b.mod(base, v))
				if got < prev {
					t.Fatalf("score dropped from %v to %v at %s=%v", prev, got, b.name, v)
				}
				prev = got
			}
		})
	}
}

func TestZeroWeightsIgnored(t *testing.T) {
	s := WeightedScorer{Confidence: 1}
	if got := s.Score(Inputs{Confidence: 0.5, Trust: 1}); got != 50 {
		t.Errorf("expected only confidence to count, got %v", got)
	}
	if got := (WeightedScorer{}).Score(Inputs{1, 1, 1, 1}); got != 0 {
		t.Errorf("no weights should score 0, got %v", got)
	}
}

func TestDecay(t *testing.T) {
	d := Decay{HalfLifeDays: 7, UnknownAgeFactor: 0.35}
	ref := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	at := func(days int) *time.Time {
		p := ref.AddDate(0, 0, -days)
		return &p
	}

	if got := d.Factor(at(0), ref); got != 1 {
		t.Errorf("fresh post should be 1, got %v", got)
	}
	if got := d.Factor(at(7), ref); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("one half-life should be 0.5, got %v", got)
	}
	if d.Factor(at(20), ref) >= d.Factor(at(10), ref) {
		t.Error("older posts must decay")
	}
	if got := d.Factor(nil, ref); got != 0.35 {
		t.Errorf("unknown age should use the discount, got %v", got)
	}

	future := ref.Add(48 * time.Hour)
	if got := d.Factor(&future, ref); got != 1 {
		t.Errorf("future posts clamp to 1, got %v", got)
	}
}

func TestUnionTags(t *testing.T) {
	got := UnionTags([]string{"sod", "pavers"}, []string{"pavers", "", "irrigation"}, nil)
	want := []string{"irrigation", "pavers", "sod"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got := UnionTags(); got == nil || len(got) != 0 {
		t.Errorf("empty union should be an empty slice, got %#v", got)
	}
}
