// engine/internal/rank/weighted.go
package rank

import (
	"math"
	"sort"
	"time"

	"leadscout-engine/internal/config"
)

// WeightedScorer is a normalized weighted sum scaled to 0..100.
type WeightedScorer struct {
	Confidence float64
	Project    float64
	Recency    float64
	Trust      float64
}

// FromConfig builds the scorer the pipeline uses.
func FromConfig(cfg config.Config) WeightedScorer {
	s := cfg.Scoring
	return WeightedScorer{
		Confidence: s.ConfidenceWeight,
		Project:    s.ProjectWeight,
		Recency:    s.RecencyWeight,
		Trust:      s.TrustWeight,
	}
}

func (w WeightedScorer) Score(in Inputs) float64 {
	total := pos(w.Confidence) + pos(w.Project) + pos(w.Recency) + pos(w.Trust)
	if total == 0 {
		return 0
	}
	raw := pos(w.Confidence)*unit(in.Confidence) +
		pos(w.Project)*unit(in.ProjectWeight) +
		pos(w.Recency)*unit(in.Recency) +
		pos(w.Trust)*unit(in.Trust)
	return math.Round(1000*raw/total) / 10
}

// Decay describes how freshness turns into the recency component.
type Decay struct {
	HalfLifeDays     float64
	UnknownAgeFactor float64
}

func DecayFromConfig(cfg config.Config) Decay {
	return Decay{
		HalfLifeDays:     cfg.Scoring.RecencyHalfLifeDays,
		UnknownAgeFactor: cfg.Scoring.UnknownAgeFactor,
	}
}

// Factor is 1.0 for a post seen the moment it went up and halves every
// HalfLifeDays after that. ref is when the lead was first seen, which keeps
// the factor stable across re-merges. A nil postedAt gets UnknownAgeFactor.
func (d Decay) Factor(postedAt *time.Time, ref time.Time) float64 {
	if postedAt == nil || postedAt.IsZero() {
		return unit(d.UnknownAgeFactor)
	}
	days := ref.Sub(*postedAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	hl := d.HalfLifeDays
	if hl <= 0 {
		hl = 7
	}
	return math.Exp(-math.Ln2 * days / hl)
}

// UnionTags merges tag sets into one sorted, duplicate-free slice.
func UnionTags(sets ...[]string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, set := range sets {
		for _, t := range set {
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

func unit(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func pos(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
