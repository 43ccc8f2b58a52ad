// Package classify labels free text as a homeowner asking for work, a
// business advertising it, or neither. A Classifier is immutable once built
// and holds no other state, so one instance can be shared across goroutines.
package classify

import (
	"math"
	"sort"
	"strings"
	"time"

	"leadscout-engine/internal/config"
	"leadscout-engine/internal/domain"
)

// TieBreakHomeowner lets need phrases win when they strictly outweigh
// business-voice phrases. The default lets any business-voice phrase decide.
// Equal weight is professional either way.
const TieBreakHomeowner = "homeowner"

type phrase struct {
	text   string // normalized, space padded
	weight float64
}

type project struct {
	tag    string
	weight float64
	terms  []string
}

// Result is everything Classify derives from one text.
type Result struct {
	Intent        domain.Intent
	Confidence    float64
	Tags          []string
	ProjectWeight float64
	Ambiguous     bool

	Positive float64
	Negative float64
	Boost    float64
	Version  string
}

type Classifier struct {
	version     string
	negative    []phrase
	positive    []phrase
	boosts      []phrase
	projects    []project
	boilerplate []string
	minSignal   float64
	maxSignal   float64
	tieBreak    string
}

// New compiles a dictionary. Phrases are normalized once here.
func New(d config.Dictionary) *Classifier {
	c := &Classifier{
		version:   d.Version,
		negative:  compile(d.Negative),
		positive:  compile(d.Positive),
		boosts:    compile(d.Boosts),
		minSignal: d.MinSignal,
		maxSignal: d.MaxSignal,
		tieBreak:  d.TieBreak,
	}
	if c.maxSignal <= 0 {
		c.maxSignal = 1
	}
	for _, b := range d.Boilerplate {
		if n := Normalize(b); n != "" {
			c.boilerplate = append(c.boilerplate, pad(n))
		}
	}
	for _, p := range d.Projects {
		pr := project{tag: p.Tag, weight: p.Weight}
		for _, t := range p.Terms {
			if n := Normalize(t); n != "" {
				pr.terms = append(pr.terms, pad(n))
			}
		}
		c.projects = append(c.projects, pr)
	}
	return c
}

// Version is the dictionary version this classifier was built from.
func (c *Classifier) Version() string { return c.version }

// Classify labels text. It is deterministic for a given text and dictionary.
func (c *Classifier) Classify(text string) Result {
	body := pad(Normalize(text))
	for _, bp := range c.boilerplate {
		body = strings.ReplaceAll(body, bp, " ")
	}

	res := Result{Version: c.version}
	res.Negative = sum(body, c.negative)
	res.Positive = sum(body, c.positive)
	res.Boost = sum(body, c.boosts)
	res.Tags, res.ProjectWeight = c.tags(body)
	res.Ambiguous = res.Negative > 0 && res.Positive > 0

	if res.Negative > 0 && (c.tieBreak != TieBreakHomeowner || res.Negative >= res.Positive) {
		res.Intent = domain.IntentProfessional
		res.Confidence = c.norm(res.Negative)
		return res
	}

	if res.Positive > 0 && res.Positive >= c.minSignal && len(res.Tags) > 0 {
		res.Intent = domain.IntentHomeowner
		res.Confidence = c.norm(res.Positive + res.Boost - res.Negative)
		return res
	}

	res.Intent = domain.IntentIrrelevant
	return res
}

// Candidate classifies a raw candidate and attaches its age at now.
func (c *Classifier) Candidate(raw domain.RawCandidate, now time.Time) domain.ClassifiedCandidate {
	r := c.Classify(raw.Body())
	age, known := domain.AgeAt(raw.PostedAt, now)
	return domain.ClassifiedCandidate{
		RawCandidate:  raw,
		Intent:        r.Intent,
		Confidence:    r.Confidence,
		Tags:          r.Tags,
		ProjectWeight: r.ProjectWeight,
		Ambiguous:     r.Ambiguous,
		AgeDays:       age,
		AgeKnown:      known,
	}
}

func (c *Classifier) tags(body string) ([]string, float64) {
	var tags []string
	best := 0.0
	for _, p := range c.projects {
		for _, t := range p.terms {
			if strings.Contains(body, t) {
				tags = append(tags, p.tag)
				best = math.Max(best, p.weight)
				break
			}
		}
	}
	sort.Strings(tags)
	return tags, best
}

func (c *Classifier) norm(signal float64) float64 {
	if signal <= 0 {
		return 0
	}
	v := math.Min(signal, c.maxSignal) / c.maxSignal
	return math.Round(v*1000) / 1000
}

func compile(in []config.Phrase) []phrase {
	out := make([]phrase, 0, len(in))
	for _, p := range in {
		if n := Normalize(p.Text); n != "" {
			out = append(out, phrase{text: pad(n), weight: p.Weight})
		}
	}
	return out
}

// sum adds the weight of every phrase present in body, each counted once.
func sum(body string, ps []phrase) float64 {
	total := 0.0
	for _, p := range ps {
		if strings.Contains(body, p.text) {
			total += p.weight
		}
	}
	return total
}

func pad(s string) string { return " " + s + " " }
