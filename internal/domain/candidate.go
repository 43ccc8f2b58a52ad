package domain

import "time"

// Intent is the classifier's verdict on a piece of text.
type Intent string

const (
	IntentHomeowner    Intent = "homeowner-seeking"
	IntentProfessional Intent = "professional-offering"
	IntentIrrelevant   Intent = "irrelevant"
)

// Well-known RawCandidate.Meta keys.
const (
	MetaAgency      = "agency"
	MetaPoster      = "poster"
	MetaClosingDate = "closing_date"
	MetaCategory    = "category"
	MetaSubforum    = "subforum"
	MetaQuery       = "query"
)

// RawCandidate is one item as an adapter saw it, already reduced to the
// common shape. URL is unique within Origin only.
type RawCandidate struct {
	Origin   string
	URL      string
	Title    string
	Text     string
	PostedAt *time.Time // UTC; nil when the origin gave no timestamp
	Meta     map[string]string
}

// Label returns the best agency or poster name for display.
func (c RawCandidate) Label() string {
	if v := c.Meta[MetaAgency]; v != "" {
		return v
	}
	return c.Meta[MetaPoster]
}

// Body joins title and text, which is what the classifier reads.
func (c RawCandidate) Body() string {
	switch {
	case c.Title == "":
		return c.Text
	case c.Text == "":
		return c.Title
	default:
		return c.Title + "\n" + c.Text
	}
}

// ClassifiedCandidate is a RawCandidate with the classifier's result and the
// computed age attached.
type ClassifiedCandidate struct {
	RawCandidate

	Intent        Intent
	Confidence    float64 // 0..1
	Tags          []string
	ProjectWeight float64 // highest value weight among Tags
	Ambiguous     bool    // both business-voice and need phrases matched

	AgeDays  float64
	AgeKnown bool
}

// UnknownAge reports whether the recency filter let this through without a
// timestamp. The scorer discounts such candidates.
func (c ClassifiedCandidate) UnknownAge() bool { return !c.AgeKnown }

// AgeAt computes age in days at now. Future timestamps clamp to zero.
func AgeAt(postedAt *time.Time, now time.Time) (days float64, known bool) {
	if postedAt == nil || postedAt.IsZero() {
		return 0, false
	}
	d := now.Sub(*postedAt)
	if d < 0 {
		d = 0
	}
	return d.Hours() / 24, true
}
