package dedup

import (
	"math"
	"time"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/rank"
	"leadscout-engine/internal/scrape/util"
)

const excerptLen = 500

// Merger folds classified candidates into leads.
type Merger struct {
	Scorer rank.Scorer
	Decay  rank.Decay
	Trust  func(origin string) float64
}

// Merge returns the lead that results from applying c at now. existing is
// nil for a new identity. Applying the same candidate again yields the same
// lead apart from LastSeen (and LastRunID when the run differs).
func (m Merger) Merge(existing *domain.Lead, id Identity, c domain.ClassifiedCandidate, runID string, now time.Time) domain.Lead {
	now = now.UTC()
	trust := 0.5
	if m.Trust != nil {
		trust = m.Trust(c.Origin)
	}

	var l domain.Lead
	if existing == nil {
		l = domain.Lead{
			ID:            id.Key,
			Origin:        c.Origin,
			URL:           id.URL,
			Title:         c.Title,
			Excerpt:       excerpt(c.RawCandidate),
			Agency:        c.Label(),
			ClosingDate:   c.Meta[domain.MetaClosingDate],
			Tags:          rank.UnionTags(c.Tags),
			Confidence:    c.Confidence,
			ProjectWeight: c.ProjectWeight,
			Trust:         trust,
			Status:        domain.StatusActive,
			FirstSeen:     now,
			LastSeen:      now,
			PostedAt:      utcPtr(c.PostedAt),
		}
	} else {
		l = *existing
		l.Tags = rank.UnionTags(existing.Tags, c.Tags)
		if now.After(l.LastSeen) {
			l.LastSeen = now
		}
		l.Confidence = math.Max(l.Confidence, c.Confidence)
		l.ProjectWeight = math.Max(l.ProjectWeight, c.ProjectWeight)
		l.Trust = math.Max(l.Trust, trust)
		if c.PostedAt != nil && (l.PostedAt == nil || c.PostedAt.After(*l.PostedAt)) {
			l.PostedAt = utcPtr(c.PostedAt)
		}
		if l.Status == domain.StatusStale {
			l.Status = domain.StatusActive
		}
		l.Title = firstNonEmpty(l.Title, c.Title)
		l.Excerpt = firstNonEmpty(l.Excerpt, excerpt(c.RawCandidate))
		l.Agency = firstNonEmpty(l.Agency, c.Label())
		l.ClosingDate = firstNonEmpty(l.ClosingDate, c.Meta[domain.MetaClosingDate])
		l.URL = firstNonEmpty(l.URL, id.URL)
	}

	l.LastRunID = runID
	l.Recency = m.Decay.Factor(l.PostedAt, l.FirstSeen)
	l.Score = m.Scorer.Score(rank.Inputs{
		Confidence:    l.Confidence,
		ProjectWeight: l.ProjectWeight,
		Recency:       l.Recency,
		Trust:         l.Trust,
	})
	return l
}

func excerpt(c domain.RawCandidate) string {
	text := util.CleanText(c.Text)
	if text == "" {
		text = util.CleanText(c.Title)
	}
	return util.Truncate(text, excerptLen)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
