// Package recency drops candidates older than the staleness window.
package recency

import (
	"time"

	"leadscout-engine/internal/domain"
)

// DefaultWindow is used when the caller passes a non-positive window.
const DefaultWindow = 30 * 24 * time.Hour

// Keep reports whether c is recent enough. Candidates of unknown age are
// always kept; the scorer discounts them instead.
func Keep(c domain.ClassifiedCandidate, window time.Duration) (keep bool, reason string) {
	if window <= 0 {
		window = DefaultWindow
	}
	if !c.AgeKnown {
		return true, "unknown age"
	}
	if c.AgeDays*24*float64(time.Hour) > float64(window) {
		return false, "older than window"
	}
	return true, ""
}

// Split partitions candidates into kept and dropped, preserving order.
func Split(cs []domain.ClassifiedCandidate, window time.Duration) (kept, dropped []domain.ClassifiedCandidate) {
	for _, c := range cs {
		if ok, _ := Keep(c, window); ok {
			kept = append(kept, c)
		} else {
			dropped = append(dropped, c)
		}
	}
	return kept, dropped
}
