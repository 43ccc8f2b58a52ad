// Package dedup resolves a candidate's lead identity and folds candidates
// into leads. Everything here is pure; the store applies the results.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"

	"leadscout-engine/internal/classify"
	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/scrape/util"
)

const (
	urlPrefix = "url:"
	fpPrefix  = "fp:"
)

// Identity is a candidate's key in the lead store.
type Identity struct {
	Key   string
	URL   string // canonical when ByURL, otherwise the URL as the origin gave it
	ByURL bool
}

// Resolve keys a candidate by its canonical URL, or by a fingerprint of its
// normalized text when the URL cannot identify the item: unparsable, not
// http(s), an undecodable redirect wrapper, or a generic listing page.
func Resolve(c domain.RawCandidate, genericURLs []string) Identity {
	if target, ok := util.UnwrapRedirect(c.URL); ok {
		canon := util.CanonicalizeURL(target)
		if canon != "" && util.UsableURL(canon, genericURLs) {
			return Identity{Key: urlPrefix + canon, URL: canon, ByURL: true}
		}
	}
	return Identity{Key: fpPrefix + Fingerprint(c.Body()), URL: c.URL}
}

// Fingerprint is the hex of the first 16 bytes of sha256 over the
// classifier-normalized text, so markup and case changes do not split a lead.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(classify.Normalize(text)))
	return hex.EncodeToString(sum[:16])
}
