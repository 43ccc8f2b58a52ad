package classify

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s, strips markup and accents, and reduces it to
// space-separated letter/digit words. Phrases and text go through the same
// function so matching is word-aligned.
func Normalize(s string) string {
	if strings.ContainsRune(s, '<') {
		s = stripMarkup(s)
	}

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	// Casers and transformers keep state, so build them per call.
	s = cases.Lower(language.Und).String(s)

	var b strings.Builder
	b.Grow(len(s))
	space := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

func stripMarkup(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script,style,noscript").Remove()
	// block elements would otherwise glue adjacent words together
	doc.Find("br,p,div,li,tr,h1,h2,h3,h4").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml(" ")
	})
	return doc.Text()
}
