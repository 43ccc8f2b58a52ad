package queries

import (
	"fmt"
	"strings"
	"time"
)

// Set is everything a queries-mode run produces.
type Set struct {
	GeneratedAt time.Time `json:"generated_at"`
	Semantic    []string  `json:"semantic"`
	Dorks       []Dork    `json:"dorks"`
	Subreddits  []string  `json:"subreddits"`
}

// Instructions renders s as markdown for an operator running the searches
// by hand. Output depends only on s.
func Instructions(s Set) string {
	var b strings.Builder
	b.WriteString("# Lead search queries\n\n")
	fmt.Fprintf(&b, "Generated %s.\n\n", s.GeneratedAt.UTC().Format(time.RFC3339))

	b.WriteString("## Semantic search\n\n")
	b.WriteString("Run these against a semantic search engine (the exa origin uses them directly).\n\n")
	writeList(&b, s.Semantic)

	b.WriteString("\n## Keyword search\n\n")
	b.WriteString("Paste into a keyword engine. Grouped by template.\n")
	last := ""
	for _, d := range s.Dorks {
		if d.Template != last {
			fmt.Fprintf(&b, "\n### %s\n\n", d.Template)
			last = d.Template
		}
		fmt.Fprintf(&b, "- `%s`\n", d.Query)
	}
	if len(s.Dorks) == 0 {
		b.WriteString("\n_none configured_\n")
	}

	b.WriteString("\n## Subreddits\n\n")
	subs := make([]string, len(s.Subreddits))
	for i, sub := range s.Subreddits {
		subs[i] = "r/" + strings.TrimPrefix(sub, "r/")
	}
	writeList(&b, subs)
	return b.String()
}

func writeList(b *strings.Builder, xs []string) {
	if len(xs) == 0 {
		b.WriteString("_none configured_\n")
		return
	}
	for _, x := range xs {
		fmt.Fprintf(b, "- `%s`\n", x)
	}
}
