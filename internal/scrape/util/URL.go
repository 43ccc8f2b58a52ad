package util

import (
	"net/url"
	"sort"
	"strings"
)

type redirectWrapper struct {
	host  string // without www.
	path  string // path prefix
	param string // query key holding the target
}

var redirectWrappers = []redirectWrapper{
	{"duckduckgo.com", "/l/", "uddg"},
	{"google.com", "/url", "q"},
	{"l.facebook.com", "/l.php", "u"},
	{"lm.facebook.com", "/l.php", "u"},
	{"out.reddit.com", "/", "url"},
}

func isTrackingParam(k string) bool {
	lk := strings.ToLower(k)
	if strings.HasPrefix(lk, "utm_") {
		return true
	}
	switch lk {
	case "gclid", "fbclid", "msclkid", "mc_cid", "mc_eid", "mkt_tok", "ref", "ref_src", "rdt", "share_id":
		return true
	}
	return false
}

// UnwrapRedirect returns the target of a known redirect wrapper. ok is false
// when raw is a wrapper whose target cannot be decoded; non-wrappers are
// returned unchanged with ok=true.
func UnwrapRedirect(raw string) (target string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw, false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")

	key := ""
	for _, w := range redirectWrappers {
		if host == w.host && strings.HasPrefix(u.Path, w.path) {
			key = w.param
			break
		}
	}
	if key == "" {
		return raw, true
	}

	// Query().Get already unescapes the value once
	t := strings.TrimSpace(u.Query().Get(key))
	if t == "" {
		return raw, false
	}
	if strings.HasPrefix(t, "//") {
		t = "https:" + t
	}
	tu, err := url.Parse(t)
	if err != nil || tu.Host == "" {
		return raw, false
	}
	return t, true
}

// CanonicalizeURL reduces a URL to the form used for identity: https, lower
// host without www./old./m., no fragment, no tracking params, sorted query,
// no trailing slash. Unparsable input comes back trimmed.
func CanonicalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == "http" {
		u.Scheme = "https"
	}
	host := strings.ToLower(u.Host)
	for _, p := range []string{"www.", "old.", "m."} {
		host = strings.TrimPrefix(host, p)
	}
	u.Host = strings.TrimSuffix(host, ":443")
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil

	q := u.Query()
	for k := range q {
		if isTrackingParam(k) {
			q.Del(k)
		}
	}
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()

	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	} else if u.Path == "/" {
		u.Path = ""
	}
	return u.String()
}

// UsableURL reports whether raw can serve as a lead identity: http(s),
// has a host, and is not one of the generic listing pages.
func UsableURL(canonical string, generic []string) bool {
	u, err := url.Parse(canonical)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return false
	}
	for _, g := range generic {
		cg := CanonicalizeURL(g)
		if cg == "" {
			continue
		}
		base := strings.SplitN(canonical, "?", 2)[0]
		if canonical == cg || base == strings.SplitN(cg, "?", 2)[0] {
			return false
		}
	}
	return true
}

// HostOf returns the lowercased host of raw without www.
func HostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
