package util

import "testing"

func TestCanonicalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://www.Example.com/a/b/?utm_source=x&b=2&a=1#frag", "https://example.com/a/b?a=1&b=2"},
		{"https://old.reddit.com/r/Miami/comments/abc/need_pavers/", "https://reddit.com/r/Miami/comments/abc/need_pavers"},
		{"https://m.facebook.com/groups/1?fbclid=zzz", "https://facebook.com/groups/1"},
		{"https://example.com:443/", "https://example.com"},
		{"  https://example.com/x?ref=home  ", "https://example.com/x"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CanonicalizeURL(tt.in); got != tt.want {
			t.Errorf("CanonicalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalizeURL_Idempotent(t *testing.T) {
	in := "http://www.miami.craigslist.org/mdc/lbg/d/need-sod/123.html?utm_medium=email"
	once := CanonicalizeURL(in)
	if twice := CanonicalizeURL(once); twice != once {
		t.Fatalf("not idempotent: %q then %q", once, twice)
	}
}

func TestUnwrapRedirect(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"ddg", "https://duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpost%3Fid%3D1&rut=abc", "https://example.com/post?id=1", true},
		{"ddg protocol relative", "//duckduckgo.com/l/?uddg=%2F%2Fexample.com%2Fx", "https://example.com/x", true},
		{"google", "https://www.google.com/url?q=https://example.com/y&sa=U", "https://example.com/y", true},
		{"facebook", "https://l.facebook.com/l.php?u=https%3A%2F%2Fexample.com%2Fz", "https://example.com/z", true},
		{"not a wrapper", "https://example.com/plain", "https://example.com/plain", true},
		{"wrapper without target", "https://duckduckgo.com/l/?rut=abc", "https://duckduckgo.com/l/?rut=abc", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := UnwrapRedirect(tt.in)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Fatalf("UnwrapRedirect(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestUsableURL(t *testing.T) {
	generic := []string{"https://broward.bonfirehub.com/portal"}
	tests := []struct {
		in   string
		want bool
	}{
		{"https://broward.bonfirehub.com/portal?tab=openOpportunities", false},
		{"https://broward.bonfirehub.com/opportunities/12345", true},
		{"mailto:someone@example.com", false},
		{"/relative/only", false},
	}
	for _, tt := range tests {
		if got := UsableURL(CanonicalizeURL(tt.in), generic); got != tt.want {
			t.Errorf("UsableURL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInferAgency(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://miami.craigslist.org/brw/lbg/d/need-sod/1.html", "Broward County"},
		{"https://miami.craigslist.org/mdc/lbg/d/pavers/2.html", "Miami-Dade County"},
		{"https://miami.craigslist.org/search/lbg?query=sod", "Miami-Dade County"},
		{"https://example.com/x", ""},
	}
	for _, tt := range tests {
		if got := InferAgency(tt.in); got != tt.want {
			t.Errorf("InferAgency(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
