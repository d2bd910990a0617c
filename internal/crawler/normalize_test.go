package crawler

import "testing"

// TestNormalizeLink tests the link normalization rules.
func TestNormalizeLink(t *testing.T) {
	t.Parallel()

	const scope = "https://example.com"

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "absolute in-scope link loses query and fragment",
			raw:  "https://example.com/x?y=1#z",
			want: "https://example.com/x",
		},
		{
			name: "fragment before query is stripped",
			raw:  "https://example.com/x#frag?not=query",
			want: "https://example.com/x",
		},
		{
			name: "root-relative path is joined to scope",
			raw:  "/about",
			want: "https://example.com/about",
		},
		{
			name: "root-relative path with query",
			raw:  "/search?q=go",
			want: "https://example.com/search",
		},
		{
			name: "bare slash",
			raw:  "/",
			want: "https://example.com/",
		},
		{
			name: "scope itself",
			raw:  "https://example.com",
			want: "https://example.com",
		},
		{
			name: "document-relative parent is rejected",
			raw:  "../sibling",
			want: "",
		},
		{
			name: "document-relative file is rejected",
			raw:  "page.html",
			want: "",
		},
		{
			name: "out-of-scope absolute link is rejected",
			raw:  "https://other.com/x",
			want: "",
		},
		{
			name: "different scheme is rejected",
			raw:  "http://example.com/x",
			want: "",
		},
		{
			name: "scheme-relative link is rejected",
			raw:  "//cdn.example.com/lib.js",
			want: "",
		},
		{
			name: "mailto is rejected",
			raw:  "mailto:admin@example.com",
			want: "",
		},
		{
			name: "fragment only is rejected",
			raw:  "#top",
			want: "",
		},
		{
			name: "query only is rejected",
			raw:  "?page=2",
			want: "",
		},
		{
			name: "empty string is rejected",
			raw:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := NormalizeLink(tt.raw, scope); got != tt.want {
				t.Errorf("NormalizeLink(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// TestCanonicalID tests the path-only identifier.
func TestCanonicalID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{url: "https://ex.com/", want: "/"},
		{url: "https://ex.com", want: "/"},
		{url: "https://ex.com/a/b", want: "/a/b"},
		{url: "https://other.com/a/b", want: "/a/b"},
		{url: "https://ex.com/a%20b", want: "/a%20b"},
		{url: "https://ex.com/x?q=1", want: "/x"},
		{url: "https://ex.com/100%", want: "/100%"},
		{url: "https://ex.com/100%?x=1#y", want: "/100%"},
		{url: "http://[::1", want: "/"},
		{url: "https://ex.com/%zz/b", want: "/%zz/b"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()

			if got := CanonicalID(tt.url); got != tt.want {
				t.Errorf("CanonicalID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
