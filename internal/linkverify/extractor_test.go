package linkverify

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractLinksFromReader(t *testing.T) {
	page := `<!doctype html><html><head>
<link rel="stylesheet" href="/static/site.css">
<script src="/static/app.js"></script>
</head><body>
<a href="/en/blog/hello">Hello</a>
<a>no href</a>
<img src="figure.png" alt="">
<video><source src="/files/clip.mp4"></video>
</body></html>`

	links, err := ExtractLinksFromReader(strings.NewReader(page))
	require.NoError(t, err)

	var got []string
	for _, l := range links {
		got = append(got, l.Tag+" "+l.Attribute+" "+l.URL)
	}
	require.Equal(t, []string{
		"link href /static/site.css",
		"script src /static/app.js",
		"a href /en/blog/hello",
		"img src figure.png",
		"source src /files/clip.mp4",
	}, got)
}

func TestInternalPath(t *testing.T) {
	page := &url.URL{Path: "/en/blog/"}
	tests := []struct {
		link string
		want string
		ok   bool
	}{
		{"/en/news", "/en/news", true},
		{"hello", "/en/blog/hello", true},
		{"../fr/", "/en/fr/", true},
		{"/en/blog?tag=go", "/en/blog", true},
		{"/en/blog/hello#top", "/en/blog/hello", true},
		{"https://example.org/x", "", false},
		{"//cdn.example.org/x.js", "", false},
		{"#section", "", false},
		{"mailto:me@example.org", "", false},
		{"javascript:void(0)", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			got, ok := internalPath(page, tt.link)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}
