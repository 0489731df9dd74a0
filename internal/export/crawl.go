package export

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// pageLinks returns the same-origin, query-free anchor targets of an HTML
// page as URL paths, in document order.
func pageLinks(body []byte, pageURL *url.URL) []string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if p, ok := sameOriginPath(getAttr(n, "href"), pageURL); ok {
				out = append(out, p)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func sameOriginPath(href string, base *url.URL) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "javascript:") {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(u)
	if abs.Scheme != base.Scheme || abs.Host != base.Host || abs.RawQuery != "" {
		return "", false
	}
	if abs.Path == "" {
		return "/", true
	}
	for _, seg := range strings.Split(abs.Path, "/") {
		if seg == ".." {
			return "", false
		}
	}
	return abs.Path, true
}
