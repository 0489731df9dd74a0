package export

import (
	"path"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
)

// Page pairs a URL path with the file it is written to.
type Page struct {
	URLPath    string
	OutputPath string
}

// NewPage maps urlPath to its output file.
func NewPage(urlPath string) (Page, error) {
	out, err := OutputPath(urlPath)
	if err != nil {
		return Page{}, err
	}
	return Page{URLPath: urlPath, OutputPath: out}, nil
}

// OutputPath maps a URL path to a relative file path.
//
// Paths ending in "/" or whose last segment has no "." become P/index.html;
// anything else is written at P. Query and fragment are ignored and ".."
// segments are rejected.
func OutputPath(urlPath string) (string, error) {
	p := urlPath
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", ferrors.ValidationError("path escapes the output directory").
				WithContext("url", urlPath).Build()
		}
	}
	p = strings.TrimPrefix(p, "/")
	last := p
	if i := strings.LastIndex(p, "/"); i >= 0 {
		last = p[i+1:]
	}
	if p == "" || strings.HasSuffix(p, "/") || !strings.Contains(last, ".") {
		p = path.Join(p, "index.html")
	}
	return filepath.FromSlash(p), nil
}

// URLPath is the inverse of OutputPath for generated files: index.html
// collapses to its directory with a trailing slash.
func URLPath(outputPath string) string {
	p := filepath.ToSlash(outputPath)
	if p == "index.html" {
		return "/"
	}
	if strings.HasSuffix(p, "/index.html") {
		return "/" + strings.TrimSuffix(p, "index.html")
	}
	return "/" + p
}
