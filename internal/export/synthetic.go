package export

import (
	"bytes"
	"html/template"
	"io"
)

// Redirect maps a legacy path to its new location.
type Redirect struct {
	From string
	To   string
}

// NotFoundRenderer renders the site's 404 document without a request.
type NotFoundRenderer interface {
	RenderNotFound(w io.Writer) error
}

var redirectTmpl = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Redirecting</title>
<link rel="canonical" href="{{.To}}">
<meta http-equiv="refresh" content="0; url={{.To}}">
<script>window.location.replace({{.To}});</script>
</head>
<body>
<p>This page has moved to <a href="{{.To}}">{{.To}}</a>.</p>
</body>
</html>
`))

var fallbackNotFound = []byte(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Page not found</title>
</head>
<body>
<h1>404</h1>
<p>The page you are looking for does not exist. <a href="/">Go home</a>.</p>
</body>
</html>
`)

// RedirectPage renders the HTML document written at a redirect's From path.
func RedirectPage(r Redirect) ([]byte, error) {
	var buf bytes.Buffer
	if err := redirectTmpl.Execute(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func notFoundPage(r NotFoundRenderer) ([]byte, error) {
	if r == nil {
		return fallbackNotFound, nil
	}
	var buf bytes.Buffer
	if err := r.RenderNotFound(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
