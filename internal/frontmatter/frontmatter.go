// Package frontmatter splits content files into a YAML metadata block and a
// markdown body.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Document is a parsed content file.
type Document struct {
	Metadata map[string]any
	Body     []byte
	// HadFrontmatter is false when no complete `---` block was found.
	HadFrontmatter bool
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a delimiter line, had is false and body
// is the full input. A closing delimiter may be the last line of the file.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}
	if bytes.Equal(rest, []byte("---")) {
		return []byte{}, []byte{}, true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	if idx := bytes.Index(rest, closeSeq); idx >= 0 {
		return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
	}
	if tail := []byte(nl + "---"); bytes.HasSuffix(rest, tail) {
		return rest[:len(rest)-len("---")], []byte{}, true, nil
	}
	return nil, nil, false, ErrMissingClosingDelimiter
}

// Parse splits content and decodes its metadata.
//
// A missing closing delimiter is not an error: the whole file becomes the
// body and the metadata is empty. Malformed YAML inside a complete block is
// returned as an error.
func Parse(content []byte) (Document, error) {
	fm, body, had, err := Split(content)
	if errors.Is(err, ErrMissingClosingDelimiter) {
		return Document{Metadata: map[string]any{}, Body: content}, nil
	}
	if err != nil {
		return Document{}, err
	}
	meta, err := ParseYAML(fm)
	if err != nil {
		return Document{}, err
	}
	return Document{Metadata: meta, Body: body, HadFrontmatter: had}, nil
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
