// Package notebook reads Jupyter notebooks and renders them to HTML without
// executing them.
package notebook

import (
	"encoding/json"
	"fmt"
	"strings"

	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
)

// Notebook is the subset of the nbformat v4 document the site uses.
type Notebook struct {
	Cells    []Cell   `json:"cells"`
	Metadata Metadata `json:"metadata"`
	// Format is the nbformat major version; zero when the document omits it.
	Format int `json:"nbformat"`
}

// Metadata holds notebook-level metadata. Site metadata lives under "custom".
type Metadata struct {
	Custom       map[string]any `json:"custom"`
	LanguageInfo struct {
		Name string `json:"name"`
	} `json:"language_info"`
	KernelSpec struct {
		Language string `json:"language"`
	} `json:"kernelspec"`
}

// Cell is one notebook cell.
type Cell struct {
	Type    string   `json:"cell_type"`
	Source  Text     `json:"source"`
	Outputs []Output `json:"outputs,omitempty"`
}

// Output is one code cell output.
type Output struct {
	Type  string          `json:"output_type"`
	Name  string          `json:"name,omitempty"`
	Text  Text            `json:"text,omitempty"`
	Data  map[string]Text `json:"data,omitempty"`
	EName string          `json:"ename,omitempty"`
	Value string          `json:"evalue,omitempty"`
}

// Text is multiline notebook text stored either as a string or as a list of
// lines.
type Text string

// UnmarshalJSON accepts both encodings.
func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("notebook text must be a string or a list of strings: %w", err)
	}
	*t = Text(strings.Join(lines, ""))
	return nil
}

// Decode parses a notebook document.
func Decode(data []byte) (*Notebook, error) {
	var nb Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, err
	}
	if nb.Format != 0 && nb.Format < 4 {
		return nil, ferrors.ContentError("unsupported notebook format; convert it to nbformat 4").
			WithContext("nbformat", nb.Format).Build()
	}
	if nb.Metadata.Custom == nil {
		nb.Metadata.Custom = map[string]any{}
	}
	return &nb, nil
}

// Language is the kernel language used to highlight code cells.
func (nb *Notebook) Language() string {
	if nb.Metadata.LanguageInfo.Name != "" {
		return nb.Metadata.LanguageInfo.Name
	}
	if nb.Metadata.KernelSpec.Language != "" {
		return nb.Metadata.KernelSpec.Language
	}
	return "python"
}

// FirstHeading returns the text of the first level-one heading found in a
// markdown cell.
func (nb *Notebook) FirstHeading() string {
	for _, c := range nb.Cells {
		if c.Type != "markdown" {
			continue
		}
		for _, line := range strings.Split(string(c.Source), "\n") {
			if strings.HasPrefix(line, "# ") {
				if h := strings.TrimSpace(line[2:]); h != "" {
					return h
				}
			}
		}
	}
	return ""
}

// MarkdownText concatenates all markdown cells, used for excerpts and
// reading time.
func (nb *Notebook) MarkdownText() string {
	var parts []string
	for _, c := range nb.Cells {
		if c.Type == "markdown" {
			parts = append(parts, strings.TrimSpace(string(c.Source)))
		}
	}
	return strings.Join(parts, "\n\n")
}
