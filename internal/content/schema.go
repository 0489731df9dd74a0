package content

import (
	"fmt"
	"strings"
)

// Field declares one derived field of a content type.
type Field struct {
	Name string
	// Default is used when neither metadata nor Derive provide a value.
	Default any
	// Derive computes the fallback from the item.
	Derive func(*Item) any
	// Parse normalizes a metadata value before it is returned.
	Parse func(any) any
}

// Schema describes one content type.
type Schema struct {
	Section   string
	Extension string
	// DateLayouts are tried in order when the date is a string.
	DateLayouts []string
	// FoldTags makes tag matching case-insensitive.
	FoldTags bool
	Fields   []Field
}

func (s *Schema) field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Site-wide section names.
const (
	SectionBlog         = "blog"
	SectionPublications = "publications"
	SectionTalks        = "talks"
	SectionTeaching     = "teaching"
	SectionNews         = "news"
	SectionNotebooks    = "notebooks"
)

const (
	excerptLength  = 200
	abstractLength = 300
)

var isoDate = []string{"2006-01-02"}

func excerptOf(n int) func(*Item) any {
	return func(it *Item) any { return Excerpt(it.RawBody, n) }
}

func commonFields(title string) []Field {
	return []Field{
		{Name: "title", Default: title},
		{Name: "tags", Derive: func(*Item) any { return []string{} }, Parse: func(v any) any { return toStringList(v, ",") }},
		{Name: "reading_time", Derive: func(it *Item) any { return it.ReadingTime() }},
	}
}

// BlogSchema describes blog posts.
func BlogSchema(author string) *Schema {
	return &Schema{
		Section:     SectionBlog,
		Extension:   ".md",
		DateLayouts: isoDate,
		Fields: append(commonFields("Untitled"),
			Field{Name: "excerpt", Derive: excerptOf(excerptLength)},
			Field{Name: "author", Default: author},
		),
	}
}

// PublicationsSchema describes publications. Dates may be a bare year.
func PublicationsSchema(author string) *Schema {
	return &Schema{
		Section:     SectionPublications,
		Extension:   ".md",
		DateLayouts: []string{"2006-01-02", "2006"},
		FoldTags:    true,
		Fields: append(commonFields("Untitled Publication"),
			Field{Name: "authors", Default: []string{author}, Parse: func(v any) any { return toStringList(v, ",;") }},
			Field{Name: "journal"},
			Field{Name: "venue", Derive: func(it *Item) any { return it.Str("journal") }},
			Field{Name: "abstract", Derive: excerptOf(abstractLength)},
			Field{Name: "type", Default: "article"},
			Field{Name: "doi"},
			Field{Name: "url"},
			Field{Name: "pdf_url"},
			Field{Name: "citation", Derive: func(it *Item) any { return Citation(it) }},
		),
	}
}

// TalksSchema describes talks.
func TalksSchema() *Schema {
	return &Schema{
		Section:     SectionTalks,
		Extension:   ".md",
		DateLayouts: isoDate,
		FoldTags:    true,
		Fields: append(commonFields("Untitled Talk"),
			Field{Name: "venue"},
			Field{Name: "location"},
			Field{Name: "abstract", Derive: excerptOf(abstractLength)},
			Field{Name: "type", Default: "presentation"},
			Field{Name: "slides_url"},
			Field{Name: "video_url"},
		),
	}
}

// TeachingSchema describes teaching entries.
func TeachingSchema() *Schema {
	return &Schema{
		Section:     SectionTeaching,
		Extension:   ".md",
		DateLayouts: isoDate,
		FoldTags:    true,
		Fields: append(commonFields("Untitled Course"),
			Field{Name: "description", Derive: excerptOf(abstractLength)},
			Field{Name: "role", Default: "instructor"},
			Field{Name: "semester"},
			Field{Name: "institution"},
			Field{Name: "course_code"},
			Field{Name: "students"},
			Field{Name: "materials_url"},
		),
	}
}

// NewsSchema describes news items.
func NewsSchema() *Schema {
	return &Schema{
		Section:     SectionNews,
		Extension:   ".md",
		DateLayouts: isoDate,
		FoldTags:    true,
		Fields: append(commonFields("News Update"),
			Field{Name: "category", Default: "general"},
			Field{Name: "importance", Default: "normal"},
			Field{Name: "summary", Derive: func(it *Item) any { return FirstSentence(it.RawBody) }},
			Field{Name: "excerpt", Derive: func(it *Item) any { return SentenceExcerpt(it.RawBody, excerptLength) }},
		),
	}
}

// NotebooksSchema describes Jupyter notebooks. Their metadata lives inside
// the notebook document rather than in frontmatter.
func NotebooksSchema(author string) *Schema {
	return &Schema{
		Section:     SectionNotebooks,
		Extension:   ".ipynb",
		DateLayouts: isoDate,
		FoldTags:    true,
		Fields: append(commonFields("Untitled Notebook"),
			Field{Name: "description"},
			Field{Name: "author", Default: author},
			Field{Name: "category", Default: "analysis"},
			Field{Name: "download_url", Derive: func(it *Item) any { return "/static/notebooks/" + it.Filename() }},
		),
	}
}

// Citation formats an APA-style reference line for a publication.
func Citation(it *Item) string {
	authors := it.List("authors")
	names := "Unknown"
	if len(authors) > 0 {
		names = strings.Join(authors, ", ")
	}
	year := "n.d."
	if y := it.Year(); y > 0 {
		year = fmt.Sprint(y)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s. (%s). %s.", names, year, it.Title())
	if journal := it.Str("journal"); journal != "" {
		b.WriteString(" " + journal)
		for _, key := range []string{"volume", "pages"} {
			if v := metaString(it.Metadata, key); v != "" {
				b.WriteString(", " + v)
			}
		}
		b.WriteString(".")
	}
	if doi := it.Str("doi"); doi != "" {
		b.WriteString(" https://doi.org/" + doi)
	}
	return b.String()
}
