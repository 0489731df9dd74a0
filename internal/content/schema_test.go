package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/scholarsite/internal/markdown"
)

func parseOne(t *testing.T, schema *Schema, name, src string) *Item {
	t.Helper()
	dir := writeFiles(t, map[string]string{name: src})
	c := NewCollection(schema, dir, MarkdownParser{Renderer: markdown.New(markdown.Options{})})
	snap, err := c.Load(t.Context())
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	return snap.Items[0]
}

func TestBlogFields(t *testing.T) {
	long := strings.Repeat("word ", 60)
	it := parseOne(t, BlogSchema("Site Author"), "post.md", "---\ntitle: Post\n---\n"+long+"\n\nSecond paragraph.\n")

	excerpt := it.Str("excerpt")
	require.True(t, strings.HasSuffix(excerpt, "..."))
	require.Len(t, []rune(excerpt), 203)
	require.Equal(t, "Site Author", it.Str("author"))
	require.Equal(t, 1, it.Int("reading_time"))

	explicit := parseOne(t, BlogSchema("Site Author"), "p.md", "---\nexcerpt: Hand written\nauthor: Guest\n---\nbody\n")
	require.Equal(t, "Hand written", explicit.Str("excerpt"))
	require.Equal(t, "Guest", explicit.Str("author"))
	require.Equal(t, "Untitled", explicit.Title())
}

func TestPublicationFields(t *testing.T) {
	it := parseOne(t, PublicationsSchema("Site Author"), "paper.md", `---
title: Neural Things
date: 2021
authors: "A. One; B. Two, C. Three"
journal: Journal of Things
volume: 12
pages: 1-10
doi: 10.1000/xyz
tags: [Neuro]
---
Abstract paragraph.

More.
`)

	require.Equal(t, 2021, it.Year())
	require.Equal(t, []string{"A. One", "B. Two", "C. Three"}, it.List("authors"))
	require.Equal(t, "Journal of Things", it.Str("venue"))
	require.Equal(t, "Abstract paragraph.", it.Str("abstract"))
	require.Equal(t, "article", it.Str("type"))
	require.Equal(t,
		"A. One, B. Two, C. Three. (2021). Neural Things. Journal of Things, 12, 1-10. https://doi.org/10.1000/xyz",
		it.Str("citation"))
	require.True(t, it.HasTag("neuro"))

	bare := parseOne(t, PublicationsSchema("Site Author"), "bare.md", "body\n")
	require.Equal(t, []string{"Site Author"}, bare.List("authors"))
	require.Equal(t, "Untitled Publication", bare.Title())
	require.Equal(t, "Site Author. (n.d.). Untitled Publication.", bare.Str("citation"))
}

func TestTeachingTalkNewsDefaults(t *testing.T) {
	teach := parseOne(t, TeachingSchema(), "course.md", "Course description here.\n\nDetails.\n")
	require.Equal(t, "Untitled Course", teach.Title())
	require.Equal(t, "instructor", teach.Str("role"))
	require.Equal(t, "Course description here.", teach.Str("description"))

	talk := parseOne(t, TalksSchema(), "talk.md", "---\nvenue: ICML\n---\nAbstract.\n")
	require.Equal(t, "Untitled Talk", talk.Title())
	require.Equal(t, "presentation", talk.Str("type"))
	require.Equal(t, "ICML", talk.Str("venue"))

	news := parseOne(t, NewsSchema(), "n.md", "We won a prize. It was great. More soon.\n")
	require.Equal(t, "News Update", news.Title())
	require.Equal(t, "general", news.Str("category"))
	require.Equal(t, "normal", news.Str("importance"))
	require.Equal(t, "We won a prize.", news.Str("summary"))
}

func TestTextHelpers(t *testing.T) {
	require.Equal(t, "abc", Truncate("abc", 3))
	require.Equal(t, "ab...", Truncate("abc", 2))
	require.Equal(t, "héll...", Truncate("héllo", 4))
	require.Equal(t, "first", FirstParagraph("first\r\n\r\nsecond"))
	require.Equal(t, 1, ReadingTime(""))
	require.Equal(t, 2, ReadingTime(strings.Repeat("w ", 450)))
	require.Equal(t, "One two.", FirstSentence("One two. Three"))
	require.Equal(t, "Only one.", FirstSentence("Only one."))

	sentence := strings.Repeat("a", 150) + ". " + strings.Repeat("b", 100)
	require.Equal(t, strings.Repeat("a", 150)+".", SentenceExcerpt(sentence, 200))

	words := strings.Repeat("word ", 50)
	got := SentenceExcerpt(words, 200)
	require.True(t, strings.HasSuffix(got, "word..."))
	require.Equal(t, "short", SentenceExcerpt("short", 200))
}

func TestGroupByYear(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.md": "---\ndate: 2020-01-01\n---\n",
		"b.md": "---\ndate: 2022-01-01\n---\n",
		"c.md": "---\n---\n",
		"d.md": "---\ndate: 2022-06-01\ntype: book\n---\n",
	})
	c := NewCollection(PublicationsSchema("x"), dir, MarkdownParser{Renderer: markdown.New(markdown.Options{})})
	items, err := c.List(t.Context(), "en", 0)
	require.NoError(t, err)

	groups := GroupByYear(items, "Undated")
	require.Len(t, groups, 3)
	require.Equal(t, "2022", groups[0].Label)
	require.Len(t, groups[0].Items, 2)
	require.Equal(t, "2020", groups[1].Label)
	require.Equal(t, "Undated", groups[2].Label)

	byType := GroupBy(items, "type")
	require.Equal(t, "book", byType[0].Label)
	require.Equal(t, "article", byType[1].Label)
	require.Len(t, FilterField(items, "type", "article"), 3)
}

func TestResolveLanguages(t *testing.T) {
	require.Equal(t, []string{"en"}, ResolveLanguages(nil, "en"))
	require.Equal(t, []string{"fr"}, ResolveLanguages(`"fr"`, "en"))
	require.Equal(t, []string{"en", "bn"}, ResolveLanguages([]any{"en", "'bn'"}, "en"))
	require.Equal(t, []string{"en"}, ResolveLanguages("  ", "en"))
}
