// Package content implements the frontmatter-backed collections served by the
// site: blog posts, publications, talks, teaching entries, news items and
// notebooks.
//
// All content types share one Item type. What differs between them is a
// declarative Schema naming the fields a type exposes and how each field
// falls back when the metadata does not provide it. Collections rescan their
// directory on every query; nothing is cached between calls.
package content
