package site

import (
	"html/template"
	"strings"

	"git.home.luguber.info/inful/scholarsite/internal/content"
	"git.home.luguber.info/inful/scholarsite/internal/i18n"
)

// SiteInfo is the site-wide header data.
type SiteInfo struct {
	Title  string
	Author string
}

// LanguageLink points at the current page in another language.
type LanguageLink struct {
	Code   string
	Name   string
	URL    string
	Active bool
}

// NavLink is one top-level navigation entry.
type NavLink struct {
	Key    string
	URL    string
	Active bool
}

// ItemView binds an item to the language it is shown in.
type ItemView struct {
	Lang string
	Item *content.Item
}

// Page is the data passed to every template. Fields not used by a page kind
// stay empty.
type Page struct {
	Site      SiteInfo
	Lang      string
	Path      string
	Languages []LanguageLink
	Nav       []NavLink

	// home
	Posts     []*content.Item
	News      []*content.Item
	Notebooks []*content.Item

	// list and detail
	Section    string
	Items      []*content.Item
	Groups     []content.Group
	Tags       []string
	Tag        string
	Categories []string
	Item       *content.Item
	Related    []*content.Item

	// static pages
	Title string
	Body  template.HTML

	catalog *i18n.Catalog
}

// NewPage returns the chrome shared by every page at path in lang.
func (r *Renderer) NewPage(lang, path string) *Page {
	p := &Page{
		Site:    SiteInfo{Title: r.opts.Title, Author: r.opts.Author},
		Lang:    lang,
		Path:    path,
		catalog: r.opts.Catalog,
	}
	for _, code := range r.opts.Languages {
		p.Languages = append(p.Languages, LanguageLink{
			Code:   code,
			Name:   i18n.DisplayName(code),
			URL:    i18n.SwitchURL(path, code, r.opts.Languages),
			Active: code == lang,
		})
	}
	p.Nav = append(p.Nav, NavLink{Key: "nav.home", URL: "/" + lang + "/", Active: path == "/" || path == "/"+lang+"/"})
	for _, name := range r.opts.Nav {
		u := "/" + lang + "/" + name
		p.Nav = append(p.Nav, NavLink{
			Key:    "nav." + name,
			URL:    u,
			Active: path == u || strings.HasPrefix(path, u+"/"),
		})
	}
	return p
}

// T translates key into the page language.
func (p *Page) T(key string) string {
	if p.catalog == nil {
		return key
	}
	return p.catalog.T(p.Lang, key)
}

// With pairs it with the page language for the item partials.
func (p *Page) With(it *content.Item) ItemView {
	return ItemView{Lang: p.Lang, Item: it}
}
