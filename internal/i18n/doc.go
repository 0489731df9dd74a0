// Package i18n provides translation lookup and language-switch URLs for the
// multilingual site.
//
// Translations are loaded once from locales/{lang}.yml into a Catalog that is
// handed to the server explicitly. A file may either hold the messages at the
// top level or nest them under a single key named after its language.
package i18n
