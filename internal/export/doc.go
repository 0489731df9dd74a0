// Package export snapshots the running site into a static file tree.
//
// A run discovers the canonical page list from the content collections,
// wipes the output directory, copies static assets verbatim, fetches every
// page from the server in order and writes it at the path derived from its
// URL. Synthetic pages (404.html, legacy redirects and .nojekyll) are written
// after the fetch loop.
//
// Runs are sequential and idempotent: nothing run-specific is written into
// the tree, so unchanged content produces byte-identical output.
package export
