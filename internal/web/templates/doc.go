// Package templates renders the HTMX fragments returned by the upload API.
// The components are written in fragments.templ; run templ generate after
// editing it.
package templates
