// Package assets embeds the web upload page.
// index.html is generated from index.html.tpl, style.css and script.js by cmd/minify.
package assets

import _ "embed"

//go:generate go run ../cmd/minify --dir .

// Index is the minified upload page.
//
//go:embed index.html
var Index []byte

// Favicon is the site icon.
//
//go:embed favicon.svg
var Favicon []byte
