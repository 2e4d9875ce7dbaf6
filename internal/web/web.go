// Package web holds the HTML templates and static assets compiled into the
// binary.
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed all:templates
var templateFS embed.FS

//go:embed all:assets
var assetsFS embed.FS

// Templates parses every page and partial template.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// Assets returns the static files rooted at the assets directory.
func Assets() (fs.FS, error) {
	return fs.Sub(assetsFS, "assets")
}
