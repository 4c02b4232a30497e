package ui

import (
	"embed"
	"html/template"
)

// Templates embeds the operator console pages.
//
//go:embed templates/*.html
var Templates embed.FS

// Parse returns every console page, addressable by file name
// ("login.html", "dashboard.html").
func Parse() (*template.Template, error) {
	return template.ParseFS(Templates, "templates/*.html")
}
