package web

import (
	"embed"
	"html/template"
)

// Template names.
const (
	MapTemplate   = "map.html"
	ErrorTemplate = "error.html"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded HTML views.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}
