// Package web holds the server-rendered pages.
package web

import (
	"embed"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"upper": strings.ToUpper,
}

// Templates parses every embedded page. Pages are addressed by file name,
// e.g. "check.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

// MustTemplates is Templates for startup wiring and tests.
func MustTemplates() *template.Template {
	return template.Must(Templates())
}
