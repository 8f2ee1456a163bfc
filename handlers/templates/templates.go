// Package templates embeds the dashboard's HTML templates.
package templates

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed *.html
var FS embed.FS

// ParseTemplates parses the named templates from the embedded filesystem.
func ParseTemplates(files ...string) (*template.Template, error) {
	funcMap := template.FuncMap{
		// pct1 renders a rounded ROI value as "12.3%".
		"pct1": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v)
		},
	}

	return template.New("").Funcs(funcMap).ParseFS(FS, files...)
}
