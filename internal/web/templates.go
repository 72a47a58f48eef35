package web

import (
	"embed"
	"html/template"
	"time"

	"github.com/dustin/go-humanize"

	"csvdeck/internal/manifest"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"formatSize": func(size int64) string {
		if size < 0 {
			return "?"
		}
		return humanize.Bytes(uint64(size))
	},
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return t.UTC().Format("January 2, 2006 at 3:04 PM UTC")
	},
}

var indexTemplate = template.Must(template.New("index.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/index.html"))

type indexPage struct {
	Title        string
	Base         string
	ManifestName string
	GeneratedAt  time.Time
	Files        []manifest.Descriptor
	Error        string
}
