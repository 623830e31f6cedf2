// Package web holds the embedded page template and static assets.
package web

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/fakhrymubarak/iss-finder/internal/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

var indexTmpl *template.Template

// IndexData is the view model of index.html.
type IndexData struct {
	Page   *model.PageData
	Status template.HTML
}

// loadTemplatesFromFS parses index.html from fsys/dir. Tests use it to simulate failures.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.ParseFS(sub, "*.html")
	if err != nil {
		return err
	}
	indexTmpl = tmpl
	return nil
}

// LoadTemplates parses the embedded templates. Call during startup; do not serve if it fails.
func LoadTemplates() error {
	return loadTemplatesFromFS(templatesFS, "templates")
}

// RenderIndex writes the page for data. The advisory message is produced by
// the advisor with the weather description already escaped.
func RenderIndex(w io.Writer, data *model.PageData) error {
	if indexTmpl == nil {
		return errors.New("index template not loaded: call web.LoadTemplates during startup")
	}
	return indexTmpl.ExecuteTemplate(w, "index.html", IndexData{
		Page:   data,
		Status: template.HTML(data.Status.Message),
	})
}

// StaticHandler serves the embedded static directory; mount it under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
