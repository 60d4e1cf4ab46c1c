// Package views renders the site's HTML pages.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/anonto42/yatube/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday"
)

//go:embed templates
var templateFS embed.FS

const layout = "templates/base.html"

// Renderer executes one template set per page, each sharing the base layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page under templates/ except the layout.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	err := fs.WalkDir(templateFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path == layout || !strings.HasSuffix(path, ".html") {
			return err
		}
		tmpl, err := template.New("base.html").Funcs(Funcs()).ParseFS(templateFS, layout, path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		r.pages[strings.TrimPrefix(path, "templates/")] = tmpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Render implements echo.Renderer. name is the page path, e.g. "posts/index.html".
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "base.html", data)
}

var sanitizer = bluemonday.UGCPolicy()

// Funcs are the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"markdown": Markdown,
		"truncate": models.Truncate,
		"date": func(t time.Time) string {
			return t.Format("2 January 2006")
		},
		"mediaURL": func(name string) string {
			return "/media/" + name
		},
	}
}

// Markdown renders post text to sanitized HTML.
func Markdown(text string) template.HTML {
	unsafe := blackfriday.MarkdownCommon([]byte(text))
	return template.HTML(sanitizer.SanitizeBytes(unsafe))
}
