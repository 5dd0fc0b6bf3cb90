// Package render turns page data into HTML using the embedded templates.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/KAsare1/Postly-server/cmd/models"
	"github.com/sirupsen/logrus"
)

//go:embed templates
var templateFS embed.FS

// Pages are rendered from the layout, the shared partials and one page file.
var pages = []string{
	"index.html",
	"group.html",
	"profile.html",
	"post.html",
	"new.html",
	"follow.html",
	"login.html",
	"signup.html",
	"misc/404.html",
	"misc/500.html",
}

// Base is embedded by every page's data.
type Base struct {
	Title string
	Actor *models.User
}

type Renderer struct {
	pages map[string]*template.Template
	log   logrus.FieldLogger
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string {
			return t.Format("2 January 2006 15:04")
		},
		"media": func(rel string) string {
			return "/media/" + strings.TrimPrefix(rel, "/")
		},
		"postURL": func(p any) string {
			switch p := p.(type) {
			case *models.Post:
				return PostURL(*p)
			case models.Post:
				return PostURL(p)
			}
			return "/"
		},
		"profileURL": func(username string) string {
			return "/" + username + "/"
		},
	}
}

// PostURL is the canonical view path of a post with a loaded author.
func PostURL(p models.Post) string {
	username := ""
	if p.Author != nil {
		username = p.Author.Username
	}
	return fmt.Sprintf("/%s/%d/", username, p.ID)
}

func New(log logrus.FieldLogger) (*Renderer, error) {
	partials, err := fs.Glob(templateFS, "templates/partials/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(pages)), log: log}
	for _, name := range pages {
		files := append([]string{"templates/layout.html"}, partials...)
		files = append(files, path.Join("templates", name))
		t, err := template.New(path.Base(name)).Funcs(funcs()).ParseFS(templateFS, files...)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// HTML renders the page into a buffer first so a template failure never
// leaves a half-written response behind.
func (r *Renderer) HTML(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.pages[name]
	if !ok {
		r.log.WithField("template", name).Error("unknown template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		r.log.WithError(err).WithField("template", name).Error("render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

type notFoundPage struct {
	Base
	Path string
}

func (r *Renderer) NotFound(w http.ResponseWriter, req *http.Request, actor *models.User) {
	r.HTML(w, http.StatusNotFound, "misc/404.html", notFoundPage{
		Base: Base{Title: "Page not found", Actor: actor},
		Path: req.URL.Path,
	})
}

func (r *Renderer) ServerError(w http.ResponseWriter, actor *models.User) {
	r.HTML(w, http.StatusInternalServerError, "misc/500.html", Base{Title: "Server error", Actor: actor})
}
