package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"gamecatalog/auth"
	"gamecatalog/middleware"
	"gamecatalog/models"
	"gamecatalog/utils"

	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageFiles = []string{
	"home.html",
	"register.html",
	"login.html",
	"add_game.html",
	"game_detail.html",
	"admin.html",
	"error.html",
}

// Renderer executes the embedded page templates inside the shared layout.
type Renderer struct {
	pages  map[string]*template.Template
	logger *logrus.Logger
}

func NewRenderer(logger *logrus.Logger) (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageFiles))
	for _, page := range pageFiles {
		tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		pages[page] = tmpl
	}
	return &Renderer{pages: pages, logger: logger}, nil
}

// Render fills in the per-request parts of data (current user, CSRF token,
// pending flash) and writes page with the given status.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data *models.PageData) {
	tmpl, ok := rd.pages[page]
	if !ok {
		rd.logger.WithField("page", page).Error("unknown template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data.CurrentUser = auth.CurrentIdentity(r.Context())
	data.CSRFtoken = middleware.CSRFToken(r.Context())
	data.Flash = utils.PopFlash(w, r)

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		rd.logger.WithError(err).WithField("page", page).Error("Error rendering template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (rd *Renderer) Error(w http.ResponseWriter, r *http.Request, status int) {
	rd.Render(w, r, status, "error.html", &models.PageData{Title: http.StatusText(status)})
}

func (rd *Renderer) Forbidden(w http.ResponseWriter, r *http.Request) {
	rd.Error(w, r, http.StatusForbidden)
}

func (rd *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rd.Error(w, r, http.StatusNotFound)
}
