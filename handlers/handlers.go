package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gamecatalog/auth"
	"gamecatalog/catalog"
	"gamecatalog/middleware"
	"gamecatalog/models"
	"gamecatalog/utils"

	"github.com/sirupsen/logrus"
)

type Handler struct {
	catalog  *catalog.Service
	sessions *auth.Manager
	render   *Renderer
	logger   *logrus.Logger
}

func New(svc *catalog.Service, sessions *auth.Manager, render *Renderer, logger *logrus.Logger) *Handler {
	return &Handler{catalog: svc, sessions: sessions, render: render, logger: logger}
}

// Routes registers every page. Add only needs a login while the admin pages
// need an admin; that split is deliberate.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /register", h.RegisterForm)
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)
	mux.Handle("GET /logout", h.sessions.RequireLogin(http.HandlerFunc(h.Logout)))
	mux.Handle("GET /add", h.sessions.RequireLogin(http.HandlerFunc(h.AddGameForm)))
	mux.Handle("POST /add", h.sessions.RequireLogin(http.HandlerFunc(h.AddGame)))
	mux.HandleFunc("GET /game/{id}", h.GameDetail)
	mux.Handle("GET /admin", h.sessions.RequireAdminLogin(http.HandlerFunc(h.Admin)))
	mux.Handle("GET /delete/{id}", h.sessions.RequireAdminLogin(http.HandlerFunc(h.DeleteGame)))
	return mux
}

// Router wraps Routes with recovery, request logging, CSRF checks and
// session resolution, outermost first.
func (h *Handler) Router(secureCookies bool) http.Handler {
	return middleware.Chain(h.Routes(),
		middleware.Recovery(h.logger),
		middleware.Logger(h.logger),
		middleware.CSRF(h.logger, secureCookies),
		h.sessions.Identify,
	)
}

// finish flashes the result message and redirects to its target.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, res models.Result) {
	if res.Message != "" {
		utils.SetFlash(w, models.Flash{Outcome: res.Outcome, Message: res.Message})
	}
	http.Redirect(w, r, res.Redirect, http.StatusFound)
}

// formError re-renders a form page with the messages for err, or answers 500
// when err is not a user facing failure.
func (h *Handler) formError(w http.ResponseWriter, r *http.Request, page string, data *models.PageData, err error) {
	var (
		verr   *models.ValidationError
		status int
	)
	switch {
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		data.FormErrors = verr.Messages()
	case errors.Is(err, models.ErrDuplicateUsername):
		status = http.StatusConflict
		data.FormErrors = []string{"That username is not available."}
	case errors.Is(err, models.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		data.FormErrors = []string{"Invalid username or password"}
	default:
		h.serverError(w, r, err)
		return
	}
	h.render.Render(w, r, status, page, data)
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WithError(err).
		WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).
		Error("request failed")
	h.render.Error(w, r, http.StatusInternalServerError)
}

// pathID parses the {id} wildcard. Anything but a positive integer is
// reported as not found.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
