package handlers

import (
	"net/http"

	"gamecatalog/auth"
	"gamecatalog/models"
	"gamecatalog/utils"
)

func (h *Handler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "register.html", &models.PageData{Title: "Register"})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	form := utils.RegisterForm{
		Username:        r.PostFormValue("username"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}

	user, res, err := h.catalog.Register(r.Context(), form)
	if err != nil {
		h.formError(w, r, "register.html", &models.PageData{
			Title: "Register",
			Form:  map[string]string{"username": form.Username},
		}, err)
		return
	}

	if err := h.sessions.Login(r.Context(), w, r, user); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.finish(w, r, res)
}

func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "login.html", &models.PageData{
		Title: "Login",
		Next:  r.URL.Query().Get("next"),
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	form := utils.LoginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	next := r.PostFormValue("next")

	user, res, err := h.catalog.Authenticate(r.Context(), form)
	if err != nil {
		h.formError(w, r, "login.html", &models.PageData{
			Title: "Login",
			Form:  map[string]string{"username": form.Username},
			Next:  next,
		}, err)
		return
	}

	if err := h.sessions.Login(r.Context(), w, r, user); err != nil {
		h.serverError(w, r, err)
		return
	}
	if next != "" {
		res.Redirect = auth.SafeRedirect(next)
	}
	h.finish(w, r, res)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), w, r); err != nil {
		h.logger.WithError(err).Error("Failed to delete session")
	}
	h.finish(w, r, models.Result{
		Outcome:  models.OutcomeSuccess,
		Message:  "You have been logged out",
		Redirect: "/",
	})
}
