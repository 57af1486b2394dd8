package handlers

import (
	"errors"
	"net/http"

	"gamecatalog/models"
	"gamecatalog/utils"
)

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	games, err := h.catalog.ListGames(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render.Render(w, r, http.StatusOK, "home.html", &models.PageData{Title: "Games", Games: games})
}

func (h *Handler) AddGameForm(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "add_game.html", &models.PageData{Title: "Add Game"})
}

func (h *Handler) AddGame(w http.ResponseWriter, r *http.Request) {
	form := utils.GameForm{
		Title:       r.PostFormValue("title"),
		Genre:       r.PostFormValue("genre"),
		Description: r.PostFormValue("description"),
	}

	_, res, err := h.catalog.AddGame(r.Context(), form)
	if err != nil {
		h.formError(w, r, "add_game.html", &models.PageData{
			Title: "Add Game",
			Form: map[string]string{
				"title":       form.Title,
				"genre":       form.Genre,
				"description": form.Description,
			},
		}, err)
		return
	}
	h.finish(w, r, res)
}

func (h *Handler) GameDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.render.NotFound(w, r)
		return
	}

	game, err := h.catalog.GetGame(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		h.render.NotFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render.Render(w, r, http.StatusOK, "game_detail.html", &models.PageData{Title: game.Title, Game: game})
}

func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	games, err := h.catalog.ListGames(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render.Render(w, r, http.StatusOK, "admin.html", &models.PageData{Title: "Admin", Games: games})
}

func (h *Handler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.render.NotFound(w, r)
		return
	}

	res, err := h.catalog.DeleteGame(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		h.render.NotFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.finish(w, r, res)
}
