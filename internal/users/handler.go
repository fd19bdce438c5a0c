// internal/users/handler.go
package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"librarium/internal/api"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the user endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleRegister)
	r.Get("/", h.handleList)
	r.Get("/{userID}", h.handleGet)
	r.Put("/{userID}", h.handleUpdate)
	r.Delete("/{userID}", h.handleRemove)
	return r
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input RegisterInput
	if err := api.Decode(r, &input); err != nil {
		api.WriteError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), input)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusCreated, "User registered successfully", user)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Users fetched", list)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		api.WriteError(w, api.BadRequest("Invalid user id"))
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "User fetched", user)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		api.WriteError(w, api.BadRequest("Invalid user id"))
		return
	}

	var input UpdateInput
	if err := api.Decode(r, &input); err != nil {
		api.WriteError(w, err)
		return
	}

	user, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "User updated successfully", user)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		api.WriteError(w, api.BadRequest("Invalid user id"))
		return
	}

	if err := h.service.Remove(r.Context(), id); err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "User removed successfully", nil)
}
