// internal/borrowing/handler.go
package borrowing

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

// Routes mounts the borrowing endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/borrow", h.handleBorrow)
	r.Post("/return", h.handleReturn)
	r.Get("/available-copies/{bookID}", h.handleAvailableCopies)
	r.Get("/borrowed/user/{userID}", h.handleBorrowedByUser)
	r.Get("/borrowed/all", h.handleAllBorrowed)
	r.Get("/borrowed/overdue", h.handleAllOverdue)
	r.Get("/fine/user/{userID}", h.handleOutstandingFine)
	return r
}

func (h *Handler) handleBorrow(w http.ResponseWriter, r *http.Request) {
	bookID, err := uuid.Parse(r.URL.Query().Get("bookId"))
	if err != nil {
		api.WriteError(w, api.BadRequest("Invalid or missing bookId"))
		return
	}
	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		api.WriteError(w, api.BadRequest("Invalid or missing userId"))
		return
	}

	loan, err := h.service.BorrowBook(r.Context(), bookID, userID)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Book borrowed successfully", loan)
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(r.URL.Query().Get("borrowingId"))
	if err != nil {
		api.WriteError(w, api.BadRequest("Invalid or missing borrowingId"))
		return
	}

	loan, err := h.service.ReturnBook(r.Context(), loanID)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Book returned successfully", loan)
}

func (h *Handler) handleAvailableCopies(w http.ResponseWriter, r *http.Request) {
	bookID, err := uuid.Parse(chi.URLParam(r, "bookID"))
	if err != nil {
		api.WriteError(w, api.BadRequest("Invalid book id"))
		return
	}

	count, err := h.service.AvailableCopies(r.Context(), bookID)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Available copies fetched", count)
}

func (h *Handler) handleBorrowedByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		api.WriteError(w, api.BadRequest("Invalid user id"))
		return
	}

	loans, err := h.service.BorrowedByUser(r.Context(), userID)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Borrowed books fetched", loans)
}

func (h *Handler) handleAllBorrowed(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.AllBorrowed(r.Context())
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Borrowed books fetched", loans)
}

func (h *Handler) handleAllOverdue(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.AllOverdue(r.Context())
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Overdue books fetched", loans)
}

func (h *Handler) handleOutstandingFine(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		api.WriteError(w, api.BadRequest("Invalid user id"))
		return
	}

	fine, err := h.service.OutstandingFine(r.Context(), userID)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Outstanding fine fetched", fine)
}
