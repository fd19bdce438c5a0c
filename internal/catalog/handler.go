// internal/catalog/handler.go
package catalog

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

// Routes mounts the catalog endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/books", func(r chi.Router) {
		r.Post("/", h.handleAddBook)
		r.Get("/", h.handleListBooks)
		r.Get("/{bookID}", h.handleGetBook)
		r.Put("/{bookID}", h.handleUpdateBook)
		r.Delete("/{bookID}", h.handleRemoveBook)
		r.Post("/{bookID}/copies", h.handleAddCopy)
		r.Get("/{bookID}/copies", h.handleListCopies)
	})
	r.Delete("/copies/{copyID}", h.handleRemoveCopy)

	r.Route("/authors", func(r chi.Router) {
		r.Post("/", h.handleAddAuthor)
		r.Get("/", h.handleListAuthors)
		r.Put("/{authorID}", h.handleUpdateAuthor)
		r.Delete("/{authorID}", h.handleRemoveAuthor)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Post("/", h.handleAddCategory)
		r.Get("/", h.handleListCategories)
		r.Put("/{categoryID}", h.handleUpdateCategory)
		r.Delete("/{categoryID}", h.handleRemoveCategory)
	})

	return r
}

func urlID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, api.BadRequest("Invalid id")
	}
	return id, nil
}

func (h *Handler) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var input BookInput
	if err := api.Decode(r, &input); err != nil {
		api.WriteError(w, err)
		return
	}

	book, err := h.service.AddBook(r.Context(), input)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusCreated, "Book added successfully", book)
}

func (h *Handler) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListBooks(r.Context())
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Books fetched", books)
}

func (h *Handler) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "bookID")
	if err != nil {
		api.WriteError(w, err)
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Book fetched", book)
}

func (h *Handler) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "bookID")
	if err != nil {
		api.WriteError(w, err)
		return
	}

	var input BookInput
	if err := api.Decode(r, &input); err != nil {
		api.WriteError(w, err)
		return
	}

	book, err := h.service.UpdateBook(r.Context(), id, input)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Book updated successfully", book)
}

func (h *Handler) handleRemoveBook(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "bookID")
	if err != nil {
		api.WriteError(w, err)
		return
	}

	if err := h.service.RemoveBook(r.Context(), id); err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Book removed successfully", nil)
}

func (h *Handler) handleAddCopy(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "bookID")
	if err != nil {
		api.WriteError(w, err)
		return
	}

	copy, err := h.service.AddCopy(r.Context(), id)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusCreated, "Copy added successfully", copy)
}

func (h *Handler) handleListCopies(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "bookID")
	if err != nil {
		api.WriteError(w, err)
		return
	}

	copies, err := h.service.ListCopies(r.Context(), id)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Copies fetched", copies)
}

func (h *Handler) handleRemoveCopy(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "copyID")
	if err != nil {
		api.WriteError(w, err)
		return
	}

	if err := h.service.RemoveCopy(r.Context(), id); err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Copy removed successfully", nil)
}

type nameInput struct {
	Name string `json:"name"`
}

func (h *Handler) handleAddAuthor(w http.ResponseWriter, r *http.Request) {
	var input nameInput
	if err := api.Decode(r, &input); err != nil {
		api.WriteError(w, err)
		return
	}

	author, err := h.service.AddAuthor(r.Context(), input.Name)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusCreated, "Author added successfully", author)
}

func (h *Handler) handleListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.service.ListAuthors(r.Context())
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Authors fetched", authors)
}

func (h *Handler) handleUpdateAuthor(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "authorID")
	if err != nil {
		api.WriteError(w, err)
		return
	}

	var input nameInput
	if err := api.Decode(r, &input); err != nil {
		api.WriteError(w, err)
		return
	}

	author, err := h.service.UpdateAuthor(r.Context(), id, input.Name)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Author updated successfully", author)
}

func (h *Handler) handleRemoveAuthor(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "authorID")
	if err != nil {
		api.WriteError(w, err)
		return
	}

	if err := h.service.RemoveAuthor(r.Context(), id); err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Author removed successfully", nil)
}

func (h *Handler) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var input nameInput
	if err := api.Decode(r, &input); err != nil {
		api.WriteError(w, err)
		return
	}

	category, err := h.service.AddCategory(r.Context(), input.Name)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusCreated, "Category added successfully", category)
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Categories fetched", categories)
}

func (h *Handler) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "categoryID")
	if err != nil {
		api.WriteError(w, err)
		return
	}

	var input nameInput
	if err := api.Decode(r, &input); err != nil {
		api.WriteError(w, err)
		return
	}

	category, err := h.service.UpdateCategory(r.Context(), id, input.Name)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Category updated successfully", category)
}

func (h *Handler) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "categoryID")
	if err != nil {
		api.WriteError(w, err)
		return
	}

	if err := h.service.RemoveCategory(r.Context(), id); err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, "Category removed successfully", nil)
}
