package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/openshelf/openshelf/internal/library/domain"
	"github.com/openshelf/openshelf/internal/library/service"
	"github.com/openshelf/openshelf/pkg/httpx"
)

type BooksHandler struct {
	CatalogService *service.CatalogService
}

// bookRequest is the write shape for create and update. Updates treat absent
// fields as "leave unchanged".
type bookRequest struct {
	Title           *string    `json:"title"`
	Author          *string    `json:"author"`
	ISBN            *string    `json:"isbn"`
	PublicationDate *time.Time `json:"publicationDate"`
	Genre           *string    `json:"genre"`
	TotalCopies     *int64     `json:"totalCopies"`
}

func (h *BooksHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := service.BookInput{
		ISBN:            req.ISBN,
		PublicationDate: req.PublicationDate,
		Genre:           req.Genre,
		TotalCopies:     req.TotalCopies,
	}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Author != nil {
		in.Author = *req.Author
	}

	book, err := h.CatalogService.Add(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, book)
}

// HandleList returns one page of the catalog in the list envelope. Filters:
// genre exact, author and title case-insensitive substring.
func (h *BooksHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.BookFilter{
		Genre:  q.Get("genre"),
		Author: q.Get("author"),
		Title:  q.Get("title"),
		Page:   intQuery(q.Get("page")),
		Limit:  intQuery(q.Get("limit")),
	}
	filter = filter.Normalize()

	books, total, err := h.CatalogService.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, httpx.ListResponse{
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
		Total:      total,
		Items:      books,
	})
}

func (h *BooksHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	book, err := h.CatalogService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, book)
}

func (h *BooksHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	book, err := h.CatalogService.Update(r.Context(), r.PathValue("id"), service.BookUpdate{
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		PublicationDate: req.PublicationDate,
		Genre:           req.Genre,
		TotalCopies:     req.TotalCopies,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, book)
}

func (h *BooksHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.CatalogService.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BooksHandler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	report, err := h.CatalogService.Availability(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}

func intQuery(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
