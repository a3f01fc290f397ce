package http

import (
	"encoding/json"
	"net/http"

	"github.com/openshelf/openshelf/internal/library/domain"
	"github.com/openshelf/openshelf/internal/library/service"
	"github.com/openshelf/openshelf/pkg/httpx"
)

type BorrowHandler struct {
	CirculationService *service.CirculationService
}

type borrowRequest struct {
	BookID string `json:"bookId"`
}

type returnRequest struct {
	BorrowID string `json:"borrowId"`
}

func (h *BorrowHandler) HandleBorrow(w http.ResponseWriter, r *http.Request) {
	user, ok := domain.UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	var req borrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BookID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "bookId is required")
		return
	}

	borrow, err := h.CirculationService.Borrow(r.Context(), user.ID, req.BookID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, borrow)
}

func (h *BorrowHandler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	user, ok := domain.UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	var req returnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BorrowID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "borrowId is required")
		return
	}

	borrow, err := h.CirculationService.Return(r.Context(), req.BorrowID, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, borrow)
}

func (h *BorrowHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := domain.UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	history, err := h.CirculationService.History(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, history)
}

func (h *BorrowHandler) HandleMostBorrowed(w http.ResponseWriter, r *http.Request) {
	report, err := h.CirculationService.MostBorrowed(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}

func (h *BorrowHandler) HandleActiveMembers(w http.ResponseWriter, r *http.Request) {
	report, err := h.CirculationService.ActiveMembers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}
