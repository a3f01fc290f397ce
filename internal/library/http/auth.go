package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/openshelf/openshelf/internal/library/domain"
	"github.com/openshelf/openshelf/internal/library/service"
	"github.com/openshelf/openshelf/pkg/httpx"
	"github.com/openshelf/openshelf/pkg/jwtx"
)

type AuthHandler struct {
	AuthService *service.AuthService
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

// HandleRegister creates an account. A successful registration doubles as the
// first login: the response carries the sealed session token and sets the
// session cookie.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.AuthService.Register(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	setSessionCookie(w, token)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

// HandleLogin verifies credentials and issues a fresh sealed session token.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	setSessionCookie(w, token)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

// HandleMe returns the authenticated identity.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := domain.UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "not authorized")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user)
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(jwtx.DefaultSessionTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
