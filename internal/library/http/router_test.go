package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	httpapi "github.com/openshelf/openshelf/internal/library/http"
	"github.com/openshelf/openshelf/internal/library/service"
	"github.com/openshelf/openshelf/internal/library/store/drivers/sqlite"
	"github.com/openshelf/openshelf/pkg/jwtx"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	logger := slog.New(slog.DiscardHandler)

	router := httpapi.NewRouter("test", st, logger)
	router.AuthService = &service.AuthService{
		Store:        st,
		Sessions:     jwtx.NewIssuer("test-session-secret"),
		CipherSecret: "test-cipher-secret",
	}
	router.CatalogService = &service.CatalogService{Store: st}
	router.CirculationService = &service.CirculationService{Store: st}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	// Array-shaped responses are decoded by the caller.
	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

func registerUser(t *testing.T, srv *httptest.Server, email, role string) (id, token string) {
	t.Helper()

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/auth/register", "", map[string]any{
		"name":     "Test User",
		"email":    email,
		"password": "sw0rdfish",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	token, ok = body["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)
	return user["id"].(string), token
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)

	_, token := registerUser(t, srv, "alice@example.com", "")

	t.Run("me returns the identity without the password hash", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, srv.URL+"/auth/me", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "alice@example.com", body["email"])
		require.Equal(t, "member", body["role"])
		require.NotContains(t, body, "passwordHash")
	})

	t.Run("me without a token", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, srv.URL+"/auth/me", "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.NotEmpty(t, body["message"])
	})

	t.Run("me with a garbage token", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodGet, srv.URL+"/auth/me", "garbage", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("login returns a fresh token and a session cookie", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", map[string]any{
			"email":    "alice@example.com",
			"password": "sw0rdfish",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotEmpty(t, body["token"])

		var found bool
		for _, c := range resp.Cookies() {
			if c.Name == "token" {
				found = true
				require.True(t, c.HttpOnly)
			}
		}
		require.True(t, found, "expected a session cookie")
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", map[string]any{
			"email":    "alice@example.com",
			"password": "wrong",
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("duplicate email", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/auth/register", "", map[string]any{
			"name":     "Copy Cat",
			"email":    "alice@example.com",
			"password": "sw0rdfish",
		})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestSessionCookieAuthenticates(t *testing.T) {
	srv := newTestServer(t)
	_, token := registerUser(t, srv, "alice@example.com", "")

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/auth/me", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCatalogEndpoints(t *testing.T) {
	srv := newTestServer(t)

	_, memberToken := registerUser(t, srv, "member@example.com", "")
	_, adminToken := registerUser(t, srv, "admin@example.com", "admin")

	t.Run("members cannot create books", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/books", memberToken, map[string]any{
			"title": "Dune", "author": "Frank Herbert",
		})
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("anonymous requests fail before the role check", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/books", "", map[string]any{
			"title": "Dune", "author": "Frank Herbert",
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	var bookID string
	t.Run("admins create books", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/books", adminToken, map[string]any{
			"title": "Dune", "author": "Frank Herbert", "genre": "Science Fiction", "totalCopies": 2,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		bookID = body["id"].(string)
		require.EqualValues(t, 2, body["availableCopies"])
	})

	t.Run("list wraps results in the page envelope", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, srv.URL+"/books?genre=Science+Fiction", memberToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.EqualValues(t, 1, body["page"])
		require.EqualValues(t, 10, body["limit"])
		require.EqualValues(t, 1, body["totalPages"])
		require.EqualValues(t, 1, body["total"])
		require.Len(t, body["items"], 1)
	})

	t.Run("update and delete", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPut, srv.URL+"/books/"+bookID, adminToken, map[string]any{
			"totalCopies": 5,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.EqualValues(t, 5, body["availableCopies"])

		resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/books/"+bookID, adminToken, nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = doJSON(t, http.MethodGet, srv.URL+"/books/"+bookID, adminToken, nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestBorrowEndpoints(t *testing.T) {
	srv := newTestServer(t)

	_, memberToken := registerUser(t, srv, "member@example.com", "")
	_, adminToken := registerUser(t, srv, "admin@example.com", "admin")

	_, body := doJSON(t, http.MethodPost, srv.URL+"/books", adminToken, map[string]any{
		"title": "Dune", "author": "Frank Herbert",
	})
	bookID := body["id"].(string)

	t.Run("admins do not borrow", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/borrow/borrow", adminToken, map[string]any{
			"bookId": bookID,
		})
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	var borrowID string
	t.Run("members borrow", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/borrow/borrow", memberToken, map[string]any{
			"bookId": bookID,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		borrowID = body["id"].(string)
	})

	t.Run("second borrow conflicts on zero copies", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/borrow/borrow", memberToken, map[string]any{
			"bookId": bookID,
		})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("history shows the open borrow", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/borrow/history/me", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+memberToken)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var history []map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
		require.Len(t, history, 1)
		require.Equal(t, "Dune", history[0]["bookTitle"])
	})

	t.Run("return", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/borrow/return", memberToken, map[string]any{
			"borrowId": borrowID,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotEmpty(t, body["returnDate"])

		resp, _ = doJSON(t, http.MethodPost, srv.URL+"/borrow/return", memberToken, map[string]any{
			"borrowId": borrowID,
		})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestReportEndpoints(t *testing.T) {
	srv := newTestServer(t)

	_, memberToken := registerUser(t, srv, "member@example.com", "")
	_, adminToken := registerUser(t, srv, "admin@example.com", "admin")

	for i := range 2 {
		_, body := doJSON(t, http.MethodPost, srv.URL+"/books", adminToken, map[string]any{
			"title": fmt.Sprintf("Book %d", i), "author": "Author",
		})
		_, _ = doJSON(t, http.MethodPost, srv.URL+"/borrow/borrow", memberToken, map[string]any{
			"bookId": body["id"],
		})
	}

	t.Run("availability for members and admins", func(t *testing.T) {
		for _, token := range []string{memberToken, adminToken} {
			resp, body := doJSON(t, http.MethodGet, srv.URL+"/books/reports/availability", token, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.EqualValues(t, 2, body["totalBooks"])
			require.EqualValues(t, 0, body["availableBooks"])
			require.EqualValues(t, 2, body["borrowedBooks"])
		}
	})

	t.Run("most borrowed", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodGet, srv.URL+"/borrow/reports/most-borrowed", memberToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("active members is admin only", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodGet, srv.URL+"/borrow/reports/active-members", memberToken, nil)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp, _ = doJSON(t, http.MethodGet, srv.URL+"/borrow/reports/active-members", adminToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/livez", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/readyz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])
}
