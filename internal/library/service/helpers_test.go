package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/internal/library/domain"
	"github.com/openshelf/openshelf/internal/library/store"
	"github.com/openshelf/openshelf/internal/library/store/drivers/sqlite"
	"github.com/openshelf/openshelf/pkg/cryptox"
	"github.com/openshelf/openshelf/pkg/idx"
	"github.com/openshelf/openshelf/pkg/jwtx"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestAuth(t *testing.T, st store.Store) *AuthService {
	t.Helper()

	return &AuthService{
		Store:        st,
		Sessions:     jwtx.NewIssuer("test-session-secret"),
		CipherSecret: "test-cipher-secret",
	}
}

func seedUser(t *testing.T, st store.Store, email string, role domain.Role) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword("sw0rdfish")
	require.NoError(t, err)

	u := domain.User{
		ID:           idx.New().String(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func seedBook(t *testing.T, st store.Store, title string, copies int64) domain.Book {
	t.Helper()

	svc := &CatalogService{Store: st}
	book, err := svc.Add(context.Background(), BookInput{
		Title:       title,
		Author:      "Some Author",
		TotalCopies: &copies,
	})
	require.NoError(t, err)
	return book
}
