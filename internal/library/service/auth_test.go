package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/internal/library/apperr"
	"github.com/openshelf/openshelf/internal/library/domain"
)

func TestRegisterIssuesUsableToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	auth := newTestAuth(t, st)

	user, token, err := auth.Register(ctx, "Alice", "Alice@Example.COM", "sw0rdfish", "")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.Equal(t, "alice@example.com", user.Email)
	require.Equal(t, domain.RoleMember, user.Role)
	require.Empty(t, user.PasswordHash)

	resolved, err := auth.Authenticate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, user.ID, resolved.ID)
	require.Empty(t, resolved.PasswordHash)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	auth := newTestAuth(t, st)

	_, _, err := auth.Register(ctx, "", "alice@example.com", "sw0rdfish", "")
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, _, err = auth.Register(ctx, "Alice", "not-an-email", "sw0rdfish", "")
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, _, err = auth.Register(ctx, "Alice", "alice@example.com", "short", "")
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, _, err = auth.Register(ctx, "Alice", "alice@example.com", "sw0rdfish", "superuser")
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	auth := newTestAuth(t, st)

	_, _, err := auth.Register(ctx, "Alice", "alice@example.com", "sw0rdfish", "")
	require.NoError(t, err)

	// Same address with different casing still collides after normalization.
	_, _, err = auth.Register(ctx, "Mallory", "ALICE@example.com", "sw0rdfish", "")
	require.ErrorIs(t, err, ErrEmailTaken)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestLogin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	auth := newTestAuth(t, st)

	_, _, err := auth.Register(ctx, "Alice", "alice@example.com", "sw0rdfish", "admin")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		user, token, err := auth.Login(ctx, "alice@example.com", "sw0rdfish")
		require.NoError(t, err)
		require.NotEmpty(t, token)
		require.Equal(t, domain.RoleAdmin, user.Role)
		require.Empty(t, user.PasswordHash)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := auth.Login(ctx, "alice@example.com", "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email fails the same way", func(t *testing.T) {
		_, _, err := auth.Login(ctx, "nobody@example.com", "sw0rdfish")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)
	auth := newTestAuth(t, st)

	_, token, err := auth.Register(ctx, "Alice", "alice@example.com", "sw0rdfish", "")
	require.NoError(t, err)

	t.Run("garbage token", func(t *testing.T) {
		_, err := auth.Authenticate(ctx, "not-a-token")
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("token sealed with another secret", func(t *testing.T) {
		other := &AuthService{Store: st, Sessions: auth.Sessions, CipherSecret: "different"}
		_, otherToken, err := other.Register(ctx, "Bob", "bob@example.com", "sw0rdfish", "")
		require.NoError(t, err)

		_, err = auth.Authenticate(ctx, otherToken)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("valid token still works", func(t *testing.T) {
		_, err := auth.Authenticate(ctx, token)
		require.NoError(t, err)
	})
}
