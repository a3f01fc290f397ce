package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/openshelf/openshelf/internal/library/domain"
	"github.com/openshelf/openshelf/internal/library/store"
	"github.com/openshelf/openshelf/pkg/cryptox"
	"github.com/openshelf/openshelf/pkg/idx"
	"github.com/openshelf/openshelf/pkg/jwtx"
	"github.com/openshelf/openshelf/pkg/slogx"
)

// AuthService owns registration, login, and the token pipeline: a session
// token signed by Sessions, sealed by the token cipher for transport.
type AuthService struct {
	Store    store.Store
	Sessions *jwtx.Issuer

	// CipherSecret keys the transport seal around session tokens.
	CipherSecret string
}

// Register creates an account and returns the user with a sealed session
// token, so registration doubles as the first login.
func (s *AuthService) Register(ctx context.Context, name, email, password, role string) (domain.User, string, error) {
	if err := domain.ValidateRegistration(name, email, password); err != nil {
		return domain.User{}, "", err
	}

	parsedRole, err := domain.ParseRole(role)
	if err != nil {
		return domain.User{}, "", errInvalidRole
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           idx.New().String(),
		Name:         name,
		Email:        domain.NormalizeEmail(email),
		PasswordHash: hash,
		Role:         parsedRole,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, "", ErrEmailTaken
		}
		return domain.User{}, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.issueTransportToken(user.ID)
	if err != nil {
		return domain.User{}, "", err
	}
	return user.Redacted(), token, nil
}

// Login verifies credentials and returns the user with a sealed session
// token. Unknown email and wrong password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	if err := domain.ValidateCredentials(email, password); err != nil {
		return domain.User{}, "", err
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, "", ErrInvalidCredentials
		}
		return domain.User{}, "", fmt.Errorf("load user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return domain.User{}, "", ErrInvalidCredentials
	}

	token, err := s.issueTransportToken(user.ID)
	if err != nil {
		return domain.User{}, "", err
	}
	return user.Redacted(), token, nil
}

// Authenticate resolves a transport token to its user: unseal, verify the
// session claims, load the account. Every failure collapses to
// ErrUnauthenticated so callers cannot probe which step rejected them.
func (s *AuthService) Authenticate(ctx context.Context, transportToken string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	sessionToken, err := cryptox.Open(transportToken, s.CipherSecret)
	if err != nil {
		log.Warn("auth: failed to open transport token", "err", err)
		return domain.User{}, ErrUnauthenticated
	}

	subject, err := s.Sessions.Verify(sessionToken)
	if err != nil {
		log.Warn("auth: session verification failed", "err", err)
		return domain.User{}, ErrUnauthenticated
	}

	user, err := s.Store.Users().GetUserByID(ctx, subject)
	if err != nil {
		// Deleted account with a live token; same uniform failure.
		log.Warn("auth: session subject no longer resolves", "subject", subject)
		return domain.User{}, ErrUnauthenticated
	}

	return user.Redacted(), nil
}

func (s *AuthService) issueTransportToken(userID string) (string, error) {
	sessionToken, err := s.Sessions.Issue(userID)
	if err != nil {
		return "", fmt.Errorf("issue session token: %w", err)
	}
	sealed, err := cryptox.Seal(sessionToken, s.CipherSecret)
	if err != nil {
		return "", fmt.Errorf("seal session token: %w", err)
	}
	return sealed, nil
}
