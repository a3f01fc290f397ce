package service

import "github.com/openshelf/openshelf/internal/library/apperr"

// Business-rule failures shared across the REST and GraphQL boundaries.
// Handlers map these through apperr.HTTPStatus / apperr.Message.
var (
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthenticated, "invalid email or password")
	errInvalidRole        = apperr.New(apperr.KindValidation, "role must be member or admin")
	ErrEmailTaken         = apperr.New(apperr.KindConflict, "an account with this email already exists")
	ErrUnauthenticated    = apperr.New(apperr.KindUnauthenticated, "not authorized")
	ErrForbidden          = apperr.New(apperr.KindForbidden, "forbidden")

	ErrBookNotFound  = apperr.New(apperr.KindNotFound, "book not found")
	ErrISBNTaken     = apperr.New(apperr.KindConflict, "a book with this ISBN already exists")
	ErrNoCopies      = apperr.New(apperr.KindConflict, "no copies available")
	ErrBorrowNotFound = apperr.New(apperr.KindNotFound, "borrow record not found")
	ErrNotBorrowOwner = apperr.New(apperr.KindForbidden, "not allowed to return this book")
	ErrAlreadyReturned = apperr.New(apperr.KindConflict, "book already returned")
)
