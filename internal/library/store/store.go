package store

import (
	"context"
	"errors"
	"time"

	"github.com/openshelf/openshelf/internal/library/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement it. Sub-repositories keep concerns tidy and testable.
type Store interface {
	Users() Users
	Books() Books
	Borrows() Borrows

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST Commit() or Rollback() the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing on nil and rolling
	// back on error. The borrow path depends on this: the ledger write and
	// the copy decrement land together or not at all.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up by the stored (normalized) email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
}

type Books interface {
	// CreateBook inserts a book. Returns ErrAlreadyExists on a duplicate ISBN.
	CreateBook(ctx context.Context, b domain.Book) error

	GetBookByID(ctx context.Context, id string) (domain.Book, error)

	// UpdateBook persists every mutable field of the book row.
	UpdateBook(ctx context.Context, b domain.Book) error

	DeleteBook(ctx context.Context, id string) error

	ListBooks(ctx context.Context, f domain.BookFilter) ([]domain.Book, error)
	CountBooks(ctx context.Context, f domain.BookFilter) (int64, error)

	// TakeCopy atomically decrements available_copies if at least one copy is
	// free. Returns false when the book has no free copies (or does not
	// exist); the caller distinguishes the two with GetBookByID.
	TakeCopy(ctx context.Context, id string) (bool, error)

	// ReturnCopy increments available_copies, capped at total_copies.
	// Returns ErrNotFound when the book no longer exists.
	ReturnCopy(ctx context.Context, id string) error

	// AvailabilitySummary sums copy counts across the catalog.
	AvailabilitySummary(ctx context.Context) (domain.AvailabilityReport, error)
}

type Borrows interface {
	CreateBorrow(ctx context.Context, b domain.Borrow) error

	GetBorrowByID(ctx context.Context, id string) (domain.Borrow, error)

	// MarkReturned sets return_date on an open borrow. Returns ErrNotFound
	// when the borrow does not exist or is already closed.
	MarkReturned(ctx context.Context, id string, returnedAt time.Time) error

	// ListByUser returns the user's borrows newest-first with book display
	// fields joined in (empty when the book was deleted).
	ListByUser(ctx context.Context, userID string) ([]domain.BorrowDetail, error)

	// MostBorrowedBooks aggregates borrow counts per book, descending.
	MostBorrowedBooks(ctx context.Context, limit int) ([]domain.BookBorrowCount, error)

	// MostActiveMembers aggregates borrow counts per user, descending.
	MostActiveMembers(ctx context.Context, limit int) ([]domain.MemberBorrowCount, error)
}
