package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openshelf/openshelf/internal/library/domain"
	"github.com/openshelf/openshelf/internal/library/store"
	"github.com/openshelf/openshelf/pkg/idx"
)

// CatalogService owns the book catalog: CRUD, listing, and the availability
// aggregate. Circulation owns copy-count mutations tied to borrows.
type CatalogService struct {
	Store store.Store
}

// BookInput is the caller-supplied shape for a new book.
type BookInput struct {
	Title           string
	Author          string
	ISBN            *string
	PublicationDate *time.Time
	Genre           *string

	// TotalCopies defaults to 1 when nil.
	TotalCopies *int64
}

// BookUpdate carries a partial update; nil fields are left untouched.
type BookUpdate struct {
	Title           *string
	Author          *string
	ISBN            *string
	PublicationDate *time.Time
	Genre           *string
	TotalCopies     *int64
}

// Add creates a book. Every copy starts available.
func (s *CatalogService) Add(ctx context.Context, in BookInput) (domain.Book, error) {
	total := int64(1)
	if in.TotalCopies != nil {
		total = *in.TotalCopies
	}
	if err := domain.ValidateBookInput(in.Title, in.Author, total); err != nil {
		return domain.Book{}, err
	}

	book := domain.Book{
		ID:              idx.New().String(),
		Title:           in.Title,
		Author:          in.Author,
		ISBN:            in.ISBN,
		PublicationDate: in.PublicationDate,
		Genre:           in.Genre,
		TotalCopies:     total,
		AvailableCopies: total,
	}

	if err := s.Store.Books().CreateBook(ctx, book); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Book{}, ErrISBNTaken
		}
		return domain.Book{}, fmt.Errorf("create book: %w", err)
	}
	return book, nil
}

// Update applies a partial edit. A change to TotalCopies shifts
// AvailableCopies by the same delta, floored at zero, so open borrows keep
// their claim on copies.
func (s *CatalogService) Update(ctx context.Context, id string, up BookUpdate) (domain.Book, error) {
	var updated domain.Book

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		book, err := tx.Books().GetBookByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrBookNotFound
			}
			return fmt.Errorf("load book: %w", err)
		}

		if up.Title != nil {
			book.Title = *up.Title
		}
		if up.Author != nil {
			book.Author = *up.Author
		}
		if up.ISBN != nil {
			book.ISBN = up.ISBN
		}
		if up.PublicationDate != nil {
			book.PublicationDate = up.PublicationDate
		}
		if up.Genre != nil {
			book.Genre = up.Genre
		}
		if up.TotalCopies != nil {
			delta := *up.TotalCopies - book.TotalCopies
			book.TotalCopies = *up.TotalCopies
			book.AvailableCopies = max(0, book.AvailableCopies+delta)
		}

		if err := domain.ValidateBookInput(book.Title, book.Author, book.TotalCopies); err != nil {
			return err
		}

		if err := tx.Books().UpdateBook(ctx, book); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrISBNTaken
			}
			return fmt.Errorf("update book: %w", err)
		}
		updated = book
		return nil
	})
	if err != nil {
		return domain.Book{}, err
	}
	return updated, nil
}

// Delete removes a book. Borrow history referencing it survives.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.Store.Books().DeleteBook(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrBookNotFound
		}
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}

// Get loads a single book.
func (s *CatalogService) Get(ctx context.Context, id string) (domain.Book, error) {
	book, err := s.Store.Books().GetBookByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Book{}, ErrBookNotFound
		}
		return domain.Book{}, fmt.Errorf("load book: %w", err)
	}
	return book, nil
}

// List returns one page of the catalog plus the total match count.
func (s *CatalogService) List(ctx context.Context, f domain.BookFilter) ([]domain.Book, int64, error) {
	f = f.Normalize()

	total, err := s.Store.Books().CountBooks(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}
	books, err := s.Store.Books().ListBooks(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	return books, total, nil
}

// Availability returns the catalog-wide copy summary.
func (s *CatalogService) Availability(ctx context.Context) (domain.AvailabilityReport, error) {
	report, err := s.Store.Books().AvailabilitySummary(ctx)
	if err != nil {
		return domain.AvailabilityReport{}, fmt.Errorf("availability summary: %w", err)
	}
	return report, nil
}
