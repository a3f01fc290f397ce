package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openshelf/openshelf/internal/library/domain"
	"github.com/openshelf/openshelf/internal/library/store"
	"github.com/openshelf/openshelf/pkg/idx"
	"github.com/openshelf/openshelf/pkg/slogx"
)

// reportLimit caps the borrowing reports at the top ten rows.
const reportLimit = 10

// CirculationService owns the borrow/return state transition. It holds no
// state itself; the ledger write and the copy-count mutation always travel
// in one store transaction.
type CirculationService struct {
	Store store.Store
}

// Borrow checks availability and creates an open ledger entry while taking a
// copy. The decrement is conditional inside the transaction, so two
// concurrent requests for the last copy cannot both succeed.
func (s *CirculationService) Borrow(ctx context.Context, userID, bookID string) (domain.Borrow, error) {
	var borrow domain.Borrow

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		taken, err := tx.Books().TakeCopy(ctx, bookID)
		if err != nil {
			return fmt.Errorf("take copy: %w", err)
		}
		if !taken {
			// No row moved: either the book is gone or nothing is free.
			if _, err := tx.Books().GetBookByID(ctx, bookID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return ErrBookNotFound
				}
				return fmt.Errorf("load book: %w", err)
			}
			return ErrNoCopies
		}

		borrow = domain.Borrow{
			ID:         idx.New().String(),
			UserID:     userID,
			BookID:     bookID,
			BorrowDate: time.Now().UTC(),
		}
		if err := tx.Borrows().CreateBorrow(ctx, borrow); err != nil {
			return fmt.Errorf("create borrow: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Borrow{}, err
	}
	return borrow, nil
}

// Return closes an open borrow owned by the requester and gives the copy
// back. A book deleted while the borrow was open does not fail the return;
// the copy count simply cannot be restored.
func (s *CirculationService) Return(ctx context.Context, borrowID, requestingUserID string) (domain.Borrow, error) {
	log := slogx.FromContext(ctx)

	var returned domain.Borrow

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		borrow, err := tx.Borrows().GetBorrowByID(ctx, borrowID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrBorrowNotFound
			}
			return fmt.Errorf("load borrow: %w", err)
		}

		if borrow.UserID != requestingUserID {
			return ErrNotBorrowOwner
		}
		if borrow.Returned() {
			return ErrAlreadyReturned
		}

		now := time.Now().UTC()
		if err := tx.Borrows().MarkReturned(ctx, borrow.ID, now); err != nil {
			return fmt.Errorf("mark returned: %w", err)
		}

		if err := tx.Books().ReturnCopy(ctx, borrow.BookID); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("return copy: %w", err)
			}
			log.Warn("returned borrow references a deleted book; copy count not restored",
				"borrow_id", borrow.ID,
				"book_id", borrow.BookID,
			)
		}

		borrow.ReturnDate = &now
		returned = borrow
		return nil
	})
	if err != nil {
		return domain.Borrow{}, err
	}
	return returned, nil
}

// History lists the user's own borrows, newest first.
func (s *CirculationService) History(ctx context.Context, userID string) ([]domain.BorrowDetail, error) {
	history, err := s.Store.Borrows().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list borrows: %w", err)
	}
	return history, nil
}

// MostBorrowed reports the ten most borrowed books.
func (s *CirculationService) MostBorrowed(ctx context.Context) ([]domain.BookBorrowCount, error) {
	report, err := s.Store.Borrows().MostBorrowedBooks(ctx, reportLimit)
	if err != nil {
		return nil, fmt.Errorf("most borrowed: %w", err)
	}
	return report, nil
}

// ActiveMembers reports the ten members with the most borrows.
func (s *CirculationService) ActiveMembers(ctx context.Context) ([]domain.MemberBorrowCount, error) {
	report, err := s.Store.Borrows().MostActiveMembers(ctx, reportLimit)
	if err != nil {
		return nil, fmt.Errorf("active members: %w", err)
	}
	return report, nil
}
