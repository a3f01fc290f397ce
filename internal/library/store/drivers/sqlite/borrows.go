package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/openshelf/openshelf/internal/library/domain"
)

type borrowsRepo struct {
	db dbtx
}

func (r *borrowsRepo) CreateBorrow(ctx context.Context, b domain.Borrow) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO borrows (id, user_id, book_id, borrow_date, return_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.BookID, b.BorrowDate.UTC(), mapOptionalTime(b.ReturnDate), now, now,
	)
	return err
}

func (r *borrowsRepo) GetBorrowByID(ctx context.Context, id string) (domain.Borrow, error) {
	var (
		b          domain.Borrow
		returnDate sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, book_id, borrow_date, return_date, created_at, updated_at
		 FROM borrows WHERE id = ?`, id,
	).Scan(&b.ID, &b.UserID, &b.BookID, &b.BorrowDate, &returnDate, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return domain.Borrow{}, mapNotFound(err)
	}
	b.ReturnDate = mapNullTime(returnDate)
	return b, nil
}

func (r *borrowsRepo) MarkReturned(ctx context.Context, id string, returnedAt time.Time) error {
	// The return_date IS NULL guard makes the borrowed -> returned transition
	// happen exactly once, regardless of concurrent return attempts.
	res, err := r.db.ExecContext(ctx,
		`UPDATE borrows SET return_date = ?, updated_at = ?
		 WHERE id = ? AND return_date IS NULL`,
		returnedAt.UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *borrowsRepo) ListByUser(ctx context.Context, userID string) ([]domain.BorrowDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.user_id, b.book_id, b.borrow_date, b.return_date,
		        b.created_at, b.updated_at,
		        COALESCE(bk.title, ''), COALESCE(bk.author, '')
		 FROM borrows b
		 LEFT JOIN books bk ON bk.id = b.book_id
		 WHERE b.user_id = ?
		 ORDER BY b.borrow_date DESC, b.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []domain.BorrowDetail{}
	for rows.Next() {
		var (
			d          domain.BorrowDetail
			returnDate sql.NullTime
		)
		err := rows.Scan(
			&d.ID, &d.UserID, &d.BookID, &d.BorrowDate, &returnDate,
			&d.CreatedAt, &d.UpdatedAt, &d.BookTitle, &d.BookAuthor,
		)
		if err != nil {
			return nil, err
		}
		d.ReturnDate = mapNullTime(returnDate)
		history = append(history, d)
	}
	return history, rows.Err()
}

func (r *borrowsRepo) MostBorrowedBooks(ctx context.Context, limit int) ([]domain.BookBorrowCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.book_id, bk.title, bk.author, COUNT(*) AS borrow_count
		 FROM borrows b
		 JOIN books bk ON bk.id = b.book_id
		 GROUP BY b.book_id, bk.title, bk.author
		 ORDER BY borrow_count DESC, bk.title ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report := []domain.BookBorrowCount{}
	for rows.Next() {
		var row domain.BookBorrowCount
		if err := rows.Scan(&row.BookID, &row.Title, &row.Author, &row.BorrowCount); err != nil {
			return nil, err
		}
		report = append(report, row)
	}
	return report, rows.Err()
}

func (r *borrowsRepo) MostActiveMembers(ctx context.Context, limit int) ([]domain.MemberBorrowCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.user_id, u.name, u.email, COUNT(*) AS borrow_count
		 FROM borrows b
		 JOIN users u ON u.id = b.user_id
		 GROUP BY b.user_id, u.name, u.email
		 ORDER BY borrow_count DESC, u.name ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report := []domain.MemberBorrowCount{}
	for rows.Next() {
		var row domain.MemberBorrowCount
		if err := rows.Scan(&row.UserID, &row.Name, &row.Email, &row.BorrowCount); err != nil {
			return nil, err
		}
		report = append(report, row)
	}
	return report, rows.Err()
}
