package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/openshelf/openshelf/internal/library/domain"
	"github.com/openshelf/openshelf/internal/library/store"
)

type booksRepo struct {
	db dbtx
}

const bookColumns = `id, title, author, isbn, publication_date, genre,
	total_copies, available_copies, created_at, updated_at`

func (r *booksRepo) CreateBook(ctx context.Context, b domain.Book) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO books (id, title, author, isbn, publication_date, genre,
		                    total_copies, available_copies, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, b.Author,
		mapOptionalString(b.ISBN), mapOptionalTime(b.PublicationDate), mapOptionalString(b.Genre),
		b.TotalCopies, b.AvailableCopies, now, now,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *booksRepo) GetBookByID(ctx context.Context, id string) (domain.Book, error) {
	b, err := scanBook(r.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, id))
	if err != nil {
		return domain.Book{}, mapNotFound(err)
	}
	return b, nil
}

func (r *booksRepo) UpdateBook(ctx context.Context, b domain.Book) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE books
		 SET title = ?, author = ?, isbn = ?, publication_date = ?, genre = ?,
		     total_copies = ?, available_copies = ?, updated_at = ?
		 WHERE id = ?`,
		b.Title, b.Author,
		mapOptionalString(b.ISBN), mapOptionalTime(b.PublicationDate), mapOptionalString(b.Genre),
		b.TotalCopies, b.AvailableCopies, time.Now().UTC(), b.ID,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *booksRepo) DeleteBook(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// bookFilterClause builds the WHERE fragment and args shared by ListBooks and
// CountBooks. LIKE is case-insensitive for ASCII in sqlite, which matches the
// catalog's case-insensitive substring contract.
func bookFilterClause(f domain.BookFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Genre != "" {
		conds = append(conds, "genre = ?")
		args = append(args, f.Genre)
	}
	if f.Author != "" {
		conds = append(conds, "author LIKE '%' || ? || '%'")
		args = append(args, f.Author)
	}
	if f.Title != "" {
		conds = append(conds, "title LIKE '%' || ? || '%'")
		args = append(args, f.Title)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *booksRepo) ListBooks(ctx context.Context, f domain.BookFilter) ([]domain.Book, error) {
	f = f.Normalize()
	where, args := bookFilterClause(f)
	args = append(args, f.Limit, f.Offset())

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books`+where+
			` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []domain.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (r *booksRepo) CountBooks(ctx context.Context, f domain.BookFilter) (int64, error) {
	where, args := bookFilterClause(f)

	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`+where, args...).Scan(&total)
	return total, err
}

func (r *booksRepo) TakeCopy(ctx context.Context, id string) (bool, error) {
	// Conditional decrement: the availability check and the write are one
	// statement, so two concurrent borrows cannot both take the last copy.
	res, err := r.db.ExecContext(ctx,
		`UPDATE books
		 SET available_copies = available_copies - 1, updated_at = ?
		 WHERE id = ? AND available_copies > 0`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *booksRepo) ReturnCopy(ctx context.Context, id string) error {
	// Capped at total_copies so a return can never push availability above
	// the shelf count, even if totals were edited while the borrow was open.
	res, err := r.db.ExecContext(ctx,
		`UPDATE books
		 SET available_copies = MIN(total_copies, available_copies + 1), updated_at = ?
		 WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *booksRepo) AvailabilitySummary(ctx context.Context) (domain.AvailabilityReport, error) {
	var report domain.AvailabilityReport
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_copies), 0), COALESCE(SUM(available_copies), 0) FROM books`,
	).Scan(&report.TotalBooks, &report.AvailableBooks)
	if err != nil {
		return domain.AvailabilityReport{}, err
	}
	report.BorrowedBooks = report.TotalBooks - report.AvailableBooks
	return report, nil
}
