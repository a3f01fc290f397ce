package domain

import "time"

// Borrow is one ledger entry binding a user, a book, and the lending
// interval. ReturnDate is nil while the borrow is open; once set the record
// is immutable.
type Borrow struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	BookID     string     `json:"bookId"`
	BorrowDate time.Time  `json:"borrowDate"`
	ReturnDate *time.Time `json:"returnDate,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Returned reports whether the borrow has been closed.
func (b Borrow) Returned() bool {
	return b.ReturnDate != nil
}

// BorrowDetail is a history row with the referenced book's display fields.
// Title and Author are empty when the book has since been deleted.
type BorrowDetail struct {
	Borrow

	BookTitle  string `json:"bookTitle"`
	BookAuthor string `json:"bookAuthor"`
}

// BookBorrowCount is one row of the most-borrowed report.
type BookBorrowCount struct {
	BookID      string `json:"bookId"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	BorrowCount int64  `json:"borrowCount"`
}

// MemberBorrowCount is one row of the active-members report.
type MemberBorrowCount struct {
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	BorrowCount int64  `json:"borrowCount"`
}
