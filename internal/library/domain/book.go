package domain

import "time"

type Book struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	ISBN            *string    `json:"isbn,omitempty"`
	PublicationDate *time.Time `json:"publicationDate,omitempty"`
	Genre           *string    `json:"genre,omitempty"`
	TotalCopies     int64      `json:"totalCopies"`
	AvailableCopies int64      `json:"availableCopies"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// BookFilter narrows catalog listings. Genre matches exactly; Author and
// Title are case-insensitive substring matches.
type BookFilter struct {
	Genre  string
	Author string
	Title  string
	Page   int
	Limit  int
}

// MaxPageSize caps the list page size regardless of what the client asks for.
const MaxPageSize = 100

// Normalize clamps pagination to sane bounds.
func (f BookFilter) Normalize() BookFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	return f
}

// Offset returns the row offset for the normalized page.
func (f BookFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// AvailabilityReport is the catalog-wide copy-count aggregate.
type AvailabilityReport struct {
	TotalBooks     int64 `json:"totalBooks"`
	AvailableBooks int64 `json:"availableBooks"`
	BorrowedBooks  int64 `json:"borrowedBooks"`
}
