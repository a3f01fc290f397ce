package domain

import "time"

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Redacted returns a copy safe to attach to request contexts and responses.
// The password hash never leaves the auth path.
func (u User) Redacted() User {
	u.PasswordHash = ""
	return u
}
