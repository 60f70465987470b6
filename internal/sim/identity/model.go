package identity

import "time"

// User represents a registered borrower or reviewer account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Credentials carry a signup or login request.
type Credentials struct {
	Name     string
	Email    string
	Password string
}
