package domain

import "time"

// User represents an authenticated employee account.
type User struct {
	Email     string
	Name      string
	CreatedAt time.Time
}
