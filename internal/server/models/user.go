package models

import "time"

// User is a store account. Every synced row belongs to exactly one user.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	DisplayName  string
	StoreName    string
	CreatedAt    time.Time
}
