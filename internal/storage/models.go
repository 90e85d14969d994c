package storage

import (
	"time"
)

// User is an account known to the local identity provider.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"password_hash"`
	IsDoctor     bool      `json:"is_doctor"`
	Practice     string    `json:"practice,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthSession is the provider's own record of who is signed in.
type AuthSession struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	SignedInAt time.Time `json:"signed_in_at"`
}
