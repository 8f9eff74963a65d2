package models

import "time"

// User is an account of any role. Accounts are deactivated, never deleted.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is what a verified credential resolves to
type Identity struct {
	ID   int64  `json:"id"`
	Role Role   `json:"role"`
	Name string `json:"name"`
}

// Identity returns the credential view of the user
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Role: u.Role, Name: u.Name}
}
