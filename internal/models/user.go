package models

import "time"

// User is the account holder. The ledger core only ever references it by id;
// registration and authentication own the rest of the fields.
type User struct {
	ID        string    `json:"id" example:"c1f0e8a2-5a93-4a1e-9c40-0a5b2f9d8e11"` // User ID
	Name      string    `json:"name" example:"John Doe"`                           // Display name
	Email     string    `json:"email" example:"user@example.com"`                  // Login email, unique
	Password  string    `json:"-"`                                                 // Argon2id hash, never serialized
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
