package users

import "time"

// User represents a staff account for management. Technicians are
// regular users referenced from device assignments.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUserInput carries fields for creating a user.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	IsActive bool
}

// UpdateUserInput carries fields for updating a user.
type UpdateUserInput struct {
	Name     string
	IsActive bool
}
