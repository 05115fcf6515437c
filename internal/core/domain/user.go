package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRole reports whether role is one the system issues tokens for.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// User models an account held by the credential store.
type User struct {
	ID           string    `json:"id,omitempty"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AuthContext is the verified identity attached to a single request.
type AuthContext struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}
