package models

import "time"

// User represents a portal account as returned by the backend.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	TenantID  string    `json:"tenantId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Credentials is the password-grant sign-in payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup is the create-account payload; the portal signs the new
// account in immediately after creation.
type Signup struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}
