package models

import "time"

// Partner is a business partner managed from the admin tables.
type Partner struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Grade     string    `json:"grade"`
	Contact   string    `json:"contact"`
	TenantID  string    `json:"tenantId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TokenPair is the access/refresh pair issued at sign-in and rotated
// on every refresh. Both tokens are opaque to the client; validity is
// only ever judged by the server.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
