package sessions

import "time"

// RefreshSession is one server-side refresh grant. The token value is
// the opaque string handed to the client; rotation deletes the old
// grant and issues a fresh one.
type RefreshSession struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
