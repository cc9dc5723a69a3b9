package session

import "github.com/bizhub/portal-client/internal/models"

// Status is the externally visible authentication state.
type Status int

const (
	// StatusUninitialized holds only before Bootstrap has run once.
	StatusUninitialized Status = iota
	// StatusRestoring is set while Bootstrap validates persisted tokens.
	StatusRestoring
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusRestoring:
		return "restoring"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Session is a point-in-time copy of the authentication state.
// Status is StatusAuthenticated iff both tokens are present and the
// last sign-in or refresh succeeded; User is only trusted then, and
// may legitimately be nil even when authenticated (a failed profile
// fetch does not invalidate the tokens).
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
	Status       Status
}

// IsAuthenticated reports whether the session holds a validated pair.
func (s Session) IsAuthenticated() bool { return s.Status == StatusAuthenticated }
