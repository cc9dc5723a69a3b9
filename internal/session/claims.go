package session

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// DisplayClaims are fields peeked from the access token payload for
// display purposes only. The payload is decoded without signature
// verification: the client never judges token validity itself, that is
// the server's job via refresh. Do not authorize anything on these.
type DisplayClaims struct {
	Subject  string
	Username string
	TenantID string
	Role     string
}

// PeekClaims decodes the unverified payload of a JWT access token.
// Opaque (non-JWT) tokens return an error; callers fall back to the
// fetched profile.
func PeekClaims(raw string) (DisplayClaims, error) {
	var claims jwt.MapClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return DisplayClaims{}, errors.Wrap(err, "session: peek claims")
	}

	dc := DisplayClaims{}
	if sub, err := claims.GetSubject(); err == nil {
		dc.Subject = sub
	}
	if v, ok := claims["username"].(string); ok {
		dc.Username = v
	}
	if v, ok := claims["tenant"].(string); ok {
		dc.TenantID = v
	}
	if v, ok := claims["role"].(string); ok {
		dc.Role = v
	}
	return dc, nil
}
