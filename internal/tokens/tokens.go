package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/bizhub/portal-client/internal/models"
)

// GenerateAccessToken creates a signed HS256 JWT access token for the user
func GenerateAccessToken(secret string, u *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      u.ID,
		"username": u.Username,
		"email":    u.Email,
		"name":     u.Name,
		"role":     u.Role,
		"tenant":   u.TenantID,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(secret))
}

// Verify parses and validates a token and returns its claims.
func Verify(secret, raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "tokens: verify")
	}
	if !tok.Valid {
		return nil, errors.New("tokens: invalid token")
	}
	return claims, nil
}
