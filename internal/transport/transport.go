package transport

import (
	"context"

	"github.com/bizhub/portal-client/internal/models"
)

// Transport is the network boundary consumed by the session manager and
// the entity services. Implementations classify every failure into one
// of the Kind values in errors.go so callers can branch on errors.As
// without knowing the wire protocol.
type Transport interface {
	SignIn(ctx context.Context, creds models.Credentials) (models.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (models.TokenPair, error)
	Me(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context) error
	CreateAccount(ctx context.Context, signup models.Signup) error

	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	UpdateUser(ctx context.Context, id string, u models.User) (models.User, error)
	DeleteUser(ctx context.Context, id string) error

	ListPartners(ctx context.Context) ([]models.Partner, error)
	CreatePartner(ctx context.Context, p models.Partner) (models.Partner, error)
	UpdatePartner(ctx context.Context, id string, p models.Partner) (models.Partner, error)
	DeletePartner(ctx context.Context, id string) error
}
