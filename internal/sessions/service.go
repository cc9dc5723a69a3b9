package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Service wraps repository operations with refresh-grant logic
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

// Issue stores a new refresh session and returns the refresh token
func (s *Service) Issue(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	sess := &RefreshSession{
		Token:     token,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return "", err
	}
	return token, nil
}

// Validate returns the session if the refresh token is valid and not expired
func (s *Service) Validate(ctx context.Context, token string) (*RefreshSession, error) {
	sess, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	if time.Now().UTC().After(sess.ExpiresAt) {
		_ = s.repo.DeleteByToken(ctx, token)
		return nil, nil
	}
	return sess, nil
}

// Rotate exchanges a valid refresh token for a fresh one; the old
// grant is deleted first so a replay of it fails. Returns the session
// holder and the new token, or (nil, "") when the old token is unknown
// or expired.
func (s *Service) Rotate(ctx context.Context, oldToken string, ttl time.Duration) (*RefreshSession, string, error) {
	sess, err := s.Validate(ctx, oldToken)
	if err != nil {
		return nil, "", err
	}
	if sess == nil {
		return nil, "", nil
	}
	if err := s.repo.DeleteByToken(ctx, oldToken); err != nil {
		return nil, "", err
	}
	token, err := s.Issue(ctx, sess.UserID, ttl)
	if err != nil {
		return nil, "", err
	}
	return sess, token, nil
}

// Delete removes a refresh grant, used at logout.
func (s *Service) Delete(ctx context.Context, token string) error {
	return s.repo.DeleteByToken(ctx, token)
}
