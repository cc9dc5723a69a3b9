package resthttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/bizhub/portal-client/internal/models"
	"github.com/bizhub/portal-client/internal/transport"
)

// TokenSource supplies the bearer token for authenticated calls; the
// session manager implements it.
type TokenSource interface {
	AccessToken() string
}

// Client implements transport.Transport against the portal REST API.
// Every failure is classified into a transport.Error kind: connection
// problems and 5xx are network errors, 400/422 are validation with the
// server's message verbatim, 401 is credentials at sign-in and an
// invalid token everywhere else.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying http.Client; the caller
// typically passes one sharing the cookie backend's jar so the cookie
// copy of the token travels with every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the request timeout on the default client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ transport.Transport = (*Client)(nil)

type errorBody struct {
	Error string `json:"error"`
}

// do performs one JSON round-trip. out may be nil for empty responses.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool, credentialOn401 bool) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return transport.NewError(transport.KindNetwork, "", errors.Wrap(err, "resthttp: encode request"))
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return transport.NewError(transport.KindNetwork, "", errors.Wrap(err, "resthttp: build request"))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		if tok := c.tokens.AccessToken(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transport.NewError(transport.KindNetwork, "", errors.Wrap(err, "resthttp: "+method+" "+path))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return transport.NewError(transport.KindNetwork, "", errors.Wrap(err, "resthttp: decode response"))
		}
		return nil
	}

	msg := serverMessage(resp.Body)
	switch {
	case resp.StatusCode == http.StatusUnauthorized && credentialOn401:
		return transport.NewError(transport.KindCredential, msg, nil)
	case resp.StatusCode == http.StatusUnauthorized:
		return transport.NewError(transport.KindTokenInvalid, msg, nil)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return transport.NewError(transport.KindValidation, msg, nil)
	default:
		if msg == "" {
			msg = fmt.Sprintf("%s %s: unexpected status %d", method, path, resp.StatusCode)
		}
		return transport.NewError(transport.KindNetwork, msg, nil)
	}
}

func serverMessage(r io.Reader) string {
	var eb errorBody
	if err := json.NewDecoder(r).Decode(&eb); err != nil {
		return ""
	}
	return eb.Error
}

func (c *Client) SignIn(ctx context.Context, creds models.Credentials) (models.TokenPair, error) {
	var pair models.TokenPair
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", creds, &pair, false, true)
	return pair, err
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	var pair models.TokenPair
	body := map[string]string{"refreshToken": refreshToken}
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/refresh", body, &pair, false, false)
	return pair, err
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &u, true, false); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Logout(ctx context.Context) error {
	// The refresh grant is left to expire server-side; the caller only
	// needs the best-effort notification and treats failure as non-fatal.
	return c.do(ctx, http.MethodPost, "/api/v1/auth/logout", map[string]string{}, nil, true, false)
}

func (c *Client) CreateAccount(ctx context.Context, signup models.Signup) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/signup", signup, nil, false, false)
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := c.do(ctx, http.MethodGet, "/api/v1/users", nil, &out, true, false)
	return out, err
}

func (c *Client) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodPost, "/api/v1/users", u, &out, true, false)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, id string, u models.User) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodPut, "/api/v1/users/"+id, u, &out, true, false)
	return out, err
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/users/"+id, nil, nil, true, false)
}

func (c *Client) ListPartners(ctx context.Context) ([]models.Partner, error) {
	var out []models.Partner
	err := c.do(ctx, http.MethodGet, "/api/v1/partners", nil, &out, true, false)
	return out, err
}

func (c *Client) CreatePartner(ctx context.Context, p models.Partner) (models.Partner, error) {
	var out models.Partner
	err := c.do(ctx, http.MethodPost, "/api/v1/partners", p, &out, true, false)
	return out, err
}

func (c *Client) UpdatePartner(ctx context.Context, id string, p models.Partner) (models.Partner, error) {
	var out models.Partner
	err := c.do(ctx, http.MethodPut, "/api/v1/partners/"+id, p, &out, true, false)
	return out, err
}

func (c *Client) DeletePartner(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/partners/"+id, nil, nil, true, false)
}
