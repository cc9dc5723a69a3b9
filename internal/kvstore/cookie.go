package kvstore

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// CookieBackend mirrors values into an http.CookieJar scoped to the
// portal origin. Any http.Client sharing the jar sends the token with
// its requests, which is the whole point of the second copy: the
// persistent store is authoritative for reads, the cookie exists so
// server-rendered requests can see the token.
type CookieBackend struct {
	jar    http.CookieJar
	origin *url.URL
	now    func() time.Time
}

// NewCookieBackend binds a jar to the portal origin. The origin must
// include scheme and host, e.g. "https://portal.example.com".
func NewCookieBackend(jar http.CookieJar, origin string) (*CookieBackend, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, errors.Wrap(err, "kvstore: parse cookie origin")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("kvstore: cookie origin %q must include scheme and host", origin)
	}
	return &CookieBackend{jar: jar, origin: u, now: time.Now}, nil
}

// Jar exposes the underlying jar so an http.Client can share it.
func (c *CookieBackend) Jar() http.CookieJar { return c.jar }

func (c *CookieBackend) Read(_ context.Context, key string) (string, bool, error) {
	for _, ck := range c.jar.Cookies(c.origin) {
		if ck.Name == key {
			v, err := url.QueryUnescape(ck.Value)
			if err != nil {
				return "", false, errors.Wrapf(err, "kvstore: decode cookie %q", key)
			}
			return v, true, nil
		}
	}
	return "", false, nil
}

func (c *CookieBackend) Write(_ context.Context, key, value string, ttl time.Duration) error {
	ck := &http.Cookie{
		Name:  key,
		Value: url.QueryEscape(value),
		Path:  "/",
	}
	if ttl > 0 {
		ck.Expires = c.now().Add(ttl)
	}
	c.jar.SetCookies(c.origin, []*http.Cookie{ck})
	return nil
}

func (c *CookieBackend) Remove(_ context.Context, key string) error {
	c.jar.SetCookies(c.origin, []*http.Cookie{{
		Name:    key,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: c.now().Add(-time.Hour),
	}})
	return nil
}
