// pkg/session/validator.go
package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"storegate/pkg/config"
)

var (
	// ErrNoSession means the request carried no session cookie at all.
	ErrNoSession = errors.New("no session")
	// ErrInvalidSession means a cookie was present but failed validation.
	ErrInvalidSession = errors.New("invalid session")
)

// jwksCache caches JWKS sets per URL.
type jwksCache struct {
	mu   sync.RWMutex
	sets map[string]cachedJWKS
}

type cachedJWKS struct {
	set     jwk.Set
	expires time.Time
}

func (c *jwksCache) get(ctx context.Context, url string, ttl time.Duration) (jwk.Set, error) {
	c.mu.RLock()
	if e, ok := c.sets[url]; ok && time.Now().Before(e.expires) {
		c.mu.RUnlock()
		return e.set, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sets == nil {
		c.sets = map[string]cachedJWKS{}
	}
	if e, ok := c.sets[url]; ok && time.Now().Before(e.expires) {
		return e.set, nil
	}
	set, err := jwk.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	c.sets[url] = cachedJWKS{set: set, expires: time.Now().Add(ttl)}
	return set, nil
}

// Validator checks the session cookie on inbound requests. Validation is
// local (signature + claims); the only I/O is the periodic JWKS refresh,
// which is bounded by an explicit timeout so the auth gate can never hang a
// request.
type Validator struct {
	cookieName string
	issuer     string
	jwksURL    string
	secret     []byte // HS256 dev fallback when no JWKS URL is configured
	cache      jwksCache
	jwksTTL    time.Duration
	fetchLimit time.Duration
}

func NewValidator(cfg config.Config) *Validator {
	return &Validator{
		cookieName: cfg.SessionCookie,
		issuer:     cfg.SessionIssuer,
		jwksURL:    cfg.SessionJWKSURL,
		secret:     []byte(cfg.SessionSecret),
		jwksTTL:    6 * time.Hour,
		fetchLimit: 2 * time.Second,
	}
}

// Validate returns the decoded session token, or ErrNoSession /
// ErrInvalidSession. The routing layer only checks validity; it never mutates
// the credential.
func (v *Validator) Validate(ctx context.Context, r *http.Request) (jwt.Token, error) {
	cookie, err := r.Cookie(v.cookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return nil, ErrNoSession
	}

	opts := []jwt.ParseOption{jwt.WithValidate(true)}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	switch {
	case v.jwksURL != "":
		fctx, cancel := context.WithTimeout(ctx, v.fetchLimit)
		defer cancel()
		set, err := v.cache.get(fctx, v.jwksURL, v.jwksTTL)
		if err != nil {
			return nil, ErrInvalidSession
		}
		opts = append(opts, jwt.WithKeySet(set))
	case len(v.secret) > 0:
		opts = append(opts, jwt.WithKey(jwa.HS256, v.secret))
	default:
		// No validator configured: treat every session as invalid rather
		// than letting protected paths through.
		return nil, ErrInvalidSession
	}

	tok, err := jwt.Parse([]byte(cookie.Value), opts...)
	if err != nil {
		return nil, ErrInvalidSession
	}
	return tok, nil
}
