package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storegate/pkg/config"
)

const testSecret = "storegate-test-secret"

func signSession(t *testing.T, mutate func(b *jwt.Builder)) string {
	t.Helper()
	b := jwt.NewBuilder().
		Issuer("storegate-test").
		Subject("user-1").
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour))
	if mutate != nil {
		mutate(b)
	}
	tok, err := b.Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(testSecret)))
	require.NoError(t, err)
	return string(signed)
}

func newHS256Validator() *Validator {
	return NewValidator(config.Config{
		SessionCookie: "session",
		SessionSecret: testSecret,
		SessionIssuer: "storegate-test",
	})
}

func reqWithCookie(value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if value != "" {
		r.AddCookie(&http.Cookie{Name: "session", Value: value})
	}
	return r
}

func TestValidateOK(t *testing.T) {
	v := newHS256Validator()
	tok, err := v.Validate(context.Background(), reqWithCookie(signSession(t, nil)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", tok.Subject())
}

func TestValidateMissingCookie(t *testing.T) {
	v := newHS256Validator()
	_, err := v.Validate(context.Background(), reqWithCookie(""))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestValidateGarbageToken(t *testing.T) {
	v := newHS256Validator()
	_, err := v.Validate(context.Background(), reqWithCookie("not-a-jwt"))
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestValidateExpiredToken(t *testing.T) {
	v := newHS256Validator()
	expired := signSession(t, func(b *jwt.Builder) {
		b.Expiration(time.Now().Add(-time.Hour))
	})
	_, err := v.Validate(context.Background(), reqWithCookie(expired))
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestValidateWrongIssuer(t *testing.T) {
	v := newHS256Validator()
	other := signSession(t, func(b *jwt.Builder) {
		b.Issuer("someone-else")
	})
	_, err := v.Validate(context.Background(), reqWithCookie(other))
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestValidateUnconfigured(t *testing.T) {
	v := NewValidator(config.Config{SessionCookie: "session"})
	_, err := v.Validate(context.Background(), reqWithCookie(signSession(t, nil)))
	assert.ErrorIs(t, err, ErrInvalidSession)
}
