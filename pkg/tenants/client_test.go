package tenants

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *DirectoryClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewDirectoryClient(srv.URL+"/v1/tenants/resolve", timeout, zap.NewNop().Sugar())
}

func TestLookupFound(t *testing.T) {
	var gotSub, gotDomain string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotSub = r.URL.Query().Get("subdomain")
		gotDomain = r.URL.Query().Get("domain")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"t-1","slug":"acme","name":"Acme Store"}`))
	}, time.Second)

	rec, found, definitive, err := c.Lookup(context.Background(), "acme", "acme.platform.app")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, definitive)
	assert.Equal(t, TenantRecord{ID: "t-1", Slug: "acme", DisplayName: "Acme Store"}, rec)
	assert.Equal(t, "acme", gotSub)
	assert.Equal(t, "acme.platform.app", gotDomain)
}

func TestLookupCustomDomainOmitsSubdomain(t *testing.T) {
	var hasSub bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hasSub = r.URL.Query().Has("subdomain")
		http.NotFound(w, r)
	}, time.Second)

	_, found, definitive, err := c.Lookup(context.Background(), "", "customvendor.com")
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, definitive)
	assert.False(t, hasSub)
}

func TestLookupNotFoundIsDefinitive(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}, time.Second)

	_, found, definitive, err := c.Lookup(context.Background(), "ghost", "ghost.platform.app")
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, definitive)
}

func TestLookupServerErrorIsNotDefinitive(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, time.Second)

	_, found, definitive, err := c.Lookup(context.Background(), "acme", "acme.platform.app")
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, definitive)
}

func TestLookupTimeoutBound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}, 50*time.Millisecond)

	start := time.Now()
	_, found, definitive, err := c.Lookup(context.Background(), "slow", "slow.platform.app")
	elapsed := time.Since(start)

	assert.Error(t, err)
	assert.False(t, found)
	assert.False(t, definitive)
	// Must abort at the timeout, not wait for the server.
	assert.Less(t, elapsed, 400*time.Millisecond)
}
