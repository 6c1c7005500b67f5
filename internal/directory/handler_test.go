package directory

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storegate/pkg/tenants"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	t.Setenv("TENANT_SEED_JSON", `[
	  {"id":"00000000-0000-0000-0000-000000000001","slug":"acme","name":"Acme Store","custom_domains":["acme-shop.com"]}
	]`)
	log := zap.NewNop().Sugar()
	h := NewHandler(log, tenants.NewMemoryProviderFromEnv(log), nil, []string{"platform.app"})
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func decodeRecord(t *testing.T, resp *http.Response) tenants.TenantRecord {
	t.Helper()
	defer resp.Body.Close()
	var rec tenants.TenantRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	return rec
}

func TestResolveBySubdomain(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/tenants/resolve?subdomain=acme&domain=acme.platform.app")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rec := decodeRecord(t, resp)
	assert.Equal(t, "acme", rec.Slug)
	assert.Equal(t, "Acme Store", rec.DisplayName)
}

func TestResolveByCustomDomain(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/tenants/resolve?domain=acme-shop.com")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "acme", decodeRecord(t, resp).Slug)
}

func TestResolveNotFound(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/tenants/resolve?subdomain=ghost&domain=ghost.platform.app")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
}

func TestResolveMissingQuery(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/tenants/resolve")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateAndResolve(t *testing.T) {
	srv := newTestServer(t)
	body := bytes.NewBufferString(`{"slug":"globex","name":"Globex"}`)
	resp, err := http.Post(srv.URL+"/v1/tenants", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/tenants/resolve?subdomain=globex&domain=globex.platform.app")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "globex", decodeRecord(t, resp).Slug)
}

func TestCreateRejectsReservedSlug(t *testing.T) {
	srv := newTestServer(t)
	for _, slug := range []string{"www", "api", "admin"} {
		body := bytes.NewBufferString(`{"slug":"` + slug + `","name":"x"}`)
		resp, err := http.Post(srv.URL+"/v1/tenants", "application/json", body)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, slug)
	}
}

func TestCreateRejectsInvalidSlug(t *testing.T) {
	srv := newTestServer(t)
	for _, slug := range []string{"", "UPPER", "has space", "-leading", "trailing-"} {
		raw, _ := json.Marshal(map[string]string{"slug": slug, "name": "x"})
		resp, err := http.Post(srv.URL+"/v1/tenants", "application/json", bytes.NewReader(raw))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "slug %q", slug)
	}
}

func TestSetDomains(t *testing.T) {
	srv := newTestServer(t)
	req, _ := http.NewRequest(http.MethodPut,
		srv.URL+"/v1/tenants/00000000-0000-0000-0000-000000000001/domains",
		bytes.NewBufferString(`{"custom_domains":["Acme-New.com:443"]}`))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tnt tenants.Tenant
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tnt))
	assert.Equal(t, []string{"acme-new.com"}, tnt.CustomDomains, "domains are normalized")

	resp2, err := http.Get(srv.URL + "/v1/tenants/resolve?domain=acme-new.com")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	resp2.Body.Close()
}

func TestDeleteTenant(t *testing.T) {
	srv := newTestServer(t)
	req, _ := http.NewRequest(http.MethodDelete,
		srv.URL+"/v1/tenants/00000000-0000-0000-0000-000000000001", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/tenants/resolve?subdomain=acme&domain=acme.platform.app")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
