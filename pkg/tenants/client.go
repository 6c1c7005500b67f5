// pkg/tenants/client.go
package tenants

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DirectoryClient resolves hostnames against the tenant-directory service
// over HTTP. Every call is bounded by the configured timeout; the edge never
// talks to the store of record directly.
type DirectoryClient struct {
	baseURL string
	httpc   *http.Client
	log     *zap.SugaredLogger
}

// NewDirectoryClient builds a client for the resolve endpoint. timeout is a
// hard bound on the whole call (dial, TLS, response).
func NewDirectoryClient(baseURL string, timeout time.Duration, log *zap.SugaredLogger) *DirectoryClient {
	return &DirectoryClient{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Lookup queries the directory with both the subdomain candidate (if any) and
// the raw hostname; the directory tries subdomain-match OR custom-domain-match
// and returns at most one tenant.
//
// definitive reports whether the miss is authoritative: a 404 (or a success
// with no body) means the tenant does not exist and may be negative-cached; a
// timeout, transport error, or 5xx means we simply don't know, and the caller
// must not poison the cache with it. Lookup never panics past this boundary.
func (c *DirectoryClient) Lookup(ctx context.Context, candidateKey, host string) (rec TenantRecord, found, definitive bool, err error) {
	q := url.Values{}
	if candidateKey != "" {
		q.Set("subdomain", candidateKey)
	}
	q.Set("domain", host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return TenantRecord{}, false, false, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Warnw("tenant lookup failed", "host", host, "err", err)
		return TenantRecord{}, false, false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return TenantRecord{}, false, true, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
			c.log.Warnw("tenant lookup decode failed", "host", host, "err", err)
			return TenantRecord{}, false, false, err
		}
		if rec.Slug == "" {
			return TenantRecord{}, false, true, nil
		}
		return rec, true, true, nil
	default:
		c.log.Warnw("tenant lookup non-success", "host", host, "status", resp.StatusCode)
		return TenantRecord{}, false, false, nil
	}
}
