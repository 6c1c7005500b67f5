package tenants

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no tenant matches the given key. Callers treat
// it as a routing outcome, not a failure.
var ErrNotFound = errors.New("tenant not found")

// Provider is the directory service's storage contract.
type Provider interface {
	// Resolve tries a subdomain match (when subdomain != "") and then a
	// custom-domain match on the full hostname, returning at most one tenant.
	Resolve(ctx context.Context, subdomain, domain string) (Tenant, error)

	GetByID(ctx context.Context, id string) (Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	Create(ctx context.Context, t Tenant) (Tenant, error)
	// SetDomains replaces the tenant's custom domain list.
	SetDomains(ctx context.Context, id string, domains []string) (Tenant, error)
	Delete(ctx context.Context, id string) (Tenant, error)
}
