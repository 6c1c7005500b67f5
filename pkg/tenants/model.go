package tenants

import "time"

// TenantRecord is the resolved identity of a store as the routing layer sees
// it. Read-only at the edge; the directory service is the source of truth.
type TenantRecord struct {
	ID          string `json:"id"`   // opaque stable identifier (uuid)
	Slug        string `json:"slug"` // routing key, unique, immutable once assigned
	DisplayName string `json:"name"` // for UI and headers only
}

// Tenant is the directory-side record: routing identity plus the custom
// domains attached to the store. The slug doubles as the platform subdomain.
type Tenant struct {
	TenantRecord
	CustomDomains []string  `json:"custom_domains"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Hosts returns every hostname key the tenant can be reached under, used to
// fan out cache invalidation when domain settings change.
func (t Tenant) Hosts(platformDomains []string) []string {
	var hosts []string
	for _, d := range platformDomains {
		hosts = append(hosts, t.Slug+"."+d)
	}
	hosts = append(hosts, t.Slug+".localhost")
	hosts = append(hosts, t.CustomDomains...)
	return hosts
}
