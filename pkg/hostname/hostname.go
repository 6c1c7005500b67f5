// pkg/hostname/hostname.go
package hostname

import (
	"strings"
)

// Resolution is the outcome of mapping an inbound Host header to a tenant
// routing key.
//
// CandidateKey is the tenant subdomain label ("" when the host carries none).
// PlatformHost reports whether the host matches a platform domain pattern at
// all; a host with PlatformHost=false and no candidate key is a candidate
// custom domain and must be looked up by its full hostname.
type Resolution struct {
	CandidateKey string
	PlatformHost bool
}

// Labels that can never identify a tenant even when they appear in
// subdomain position.
var reservedLabels = map[string]struct{}{
	"www":   {},
	"api":   {},
	"admin": {},
}

// Resolver classifies hostnames against the configured platform root domains.
// Pure and safe for concurrent use after construction.
type Resolver struct {
	roots        map[string]struct{} // exact platform hosts (roots + generated equivalents)
	rootSuffixes []string            // "." + root, for subdomain matching
}

// NewResolver builds a resolver for the given platform root domains
// (e.g. "platform.app"). For each root it also recognizes the www-prefixed
// form and the ".localhost" / ".vercel.app" equivalents of its first label,
// so dev and preview deployments classify the same way production does.
func NewResolver(platformDomains []string) *Resolver {
	r := &Resolver{roots: map[string]struct{}{}}
	r.roots["localhost"] = struct{}{}
	for _, d := range platformDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		r.roots[d] = struct{}{}
		r.roots["www."+d] = struct{}{}
		if first, _, ok := strings.Cut(d, "."); ok && first != "" {
			r.roots[first+".localhost"] = struct{}{}
			r.roots[first+".vercel.app"] = struct{}{}
		}
		r.rootSuffixes = append(r.rootSuffixes, "."+d)
	}
	return r
}

// Normalize strips the port and lowercases a Host header value. The result is
// the canonical cache key for a hostname.
func Normalize(host string) string {
	if i := strings.LastIndex(host, ":"); i > 0 && !strings.Contains(host[i+1:], "]") {
		host = host[:i]
	}
	return strings.ToLower(strings.TrimSuffix(host, "."))
}

// Resolve maps a raw Host header value to a Resolution.
func (r *Resolver) Resolve(host string) Resolution {
	h := Normalize(host)
	if h == "" {
		return Resolution{PlatformHost: true}
	}

	// Exact platform hosts (roots, www/api/admin forms, dev equivalents).
	if _, ok := r.roots[h]; ok {
		return Resolution{PlatformHost: true}
	}

	// Dev convention: <label>.localhost carries the tenant key directly.
	if label, ok := strings.CutSuffix(h, ".localhost"); ok {
		if label == "" {
			return Resolution{PlatformHost: true}
		}
		if _, reserved := reservedLabels[label]; reserved {
			return Resolution{PlatformHost: true}
		}
		// Nested labels (a.b.localhost) key on the leftmost label.
		first, _, _ := strings.Cut(label, ".")
		return Resolution{CandidateKey: first, PlatformHost: true}
	}

	// Production convention: subdomain of a configured platform root.
	for _, suffix := range r.rootSuffixes {
		sub, ok := strings.CutSuffix(h, suffix)
		if !ok || sub == "" {
			continue
		}
		first, _, _ := strings.Cut(sub, ".")
		if _, reserved := reservedLabels[first]; reserved {
			return Resolution{PlatformHost: true}
		}
		return Resolution{CandidateKey: first, PlatformHost: true}
	}

	// Unknown hostname: candidate custom domain, resolved by full-host lookup.
	return Resolution{}
}
