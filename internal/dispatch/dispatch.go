// internal/dispatch/dispatch.go
package dispatch

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"

	"storegate/internal/metrics"
	"storegate/pkg/hostname"
	"storegate/pkg/routes"
	"storegate/pkg/tenantcache"
	"storegate/pkg/tenants"
)

// Tenant identity headers attached to rewritten requests. Edge-owned:
// inbound values are always stripped before dispatch.
const (
	HeaderTenantID   = "X-Tenant-ID"
	HeaderTenantSlug = "X-Tenant-Slug"
	HeaderTenantName = "X-Tenant-Name"
)

// Action is a terminal state of the dispatch state machine.
type Action string

const (
	ActionPassThrough     Action = "pass_through"
	ActionRedirectLogin   Action = "redirect_login"
	ActionRewriteTenant   Action = "rewrite_tenant"
	ActionRewriteNotFound Action = "rewrite_not_found"
)

// Decision is the dispatcher's verdict for one request.
type Decision struct {
	Action   Action
	Path     string // rewrite target for ActionRewrite*
	Location string // redirect target for ActionRedirectLogin
	Tenant   tenants.TenantRecord
}

// Directory resolves a hostname to a tenant, bounded by the lookup timeout.
type Directory interface {
	Lookup(ctx context.Context, candidateKey, host string) (rec tenants.TenantRecord, found, definitive bool, err error)
}

// SessionValidator checks the session credential on a request.
type SessionValidator interface {
	Validate(ctx context.Context, r *http.Request) (jwt.Token, error)
}

// Deps are the dispatcher's collaborators.
type Deps struct {
	Log        *zap.SugaredLogger
	Classifier *routes.Classifier
	Resolver   *hostname.Resolver
	Cache      *tenantcache.Cache
	Directory  Directory
	Sessions   SessionValidator
	Metrics    *metrics.EdgeMetrics

	LoginPath    string
	NotFoundPath string
}

// Dispatcher runs the per-request routing state machine:
//
//	classify → auth gate → skip → resolve host → cache/lookup → rewrite
//
// Auth gating runs before tenant routing; a protected path on a tenant
// subdomain must redirect to login, never be rewritten into a storefront
// route. Every terminal is bounded: the only I/O on the path is the directory
// lookup (client timeout) and session validation (local, JWKS fetch bounded).
type Dispatcher struct {
	deps Deps
}

func New(deps Deps) *Dispatcher {
	return &Dispatcher{deps: deps}
}

// Decide computes the terminal action for a request without touching the
// response. Split from Middleware so the state machine is testable as data.
func (d *Dispatcher) Decide(r *http.Request) Decision {
	ctx := r.Context()
	cl := d.deps.Classifier.Classify(r.URL.Path)

	if cl.RequiresAuth {
		if _, err := d.deps.Sessions.Validate(ctx, r); err != nil {
			return Decision{
				Action:   ActionRedirectLogin,
				Location: d.deps.LoginPath + "?callbackUrl=" + url.QueryEscape(r.URL.RequestURI()),
			}
		}
	}
	if cl.SkipTenantRouting {
		return Decision{Action: ActionPassThrough}
	}

	res := d.deps.Resolver.Resolve(r.Host)
	if res.PlatformHost && res.CandidateKey == "" {
		// Root platform host serves the marketing site.
		return Decision{Action: ActionPassThrough}
	}

	key := hostname.Normalize(r.Host)
	outcome, ok := d.deps.Cache.Get(key)
	if ok {
		d.deps.Metrics.CacheHits.Inc()
	} else {
		d.deps.Metrics.CacheMisses.Inc()
		outcome = d.lookup(ctx, res.CandidateKey, key)
	}

	if !outcome.Found {
		return Decision{Action: ActionRewriteNotFound, Path: d.deps.NotFoundPath}
	}
	return Decision{
		Action: ActionRewriteTenant,
		Path:   storePath(outcome.Tenant.Slug, r.URL.Path),
		Tenant: outcome.Tenant,
	}
}

// lookup consults the directory and applies the caching policy: both Found
// and definitive NotFound outcomes are cached for the full TTL, but a
// transient failure (timeout, transport error, 5xx) is served as not-found
// for this request only, so a network blip can't poison the cache.
func (d *Dispatcher) lookup(ctx context.Context, candidateKey, key string) tenantcache.Outcome {
	start := time.Now()
	rec, found, definitive, err := d.deps.Directory.Lookup(ctx, candidateKey, key)
	d.deps.Metrics.LookupSeconds.Observe(time.Since(start).Seconds())

	outcome := tenantcache.Outcome{Tenant: rec, Found: found}
	switch {
	case err != nil:
		d.deps.Metrics.LookupErrors.WithLabelValues("transport").Inc()
		d.deps.Log.Warnw("tenant lookup degraded to not-found", "host", key, "err", err)
	case !definitive:
		d.deps.Metrics.LookupErrors.WithLabelValues("status").Inc()
	default:
		d.deps.Cache.Set(key, outcome)
	}
	return outcome
}

// Middleware applies the decision: redirect, rewrite the URL in place and
// attach tenant identity headers, or pass the request through untouched.
func (d *Dispatcher) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Header.Del(HeaderTenantID)
			r.Header.Del(HeaderTenantSlug)
			r.Header.Del(HeaderTenantName)

			dec := d.Decide(r)
			d.deps.Metrics.Dispatches.WithLabelValues(string(dec.Action)).Inc()
			d.deps.Log.Debugw("dispatch", "host", r.Host, "path", r.URL.Path, "action", dec.Action)

			switch dec.Action {
			case ActionRedirectLogin:
				http.Redirect(w, r, dec.Location, http.StatusTemporaryRedirect)
			case ActionRewriteTenant:
				r.URL.Path = dec.Path
				r.URL.RawPath = ""
				r.Header.Set(HeaderTenantID, dec.Tenant.ID)
				r.Header.Set(HeaderTenantSlug, dec.Tenant.Slug)
				r.Header.Set(HeaderTenantName, dec.Tenant.DisplayName)
				next.ServeHTTP(w, r)
			case ActionRewriteNotFound:
				// Rewrite, not redirect: the browser keeps the original
				// (possibly typo'd) hostname.
				r.URL.Path = dec.Path
				r.URL.RawPath = ""
				next.ServeHTTP(w, r)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func storePath(slug, path string) string {
	if path == "/" || path == "" {
		return "/store/" + slug
	}
	return "/store/" + slug + path
}
