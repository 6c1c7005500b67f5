// internal/directory/handler.go
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storegate/internal/invalidate"
	"storegate/pkg/hostname"
	"storegate/pkg/problems"
	"storegate/pkg/tenants"
)

// Handler serves the tenant-directory API: the resolve endpoint the edge
// depends on, plus the admin CRUD surface that provisions stores.
type Handler struct {
	log             *zap.SugaredLogger
	prov            tenants.Provider
	rdb             *redis.Client // nil disables invalidation fan-out
	platformDomains []string
}

func NewHandler(log *zap.SugaredLogger, prov tenants.Provider, rdb *redis.Client, platformDomains []string) *Handler {
	return &Handler{log: log, prov: prov, rdb: rdb, platformDomains: platformDomains}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/v1/tenants/resolve", h.resolve)
	r.Get("/v1/tenants", h.list)
	r.Post("/v1/tenants", h.create)
	r.Get("/v1/tenants/{id}", h.get)
	r.Put("/v1/tenants/{id}/domains", h.setDomains)
	r.Delete("/v1/tenants/{id}", h.delete)
}

// resolve is the edge's lookup endpoint: subdomain-match OR custom-domain
// match, at most one result. 404 here is authoritative — the edge negative-
// caches it.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	sub := strings.TrimSpace(r.URL.Query().Get("subdomain"))
	domain := hostname.Normalize(r.URL.Query().Get("domain"))
	if sub == "" && domain == "" {
		problems.Write(w, http.StatusBadRequest, "missing-query", "Missing query", "subdomain or domain is required")
		return
	}
	t, err := h.prov.Resolve(r.Context(), sub, domain)
	if err != nil {
		if errors.Is(err, tenants.ErrNotFound) {
			problems.Write(w, http.StatusNotFound, "tenant-not-found", "Tenant not found", "no store matches this hostname")
			return
		}
		h.log.Errorw("resolve", "subdomain", sub, "domain", domain, "err", err)
		problems.Write(w, http.StatusInternalServerError, "storage-error", "Storage error", "try again")
		return
	}
	writeJSON(w, t.TenantRecord, http.StatusOK)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ts, err := h.prov.List(r.Context())
	if err != nil {
		h.log.Errorw("list tenants", "err", err)
		problems.Write(w, http.StatusInternalServerError, "storage-error", "Storage error", "try again")
		return
	}
	writeJSON(w, ts, http.StatusOK)
}

var slugPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)

// reserved subdomain labels that can never become tenant slugs
var reservedSlugs = map[string]struct{}{"www": {}, "api": {}, "admin": {}}

type createBody struct {
	Slug          string   `json:"slug"`
	Name          string   `json:"name"`
	CustomDomains []string `json:"custom_domains"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var b createBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		problems.Write(w, http.StatusBadRequest, "bad-json", "Bad request", "invalid JSON body")
		return
	}
	b.Slug = strings.ToLower(strings.TrimSpace(b.Slug))
	if !slugPattern.MatchString(b.Slug) {
		problems.Write(w, http.StatusUnprocessableEntity, "invalid-slug", "Invalid slug", "slug must be lowercase letters, digits and hyphens")
		return
	}
	if _, ok := reservedSlugs[b.Slug]; ok {
		problems.Write(w, http.StatusUnprocessableEntity, "reserved-slug", "Reserved slug", "this slug is reserved by the platform")
		return
	}
	t, err := h.prov.Create(r.Context(), tenants.Tenant{
		TenantRecord:  tenants.TenantRecord{Slug: b.Slug, DisplayName: b.Name},
		CustomDomains: b.CustomDomains,
	})
	if err != nil {
		h.log.Errorw("create tenant", "slug", b.Slug, "err", err)
		problems.Write(w, http.StatusConflict, "create-failed", "Create failed", "slug may already be taken")
		return
	}
	writeJSON(w, t, http.StatusCreated)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	t, err := h.prov.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, tenants.ErrNotFound) {
			problems.Write(w, http.StatusNotFound, "tenant-not-found", "Tenant not found", "")
			return
		}
		problems.Write(w, http.StatusInternalServerError, "storage-error", "Storage error", "try again")
		return
	}
	writeJSON(w, t, http.StatusOK)
}

type domainsBody struct {
	CustomDomains []string `json:"custom_domains"`
}

// setDomains replaces a tenant's custom domains and fans out invalidation for
// every hostname that may hold a stale cached resolution: the tenant's old
// hosts and the new ones.
func (h *Handler) setDomains(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var b domainsBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		problems.Write(w, http.StatusBadRequest, "bad-json", "Bad request", "invalid JSON body")
		return
	}
	for i, d := range b.CustomDomains {
		b.CustomDomains[i] = hostname.Normalize(d)
	}

	before, err := h.prov.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, tenants.ErrNotFound) {
			problems.Write(w, http.StatusNotFound, "tenant-not-found", "Tenant not found", "")
			return
		}
		problems.Write(w, http.StatusInternalServerError, "storage-error", "Storage error", "try again")
		return
	}
	t, err := h.prov.SetDomains(r.Context(), id, b.CustomDomains)
	if err != nil {
		h.log.Errorw("set domains", "id", id, "err", err)
		problems.Write(w, http.StatusInternalServerError, "storage-error", "Storage error", "try again")
		return
	}
	h.fanout(r.Context(), append(before.Hosts(h.platformDomains), t.Hosts(h.platformDomains)...))
	writeJSON(w, t, http.StatusOK)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	t, err := h.prov.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, tenants.ErrNotFound) {
			problems.Write(w, http.StatusNotFound, "tenant-not-found", "Tenant not found", "")
			return
		}
		problems.Write(w, http.StatusInternalServerError, "storage-error", "Storage error", "try again")
		return
	}
	h.fanout(r.Context(), t.Hosts(h.platformDomains))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fanout(ctx context.Context, hosts []string) {
	if h.rdb == nil {
		return
	}
	if err := invalidate.Publish(ctx, h.rdb, hosts...); err != nil {
		// Best-effort: edges converge within the cache TTL anyway.
		h.log.Warnw("invalidation publish", "err", err)
	}
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
