// pkg/tenants/memory.go
package tenants

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type memProvider struct {
	mu     sync.RWMutex
	log    *zap.SugaredLogger
	bySlug map[string]Tenant
}

// NewMemoryProviderFromEnv builds the dev fallback provider used when no
// DATABASE_URL is configured. TENANT_SEED_JSON format:
//
//	[{"id":"...","slug":"acme","name":"Acme Store","custom_domains":["acme.com"]}]
func NewMemoryProviderFromEnv(log *zap.SugaredLogger) Provider {
	p := &memProvider{log: log, bySlug: map[string]Tenant{}}
	seed := os.Getenv("TENANT_SEED_JSON")
	if seed != "" {
		var entries []Tenant
		if err := json.Unmarshal([]byte(seed), &entries); err != nil {
			log.Warnw("tenant seed parse", "err", err)
		}
		for _, e := range entries {
			if e.ID == "" {
				e.ID = uuid.NewString()
			}
			e.CreatedAt = time.Now()
			e.UpdatedAt = e.CreatedAt
			p.bySlug[e.Slug] = e
		}
	} else {
		now := time.Now()
		p.bySlug["dev"] = Tenant{
			TenantRecord: TenantRecord{
				ID:          "00000000-0000-0000-0000-000000000001",
				Slug:        "dev",
				DisplayName: "Dev Store",
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return p
}

func (m *memProvider) Resolve(ctx context.Context, subdomain, domain string) (Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if subdomain != "" {
		if t, ok := m.bySlug[subdomain]; ok {
			return t, nil
		}
	}
	domain = strings.ToLower(domain)
	for _, t := range m.bySlug {
		for _, d := range t.CustomDomains {
			if strings.ToLower(d) == domain {
				return t, nil
			}
		}
	}
	return Tenant{}, ErrNotFound
}

func (m *memProvider) GetByID(ctx context.Context, id string) (Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.bySlug {
		if t.ID == id {
			return t, nil
		}
	}
	return Tenant{}, ErrNotFound
}

func (m *memProvider) List(ctx context.Context) ([]Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Tenant, 0, len(m.bySlug))
	for _, t := range m.bySlug {
		out = append(out, t)
	}
	return out, nil
}

func (m *memProvider) Create(ctx context.Context, t Tenant) (Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	m.bySlug[t.Slug] = t
	return t, nil
}

func (m *memProvider) SetDomains(ctx context.Context, id string, domains []string) (Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for slug, t := range m.bySlug {
		if t.ID == id {
			t.CustomDomains = domains
			t.UpdatedAt = time.Now()
			m.bySlug[slug] = t
			return t, nil
		}
	}
	return Tenant{}, ErrNotFound
}

func (m *memProvider) Delete(ctx context.Context, id string) (Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for slug, t := range m.bySlug {
		if t.ID == id {
			delete(m.bySlug, slug)
			return t, nil
		}
	}
	return Tenant{}, ErrNotFound
}
