// pkg/tenants/postgres.go
package tenants

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pgProvider implements Provider backed by PostgreSQL.
type pgProvider struct {
	dbPool *pgxpool.Pool
	log    *zap.SugaredLogger
}

// NewPostgresProvider constructs a PostgreSQL-backed tenant provider.
func NewPostgresProvider(dbPool *pgxpool.Pool, log *zap.SugaredLogger) Provider {
	return &pgProvider{dbPool: dbPool, log: log}
}

// EnsureSchema creates required tables if they do not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tenants (
  id uuid PRIMARY KEY,
  slug text UNIQUE NOT NULL,
  display_name text NOT NULL DEFAULT '',
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS tenant_domains (
  tenant_id uuid REFERENCES tenants(id) ON DELETE CASCADE,
  domain text NOT NULL,
  PRIMARY KEY (tenant_id, domain)
);
CREATE UNIQUE INDEX IF NOT EXISTS tenant_domains_domain_idx ON tenant_domains(lower(domain));
`)
	return err
}

// SeedFromEnv ingests initial tenant data (TENANT_SEED_JSON):
//
//	[{"id":"...","slug":"acme","name":"Acme Store","custom_domains":["acme.com"]}]
func SeedFromEnv(ctx context.Context, dbPool *pgxpool.Pool, jsonSeed string) error {
	if jsonSeed == "" {
		return nil
	}
	var entries []Tenant
	if err := json.Unmarshal([]byte(jsonSeed), &entries); err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		_, err := dbPool.Exec(ctx, `INSERT INTO tenants(id,slug,display_name)
		  VALUES ($1,$2,$3)
		  ON CONFLICT (id) DO UPDATE SET slug=EXCLUDED.slug,display_name=EXCLUDED.display_name,updated_at=NOW()`,
			entry.ID, entry.Slug, entry.DisplayName)
		if err != nil {
			return err
		}
		for _, d := range entry.CustomDomains {
			_, _ = dbPool.Exec(ctx, `INSERT INTO tenant_domains(tenant_id,domain) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
				entry.ID, strings.ToLower(d))
		}
	}
	return nil
}

const tenantColumns = `t.id, t.slug, t.display_name, t.created_at, t.updated_at,
  COALESCE((SELECT array_agg(d.domain) FROM tenant_domains d WHERE d.tenant_id=t.id), '{}')`

func scanTenant(row pgx.Row) (Tenant, error) {
	var t Tenant
	if err := row.Scan(&t.ID, &t.Slug, &t.DisplayName, &t.CreatedAt, &t.UpdatedAt, &t.CustomDomains); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, ErrNotFound
		}
		return Tenant{}, err
	}
	return t, nil
}

// Resolve matches by slug first, then by custom domain; at most one result.
func (p *pgProvider) Resolve(ctx context.Context, subdomain, domain string) (Tenant, error) {
	if subdomain != "" {
		t, err := scanTenant(p.dbPool.QueryRow(ctx,
			`SELECT `+tenantColumns+` FROM tenants t WHERE t.slug=$1`, subdomain))
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Tenant{}, err
		}
	}
	return scanTenant(p.dbPool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants t
		 JOIN tenant_domains d ON d.tenant_id=t.id
		 WHERE lower(d.domain)=lower($1)`, domain))
}

func (p *pgProvider) GetByID(ctx context.Context, id string) (Tenant, error) {
	return scanTenant(p.dbPool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants t WHERE t.id=$1`, id))
}

func (p *pgProvider) List(ctx context.Context) ([]Tenant, error) {
	rows, err := p.dbPool.Query(ctx, `SELECT `+tenantColumns+` FROM tenants t ORDER BY t.slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *pgProvider) Create(ctx context.Context, t Tenant) (Tenant, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := p.dbPool.Exec(ctx, `INSERT INTO tenants(id,slug,display_name) VALUES ($1,$2,$3)`,
		t.ID, t.Slug, t.DisplayName)
	if err != nil {
		return Tenant{}, err
	}
	for _, d := range t.CustomDomains {
		if _, err := p.dbPool.Exec(ctx, `INSERT INTO tenant_domains(tenant_id,domain) VALUES ($1,$2)`,
			t.ID, strings.ToLower(d)); err != nil {
			return Tenant{}, err
		}
	}
	return p.GetByID(ctx, t.ID)
}

func (p *pgProvider) SetDomains(ctx context.Context, id string, domains []string) (Tenant, error) {
	tx, err := p.dbPool.Begin(ctx)
	if err != nil {
		return Tenant{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, `DELETE FROM tenant_domains WHERE tenant_id=$1`, id); err != nil {
		return Tenant{}, err
	}
	for _, d := range domains {
		if _, err := tx.Exec(ctx, `INSERT INTO tenant_domains(tenant_id,domain) VALUES ($1,$2)`,
			id, strings.ToLower(d)); err != nil {
			return Tenant{}, err
		}
	}
	if _, err := tx.Exec(ctx, `UPDATE tenants SET updated_at=NOW() WHERE id=$1`, id); err != nil {
		return Tenant{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Tenant{}, err
	}
	return p.GetByID(ctx, id)
}

func (p *pgProvider) Delete(ctx context.Context, id string) (Tenant, error) {
	t, err := p.GetByID(ctx, id)
	if err != nil {
		return Tenant{}, err
	}
	if _, err := p.dbPool.Exec(ctx, `DELETE FROM tenants WHERE id=$1`, id); err != nil {
		return Tenant{}, err
	}
	return t, nil
}
