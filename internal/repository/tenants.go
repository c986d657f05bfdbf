package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/incubatech/proposal-screener/internal/common"
	"github.com/incubatech/proposal-screener/internal/entity"
)

type TenantRepository interface {
	Create(ctx context.Context, t *entity.Tenant) (*entity.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error)
	List(ctx context.Context) ([]*entity.Tenant, error)
	SetProposalURL(ctx context.Context, id uuid.UUID, url string) error
}

type tenantRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewTenantRepository(pool *pgxpool.Pool, logger *slog.Logger) TenantRepository {
	return &tenantRepository{pool: pool, logger: logger}
}

func (r *tenantRepository) Create(ctx context.Context, t *entity.Tenant) (*entity.Tenant, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tenant (id, business_name, team_lead_name, proposal_url)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		t.ID, t.BusinessName, t.TeamLeadName, t.ProposalURL,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create tenant", "business_name", t.BusinessName, "error", err)
		return nil, err
	}
	return t, nil
}

func (r *tenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error) {
	t := &entity.Tenant{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, business_name, team_lead_name, proposal_url, created_at, updated_at
		 FROM tenant WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.BusinessName, &t.TeamLeadName, &t.ProposalURL, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: tenant %s", common.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("failed to get tenant", "tenant_id", id, "error", err)
		return nil, err
	}
	return t, nil
}

func (r *tenantRepository) List(ctx context.Context) ([]*entity.Tenant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, business_name, team_lead_name, proposal_url, created_at, updated_at
		 FROM tenant ORDER BY created_at`)
	if err != nil {
		r.logger.Error("failed to list tenants", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Tenant
	for rows.Next() {
		t := &entity.Tenant{}
		if err := rows.Scan(&t.ID, &t.BusinessName, &t.TeamLeadName, &t.ProposalURL, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *tenantRepository) SetProposalURL(ctx context.Context, id uuid.UUID, url string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tenant SET proposal_url = $2, updated_at = now() WHERE id = $1`,
		id, url)
	if err != nil {
		r.logger.Error("failed to set proposal url", "tenant_id", id, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: tenant %s", common.ErrNotFound, id)
	}
	return nil
}
