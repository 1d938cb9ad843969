package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wisbric/relaykey/internal/domain"
)

const policyColumns = `id, name, endpoint_allowlist, rps_limit, rps_burst, monthly_quota, timeout_ms`

// PolicyStore implements domain.PolicyStore against the policies table.
type PolicyStore struct {
	pool *pgxpool.Pool
}

func NewPolicyStore(pool *pgxpool.Pool) *PolicyStore {
	return &PolicyStore{pool: pool}
}

// GetByID implements domain.PolicyStore.
func (s *PolicyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM policies WHERE id = $1`
	row := s.pool.QueryRow(ctx, query, id)

	var p domain.Policy
	err := row.Scan(&p.ID, &p.Name, &p.EndpointAllowlist, &p.RPSLimit, &p.RPSBurst, &p.MonthlyQuota, &p.TimeoutMS)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting policy by id: %w", err)
	}
	return &p, nil
}
