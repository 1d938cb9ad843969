package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wisbric/relaykey/internal/domain"
)

// PartnerStore implements domain.PartnerStore against the partners table.
type PartnerStore struct {
	pool *pgxpool.Pool
}

func NewPartnerStore(pool *pgxpool.Pool) *PartnerStore {
	return &PartnerStore{pool: pool}
}

// GetByName implements domain.PartnerStore.
func (s *PartnerStore) GetByName(ctx context.Context, name string) (*domain.Partner, error) {
	query := `SELECT id, name, base_url FROM partners WHERE name = $1`
	row := s.pool.QueryRow(ctx, query, name)

	var p domain.Partner
	if err := row.Scan(&p.ID, &p.Name, &p.BaseURL); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting partner by name: %w", err)
	}
	return &p, nil
}
