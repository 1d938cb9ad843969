package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wisbric/relaykey/internal/domain"
)

// CredentialStore implements domain.CredentialStore against the
// upstream_credentials table.
type CredentialStore struct {
	pool *pgxpool.Pool
}

func NewCredentialStore(pool *pgxpool.Pool) *CredentialStore {
	return &CredentialStore{pool: pool}
}

// LatestForPartner implements domain.CredentialStore.
func (s *CredentialStore) LatestForPartner(ctx context.Context, partnerID uuid.UUID) (*domain.UpstreamCredential, error) {
	query := `SELECT partner_id, header_name, header_value, created_at
	FROM upstream_credentials WHERE partner_id = $1 ORDER BY created_at DESC LIMIT 1`
	row := s.pool.QueryRow(ctx, query, partnerID)

	var c domain.UpstreamCredential
	if err := row.Scan(&c.PartnerID, &c.HeaderName, &c.HeaderValue, &c.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting latest credential for partner: %w", err)
	}
	return &c, nil
}
