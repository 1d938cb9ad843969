package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wisbric/relaykey/internal/domain"
)

// UsageStore implements domain.UsageStore against the usage_events table.
type UsageStore struct {
	pool *pgxpool.Pool
}

func NewUsageStore(pool *pgxpool.Pool) *UsageStore {
	return &UsageStore{pool: pool}
}

// Insert implements domain.UsageStore.
func (s *UsageStore) Insert(ctx context.Context, ev domain.UsageEvent) error {
	query := `INSERT INTO usage_events
		(virtual_key_id, partner_name, path, forwarded, blocked_reason, status_code, latency_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		ev.VirtualKeyID, ev.PartnerName, ev.Path, ev.Forwarded, ev.BlockedReason, ev.StatusCode, ev.LatencyMS,
	)
	if err != nil {
		return fmt.Errorf("inserting usage event: %w", err)
	}
	return nil
}
