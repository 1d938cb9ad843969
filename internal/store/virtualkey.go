// Package store implements domain's store interfaces against Postgres via
// pgx.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wisbric/relaykey/internal/domain"
)

const virtualKeyColumns = `id, name, environment, tags, key_hash, enabled, policy_id, created_at`

// VirtualKeyStore implements domain.VirtualKeyStore and the wider admin
// surface (create/list) against the virtual_keys table.
type VirtualKeyStore struct {
	pool *pgxpool.Pool
}

func NewVirtualKeyStore(pool *pgxpool.Pool) *VirtualKeyStore {
	return &VirtualKeyStore{pool: pool}
}

func scanVirtualKey(row pgx.Row) (*domain.VirtualKey, error) {
	var vk domain.VirtualKey
	err := row.Scan(&vk.ID, &vk.Name, &vk.Environment, &vk.Tags, &vk.KeyHash, &vk.Enabled, &vk.PolicyID, &vk.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &vk, nil
}

// GetByHash implements domain.VirtualKeyStore.
func (s *VirtualKeyStore) GetByHash(ctx context.Context, keyHash string) (*domain.VirtualKey, error) {
	query := `SELECT ` + virtualKeyColumns + ` FROM virtual_keys WHERE key_hash = $1`
	vk, err := scanVirtualKey(s.pool.QueryRow(ctx, query, keyHash))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting virtual key by hash: %w", err)
	}
	return vk, nil
}

// CreateParams holds the fields needed to create a virtual key.
type CreateParams struct {
	Name        string
	Environment string
	Tags        []string
	KeyHash     string
	PolicyID    uuid.UUID
}

// Create inserts a new virtual key and returns the stored row.
func (s *VirtualKeyStore) Create(ctx context.Context, p CreateParams) (*domain.VirtualKey, error) {
	query := `INSERT INTO virtual_keys (name, environment, tags, key_hash, enabled, policy_id)
	VALUES ($1, $2, $3, $4, true, $5)
	RETURNING ` + virtualKeyColumns

	vk, err := scanVirtualKey(s.pool.QueryRow(ctx, query, p.Name, p.Environment, p.Tags, p.KeyHash, p.PolicyID))
	if err != nil {
		return nil, fmt.Errorf("creating virtual key: %w", err)
	}
	return vk, nil
}

// List returns every virtual key, most recently created first.
func (s *VirtualKeyStore) List(ctx context.Context) ([]*domain.VirtualKey, error) {
	query := `SELECT ` + virtualKeyColumns + ` FROM virtual_keys ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing virtual keys: %w", err)
	}
	defer rows.Close()

	var items []*domain.VirtualKey
	for rows.Next() {
		vk, err := scanVirtualKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning virtual key row: %w", err)
		}
		items = append(items, vk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating virtual key rows: %w", err)
	}
	return items, nil
}
