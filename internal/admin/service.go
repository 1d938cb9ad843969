package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/wisbric/relaykey/internal/domain"
	"github.com/wisbric/relaykey/internal/keyhash"
	"github.com/wisbric/relaykey/internal/store"
)

// Service encapsulates virtual-key provisioning.
type Service struct {
	store  *store.VirtualKeyStore
	hasher *keyhash.Hasher
	log    *slog.Logger
}

func NewService(s *store.VirtualKeyStore, hasher *keyhash.Hasher, log *slog.Logger) *Service {
	return &Service{store: s, hasher: hasher, log: log}
}

// Create generates a new raw virtual key, stores its digest, and returns the
// raw key alongside the stored row. The raw key is never persisted.
func (s *Service) Create(ctx context.Context, req CreateRequest) (CreateResponse, error) {
	policyID, err := uuid.Parse(req.PolicyID)
	if err != nil {
		return CreateResponse{}, fmt.Errorf("invalid policy_id: %w", err)
	}

	raw, err := generateRawKey(req.Environment)
	if err != nil {
		return CreateResponse{}, err
	}
	digest := s.hasher.Digest(raw)

	vk, err := s.store.Create(ctx, store.CreateParams{
		Name:        req.Name,
		Environment: req.Environment,
		Tags:        req.Tags,
		KeyHash:     digest,
		PolicyID:    policyID,
	})
	if err != nil {
		return CreateResponse{}, fmt.Errorf("creating virtual key: %w", err)
	}

	return CreateResponse{Response: toResponse(vk), Key: raw}, nil
}

// List returns every virtual key, most recently created first.
func (s *Service) List(ctx context.Context) ([]Response, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing virtual keys: %w", err)
	}
	items := make([]Response, 0, len(rows))
	for _, vk := range rows {
		items = append(items, toResponse(vk))
	}
	return items, nil
}

func toResponse(vk *domain.VirtualKey) Response {
	return Response{
		ID:          vk.ID,
		Name:        vk.Name,
		Environment: vk.Environment,
		Tags:        vk.Tags,
		Enabled:     vk.Enabled,
		PolicyID:    vk.PolicyID,
		CreatedAt:   vk.CreatedAt,
	}
}
