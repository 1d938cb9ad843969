package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned by store lookups when the row is absent. It is
// distinct from a transport/query error: callers treat absence and failure
// differently.
var ErrNotFound = errors.New("domain: not found")

// VirtualKeyStore is the read-only view of virtual keys the core needs.
// The admin surface (internal/admin) uses the concrete store.VirtualKeyStore,
// which also provides creation and listing.
type VirtualKeyStore interface {
	GetByHash(ctx context.Context, keyHash string) (*VirtualKey, error)
}

// PolicyStore is the read-only store of policy bundles, consulted by the
// policy cache on a miss.
type PolicyStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Policy, error)
}

// PartnerStore resolves a partner by its unique name.
type PartnerStore interface {
	GetByName(ctx context.Context, name string) (*Partner, error)
}

// CredentialStore returns the most recently created credential for a partner.
type CredentialStore interface {
	LatestForPartner(ctx context.Context, partnerID uuid.UUID) (*UpstreamCredential, error)
}

// UsageStore appends a single UsageEvent row.
type UsageStore interface {
	Insert(ctx context.Context, ev UsageEvent) error
}

// Pinger checks connectivity to a backing store; used by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}
