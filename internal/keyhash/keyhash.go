// Package keyhash implements the deterministic keyed digest virtual keys are
// looked up by. The raw key is never persisted or logged; only this digest
// is.
package keyhash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrEmptySalt is returned by New when no salt is configured. Callers must
// treat this as a fatal startup error — there is no safe unkeyed fallback.
var ErrEmptySalt = errors.New("keyhash: salt must not be empty")

// Hasher computes the keyed digest of a raw virtual key.
type Hasher struct {
	salt []byte
}

// New creates a Hasher bound to salt. salt must be non-empty.
func New(salt string) (*Hasher, error) {
	if salt == "" {
		return nil, ErrEmptySalt
	}
	return &Hasher{salt: []byte(salt)}, nil
}

// Digest returns the lowercase hex HMAC-SHA256 of rawKey under the hasher's
// salt. Same (salt, rawKey) always produces the same digest across
// processes.
func (h *Hasher) Digest(rawKey string) string {
	mac := hmac.New(sha256.New, h.salt)
	mac.Write([]byte(rawKey))
	return hex.EncodeToString(mac.Sum(nil))
}
