// Package domain holds the value types and store interfaces shared across
// the request pipeline. Types here are plain data: middleware and the proxy
// handler own copies of them rather than sharing mutable references, so two
// requests racing on the same virtual key never observe each other's state.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// VirtualKey is the gateway's view of a client identity. The raw key is
// never stored; only its keyed-hash digest (KeyHash) is.
type VirtualKey struct {
	ID          uuid.UUID
	Name        string
	Environment string
	Tags        []string
	Enabled     bool
	KeyHash     string
	PolicyID    uuid.UUID
	CreatedAt   time.Time
}

// Policy is the limits/allowlist/timeout bundle a virtual key references.
type Policy struct {
	ID                uuid.UUID
	Name              string
	EndpointAllowlist []string
	RPSLimit          *float64
	RPSBurst          *int
	MonthlyQuota      *int
	TimeoutMS         int
}

// Burst returns the effective token-bucket capacity: max(1, RPSBurst) if
// set, otherwise max(1, RPSLimit) with RPSLimit truncated to an integer.
func (p Policy) Burst() int {
	if p.RPSBurst != nil {
		if *p.RPSBurst < 1 {
			return 1
		}
		return *p.RPSBurst
	}
	if p.RPSLimit != nil {
		c := int(*p.RPSLimit)
		if c < 1 {
			return 1
		}
		return c
	}
	return 1
}

// Partner is a third-party API reachable via a fixed base URL. BaseURL's
// origin (scheme+host+effective port) is the SSRF anchor for every request
// forwarded to this partner.
type Partner struct {
	ID      uuid.UUID
	Name    string
	BaseURL string
}

// UpstreamCredential is the most recently issued (header name, header value)
// pair the gateway injects when calling a partner.
type UpstreamCredential struct {
	PartnerID   uuid.UUID
	HeaderName  string
	HeaderValue string
	CreatedAt   time.Time
}

// UsageEvent is an append-only record of a terminal request outcome.
type UsageEvent struct {
	VirtualKeyID  uuid.UUID
	PartnerName   string
	Path          string
	Forwarded     bool
	BlockedReason *string
	StatusCode    *int
	LatencyMS     int32
}

// RequestContext is attached to the request by the auth middleware and
// carried through the rest of the chain. It owns copies of the virtual key
// and policy rather than pointers into shared state.
type RequestContext struct {
	VK     VirtualKey
	Policy Policy
	Start  time.Time
}

// Block reason codes, recorded on UsageEvent. The HTTP status sent to the
// client is chosen separately by whichever layer blocks the request.
const (
	BlockRateLimitExceeded           = "rate_limit_exceeded"
	BlockMonthlyQuotaExceeded        = "monthly_quota_exceeded"
	BlockUnknownPartner              = "unknown_partner"
	BlockDBError                     = "db_error"
	BlockSSRFBlocked                 = "ssrf_blocked"
	BlockInvalidUpstreamResponse     = "invalid_upstream_response"
	BlockMissingUpstreamCredential   = "missing_upstream_credential"
	BlockInvalidPartnerBaseURL       = "invalid_partner_base_url"
	BlockInvalidUpstreamPath         = "invalid_upstream_path"
	BlockInvalidCredentialHeaderName = "invalid_credential_header_name"
	BlockInvalidCredentialHeaderVal  = "invalid_credential_header_value"
	BlockUpstreamRequestFailed       = "upstream_request_failed"
	BlockEndpointNotAllowed          = "endpoint_not_allowed"
)

func StrPtr(s string) *string { return &s }
func IntPtr(i int) *int       { return &i }
