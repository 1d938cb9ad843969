package retry

import "testing"

func TestProfilePermitsStatus(t *testing.T) {
	if !DefaultProfile.PermitsStatus(500) {
		t.Fatal("expected non-429 retryable status to pass unconditionally")
	}
	if DefaultProfile.PermitsStatus(429) {
		t.Fatal("expected default profile to disallow retrying 429")
	}

	enabled := Profile{Retry429: true}
	if !enabled.PermitsStatus(429) {
		t.Fatal("expected retry_429=true profile to allow retrying 429")
	}
}
