package retry

// Profile is the per-partner retry switch. Defaults only today; a
// store-backed lookup can replace DefaultProfile once a partner needs an
// override.
type Profile struct {
	Retry429 bool
}

// DefaultProfile is used for every partner until a store-backed profile
// lookup is wired in.
var DefaultProfile = Profile{Retry429: false}

// PermitsStatus reports whether this profile allows retrying the given
// already-classified-retryable status. Only 429 is conditional; every other
// retryable status passes unconditionally.
func (p Profile) PermitsStatus(status int) bool {
	if status == 429 {
		return p.Retry429
	}
	return true
}
