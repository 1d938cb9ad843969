package admin

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// generateRawKey creates a new raw virtual key of the form
// rk_{environment}_{opaque}, where opaque is 32 bytes of crypto/rand hex.
func generateRawKey(environment string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating virtual key: %w", err)
	}
	return fmt.Sprintf("rk_%s_%s", environment, hex.EncodeToString(b)), nil
}
