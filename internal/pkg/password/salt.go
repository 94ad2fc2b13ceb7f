// Package password generates salts and derives and verifies scrypt digests.
package password

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

var ErrInvalidArgument = errors.New("invalid argument")

// GenerateSalt returns byteLength bytes from the system CSPRNG encoded as
// lowercase hex, so the result is always 2*byteLength characters long.
func GenerateSalt(byteLength int) (string, error) {
	if byteLength < 0 {
		return "", fmt.Errorf("%w: salt length can't be negative", ErrInvalidArgument)
	}
	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random salt failed: %w", err)
	}
	return hex.EncodeToString(b), nil
}
