package password

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// Params are the scrypt cost parameters. Digests are only comparable when
// they were derived with the same Params.
type Params struct {
	N      int
	R      int
	P      int
	KeyLen int
}

func DefaultParams() Params {
	return Params{N: 32768, R: 8, P: 1, KeyLen: 64}
}

type Hasher struct {
	params Params
}

func NewHasher(params Params) *Hasher {
	return &Hasher{params: params}
}

// Digest derives the hex-encoded scrypt key of plaintext under salt.
func (h *Hasher) Digest(salt, plaintext string) (string, error) {
	key, err := scrypt.Key([]byte(plaintext), []byte(salt), h.params.N, h.params.R, h.params.P, h.params.KeyLen)
	if err != nil {
		return "", fmt.Errorf("derive scrypt key failed: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// Verify recomputes the digest of candidate and compares it with stored in
// constant time.
func (h *Hasher) Verify(candidate, salt, stored string) bool {
	got, err := h.Digest(salt, candidate)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(stored)) == 1
}
