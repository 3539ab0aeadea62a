package audit

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Hasher derives stable, non-reversible references to sensitive values
// (document numbers) so audit entries can be correlated without storing PII.
type Hasher struct {
	key []byte
}

// NewHasher builds a keyed BLAKE2b-256 hasher. Keys longer than the 64-byte
// BLAKE2b limit are compressed first; an empty key yields an unkeyed hash.
func NewHasher(key string) *Hasher {
	k := []byte(key)
	if len(k) > blake2b.Size {
		sum := blake2b.Sum512(k)
		k = sum[:]
	}
	return &Hasher{key: k}
}

// Hash returns the hex digest of the normalised value, or "" for blank input.
func (h *Hasher) Hash(value string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	mac, err := blake2b.New256(h.key)
	if err != nil {
		// only reachable with an oversized key, which NewHasher prevents
		sum := blake2b.Sum256([]byte(value))
		return hex.EncodeToString(sum[:])
	}
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}
