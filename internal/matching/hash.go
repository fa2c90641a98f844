package matching

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// ShortHashLen is the number of hex characters in a fingerprint hash fragment.
const ShortHashLen = 6

// ShortHash returns the first ShortHashLen hex characters of the BLAKE3 digest of data.
func ShortHash(data []byte) string {
	return Digest(data)[:ShortHashLen]
}

// Digest returns the full hex-encoded BLAKE3 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashValue hashes the canonical JSON rendering of v, so logically equal
// values hash identically regardless of map key order.
func HashValue(v any) string {
	return ShortHash(Canonical(v))
}
