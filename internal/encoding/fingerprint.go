package encoding

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/xxh3"
)

// FingerprintSize is the size of a packet fingerprint in bytes.
const FingerprintSize = 16

// Fingerprint is a 128-bit xxhash3 digest of a serialized packet.
type Fingerprint [FingerprintSize]byte

// Hash128 computes a 128-bit xxhash3 hash of data
func Hash128(data []byte) Fingerprint {
	hash := xxh3.Hash128(data)
	var result Fingerprint
	binary.BigEndian.PutUint64(result[0:8], hash.Hi)
	binary.BigEndian.PutUint64(result[8:16], hash.Lo)
	return result
}

// HashString is Hash128 for strings.
func HashString(s string) Fingerprint {
	return Hash128([]byte(s))
}

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}
