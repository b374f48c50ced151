package sequencer

import (
	"crypto/md5" //nolint:gosec // key derivation for map lookups, not security
	"encoding/hex"
	"strings"
)

// keyLength is the number of hex characters kept from the digest.
// Ten characters is not collision-free, but for the handful of sequences
// a single installation defines the collision odds are negligible, and
// short keys keep the persisted JSON blob readable.
const keyLength = 10

// GenerateKey derives the deterministic tracking key for a sequence.
//
// The key is the first ten hex characters of the MD5 digest of the
// comma-joined scene identifiers. The same sequence always yields the
// same key, so every caller supplying the same scene list shares one
// cursor entry in the store.
func GenerateKey(scenes []string) string {
	sum := md5.Sum([]byte(strings.Join(scenes, ","))) //nolint:gosec // see keyLength note
	return hex.EncodeToString(sum[:])[:keyLength]
}
