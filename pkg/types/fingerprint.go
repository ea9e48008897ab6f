package types

import (
	"crypto/sha1"
	"encoding/hex"
)

// FingerprintLen is the length in hex characters of a short fingerprint.
const FingerprintLen = 8

// fingerprintWindow is how many leading bytes of a range contribute to
// its fingerprint. Carved ranges can be large; hashing a fixed-width
// head keeps naming O(1) per record while staying deterministic.
const fingerprintWindow = 100

// Fingerprint returns a short deterministic identifier for a byte slice:
// the first FingerprintLen hex characters of its SHA-1 digest.
func Fingerprint(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])[:FingerprintLen]
}

// FingerprintHead fingerprints the leading fingerprintWindow bytes of a
// range. Identical input bytes always yield identical names, so carved
// records keep their names across re-extraction of the same source.
func FingerprintHead(data []byte) string {
	if len(data) > fingerprintWindow {
		data = data[:fingerprintWindow]
	}
	return Fingerprint(data)
}
