package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Fingerprint returns a short SHA-256 hex prefix of a credential, safe to put in logs and audit metadata.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:8])
}

// FingerprintEqual reports in constant time whether token has the given fingerprint.
func FingerprintEqual(token, fingerprint string) bool {
	return subtle.ConstantTimeCompare([]byte(Fingerprint(token)), []byte(fingerprint)) == 1
}
