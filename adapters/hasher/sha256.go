package hasher

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
)

// FingerprintLength is the number of hex characters kept by Fingerprint.
const FingerprintLength = 12

// New returns a domain.Hasher backed by SHA‑256.
func New() domain.Hasher { return sha256Hasher{} }

// NewFingerprint returns a Hasher whose output is short enough to embed in
// file names.
func NewFingerprint() domain.Hasher { return fingerprint{} }

type sha256Hasher struct{}

func (h sha256Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type fingerprint struct{}

func (fingerprint) Hash(data []byte) string {
	return sha256Hasher{}.Hash(data)[:FingerprintLength]
}
