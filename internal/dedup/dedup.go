// Package dedup protects against a payment payload being verified or
// settled twice by fingerprinting the raw transaction blob.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/CedrosPay/x402-facilitator/internal/cacheutil"
)

// Store bounds seen-transaction fingerprints by TTL and capacity.
type Store struct {
	mu      sync.Mutex
	entries *cacheutil.TTLCache[struct{}]
}

// New creates a Store bounded to maxEntries fingerprints, each remembered
// for window.
func New(maxEntries int, window time.Duration) *Store {
	return &Store{
		entries: cacheutil.NewTTLCache[struct{}](maxEntries, window),
	}
}

// Fingerprint returns the stable identifier for a raw base64 transaction
// blob: the hex-encoded SHA-256 digest of the blob bytes.
func Fingerprint(rawBlob string) string {
	sum := sha256.Sum256([]byte(rawBlob))
	return hex.EncodeToString(sum[:])
}

// CheckAndMark atomically checks whether rawBlob has been seen before and,
// if not, marks it seen. It returns true if this is the first time the
// blob has been observed within the window; false if it is a duplicate.
// The check and the mark happen under a single lock so two concurrent
// requests for the same blob cannot both observe "not seen".
func (s *Store) CheckAndMark(rawBlob string) bool {
	fp := Fingerprint(rawBlob)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.entries.Get(fp); seen {
		return false
	}
	s.entries.Set(fp, struct{}{})
	return true
}
