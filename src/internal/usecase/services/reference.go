package services

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"time"
)

const maxReferenceAttempts = 5

var referenceCounter atomic.Uint32

func init() {
	referenceCounter.Store(rand.Uint32())
}

// generateReference builds PREFIX + yyyyMMddHHmmss + a 6 digit sequence.
// Collisions are caught by the store's unique constraint and retried.
func generateReference(prefix string, now time.Time) string {
	counter := referenceCounter.Add(1) % 1000000
	return prefix + now.UTC().Format("20060102150405") + fmt.Sprintf("%06d", counter)
}

// generateAccountNumber builds JADE + 14 digits.
func generateAccountNumber(now time.Time) string {
	counter := referenceCounter.Add(1) % 10000
	return "JADE" + now.UTC().Format("0601021504") + fmt.Sprintf("%04d", counter)
}

func stringPtr(value string) *string {
	v := strings.TrimSpace(value)
	return &v
}
