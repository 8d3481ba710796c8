package utils

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ulid.MonotonicEntropy is not safe for concurrent use.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewInvocationID returns a time-ordered ULID string used to correlate the
// log lines of one query invocation.
func NewInvocationID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		// monotonic entropy overflowed within the same millisecond
		return ulid.Make().String()
	}
	return id.String()
}

// NewPoolID returns a random UUID identifying one pool instance.
func NewPoolID() uuid.UUID {
	return uuid.New()
}
