// Package idgen mints the sortable 128-bit identifiers used for every card,
// tag, revision, and audit row.
package idgen

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// entropy is shared and mutex-guarded: ulid's monotonic reader is not safe
// for concurrent use on its own. It must wrap a real randomness source:
// MonotonicRead falls back to io.ReadFull(reader, ...) on the first ID
// minted within a millisecond, which panics against a nil reader.
var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New mints a new lexicographically sortable identifier, rendered as a
// 26-character Crockford base32 string.
func New() string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
