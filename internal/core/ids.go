// AngelaMos | 2026
// ids.go

package core

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewULID returns a lexicographically sortable identifier. Used for click ids
// so analytics rows sort by time without an extra column.
func NewULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

func IsULID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
