package ids

import (
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// Request returns a lexicographically sortable identifier stamped onto
// outbound API calls as X-Request-ID so backend logs can be correlated.
func Request() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return "req-" + strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String())
}
