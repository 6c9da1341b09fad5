package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// GenDraftID returns a client-local draft identifier of the form
// draft_<millis>_<random>. The random suffix keeps ids unique when
// multiple drafts are saved within the same millisecond.
func GenDraftID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// fall back to nanos; collisions are already covered by the caller's
		// uniqueness check on insert
		return fmt.Sprintf("draft_%d_%d", time.Now().UnixMilli(), time.Now().UnixNano()%1e6)
	}
	return fmt.Sprintf("draft_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(b))
}

// NowMillis returns the current wall clock as epoch millis, the unit used
// for draft timestamps and the conflict-detection clock.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
