package utils

import (
	"fmt"
	"sync/atomic"
	"time"
)

var codeCounter int64

// GenerateAgentCode returns a display code for a new agent, e.g.
// "CEA-483920". The trailing digits mix the current unix millis with an
// atomic counter so two registrations in the same millisecond still get
// distinct codes; uniqueness is ultimately enforced by the DB index.
func GenerateAgentCode() string {
	counter := atomic.AddInt64(&codeCounter, 1)
	suffix := (time.Now().UnixMilli() + counter) % 1000000
	return fmt.Sprintf("CEA-%06d", suffix)
}
