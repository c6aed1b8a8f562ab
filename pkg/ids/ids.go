// Package ids mints the prefixed identifiers used on the wire.
//
// Identifier formats are a contract with the gateway and dashboard layers:
// victim ids are prefixed "V-", mission ids "M-", request ids "REQ-" and
// inventory alert ids "ALERT-". The numeric part is a monotonic millisecond
// timestamp; a short random suffix keeps ids unique when several are minted
// within the same millisecond.
package ids

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// lastStamp holds the most recently issued millisecond stamp.
var lastStamp atomic.Int64 //nolint:gochecknoglobals // process-wide monotonic clock

// nextStamp returns a strictly increasing millisecond timestamp. Wall-clock
// regressions are absorbed by bumping the previous stamp instead.
func nextStamp() int64 {
	for {
		now := time.Now().UnixMilli()
		prev := lastStamp.Load()
		if now <= prev {
			now = prev + 1
		}
		if lastStamp.CompareAndSwap(prev, now) {
			return now
		}
	}
}

func mint(prefix string) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%s-%d-%s", prefix, nextStamp(), suffix)
}

// NewVictimID mints a victim identifier.
func NewVictimID() string { return mint("V") }

// NewMissionID mints a mission identifier.
func NewMissionID() string { return mint("M") }

// NewRequestID mints an equipment request identifier.
func NewRequestID() string { return mint("REQ") }

// NewAlertID mints an inventory alert identifier.
func NewAlertID() string { return mint("ALERT") }
