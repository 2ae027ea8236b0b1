package polltimer

import (
	"time"

	"code.cloudfoundry.org/clock"
)

// MillisFunc reads a monotonic millisecond counter. The counter is
// expected to wrap to zero after MaxReading rather than fail; Timer
// corrects for the wrap when computing elapsed time.
type MillisFunc func() uint64

// NewWallSource returns a MillisFunc counting milliseconds from the
// moment the source is created, backed by the given clock. Substituting
// a fakeclock makes every timer built on the source deterministic.
func NewWallSource(c clock.Clock) MillisFunc {
	base := c.Now()
	return func() uint64 {
		return uint64(c.Since(base) / time.Millisecond)
	}
}
