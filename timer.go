package polltimer

import (
	"math"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
)

const (
	// MaxReading is the highest value a millisecond source returns before
	// wrapping to zero.
	MaxReading uint64 = math.MaxUint64

	// MaxInterval is the largest configurable interval. One value below
	// MaxReading is reserved as an overflow guard.
	MaxInterval uint64 = MaxReading - 1
)

// Callback is dispatched by ExecCallback when an active timer has
// elapsed. Panics escape to the caller; the timer does not recover.
type Callback func()

// Timer is a non-blocking interval timer for cooperative polling loops.
// Nothing fires on its own: the owner polls IsOver or IsDone from a
// single goroutine, and the timer only reads the millisecond source.
// Timer is not safe for concurrent use.
type Timer struct {
	logger lager.Logger
	millis MillisFunc

	interval  uint64
	timestamp uint64
	active    bool

	// suspendRemaining != 0 means a suspend window is in progress.
	suspendRemaining uint64
	suspendCarryover uint64

	count    uint64
	callback Callback
}

// New returns a timer that considers itself elapsed once interval
// milliseconds have passed, reading time from millis. A nil millis falls
// back to a wall-clock source. The elapsed-time window starts counting
// immediately.
func New(logger lager.Logger, millis MillisFunc, interval uint64, active bool) *Timer {
	if millis == nil {
		millis = NewWallSource(clock.NewClock())
	}

	t := &Timer{
		logger: logger.Session("timer"),
		millis: millis,
		active: active,
	}
	t.SetInterval(interval)
	return t
}

// Enable activates the timer, cancels any suspend window, and restarts
// the interval from now. Elapsed time carried over from a previous
// suspend is discarded.
func (t *Timer) Enable() {
	t.active = true
	t.suspendRemaining = 0
	t.suspendCarryover = 0
	t.ResetTime()
	t.logger.Debug("enabled")
}

// Disable deactivates the timer and cancels any suspend window. A
// disabled timer never reports elapsed until Enable is called.
func (t *Timer) Disable() {
	t.active = false
	t.suspendRemaining = 0
	t.suspendCarryover = 0
	t.logger.Debug("disabled")
}

// Suspend deactivates the timer for duration milliseconds; once the
// window passes the timer re-activates itself on the next poll. With
// continueElapsed set, time already counted toward the interval is
// credited back after the window ends; otherwise the interval restarts
// from scratch.
func (t *Timer) Suspend(duration uint64, continueElapsed bool) {
	if continueElapsed {
		t.suspendCarryover = t.Delta()
	} else {
		t.suspendCarryover = 0
	}

	t.suspendRemaining = duration
	t.active = false
	t.ResetTime()
	t.logger.Debug("suspended", lager.Data{
		"duration-ms":  duration,
		"carryover-ms": t.suspendCarryover,
	})
}

// SetInterval stores a new interval, clamped to MaxInterval, and
// restarts the elapsed-time window. A zero interval means the timer is
// elapsed on every poll while active.
func (t *Timer) SetInterval(interval uint64) {
	if interval > MaxInterval {
		interval = MaxInterval
	}
	t.interval = interval
	t.ResetTime()
}

// Interval returns the configured interval in milliseconds.
func (t *Timer) Interval() uint64 {
	return t.interval
}

// SetCallback stores fn for later dispatch via ExecCallback. A nil fn
// clears the callback.
func (t *Timer) SetCallback(fn Callback) {
	t.callback = fn
}

// HasCallback reports whether a callback is set.
func (t *Timer) HasCallback() bool {
	return t.callback != nil
}

// Callback returns the stored callback, or nil when none is set.
func (t *Timer) Callback() Callback {
	return t.callback
}

// ExecCallback invokes the callback when the timer is active, a callback
// is set, and the interval has elapsed; it reports whether the callback
// ran. The reference timestamp is not reset, so without an intervening
// ResetTime the next call dispatches again.
func (t *Timer) ExecCallback() bool {
	if t.active && t.HasCallback() && t.IsOver() {
		t.callback()
		return true
	}
	return false
}

// ResetTime restarts the elapsed-time window from the current reading.
// Count, active, and suspend state are untouched.
func (t *Timer) ResetTime() {
	t.timestamp = t.millis()
}

// Delta returns the milliseconds elapsed since the last reset. When the
// current reading is numerically below the stored timestamp the source
// counter has wrapped past MaxReading, and the distance forward through
// the wrap point is returned instead.
func (t *Timer) Delta() uint64 {
	m := t.millis()
	if m < t.timestamp {
		return MaxReading - t.timestamp + m
	}
	return m - t.timestamp
}

// IsOver reports whether the interval has elapsed. It does not reset the
// reference timestamp, so once true it keeps reporting true until
// ResetTime; every detection increments the trigger count. While a
// suspend window is in progress IsOver only watches for the window to
// end, re-activating the timer (keeping any carryover) and reporting
// false.
func (t *Timer) IsOver() bool {
	if !t.active {
		if t.suspendRemaining == 0 {
			return false
		}

		if t.Delta() >= t.suspendRemaining {
			t.active = true
			t.suspendRemaining = 0
			t.ResetTime()
			t.logger.Debug("suspend-ended", lager.Data{"carryover-ms": t.suspendCarryover})
		}

		return false
	}

	if t.Delta() >= t.remaining() {
		t.count++
		t.suspendCarryover = 0
		t.logger.Debug("elapsed", lager.Data{"count": t.count})
		return true
	}

	return false
}

// remaining is the interval minus any suspend carryover, floored at zero
// so a carryover larger than the interval cannot wrap the subtraction.
func (t *Timer) remaining() uint64 {
	if t.suspendCarryover >= t.interval {
		return 0
	}
	return t.interval - t.suspendCarryover
}

// IsDone is IsOver with an automatic reset: on a true result the
// reference timestamp restarts, so the next poll begins a fresh window.
func (t *Timer) IsDone() bool {
	if t.IsOver() {
		t.ResetTime()
		return true
	}
	return false
}

// Count returns how many times elapsed-detection has fired since the
// last ResetCount.
func (t *Timer) Count() uint64 {
	return t.count
}

// ResetCount sets the trigger count back to zero.
func (t *Timer) ResetCount() {
	t.count = 0
}

// IsEven reports whether the trigger count is nonzero and even.
func (t *Timer) IsEven() bool {
	return t.count != 0 && t.count%2 == 0
}

// IsOdd reports whether the trigger count is nonzero and odd.
func (t *Timer) IsOdd() bool {
	return t.count%2 == 1
}

// IsNever reports whether the timer has never been observed elapsed.
func (t *Timer) IsNever() bool {
	return t.count == 0
}
