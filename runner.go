package polltimer

import (
	"os"
	"time"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
)

// Runner hosts a single timer in a cooperative polling loop. On each
// tick of the poll interval the timer is polled exactly once: when it
// has elapsed the callback (if any) is dispatched and the interval
// window restarts. The timer is only ever touched from the Run
// goroutine, so the timer itself needs no locking.
type Runner struct {
	logger       lager.Logger
	timer        *Timer
	pollInterval time.Duration
	clock        clock.Clock
}

func NewRunner(logger lager.Logger, timer *Timer, pollInterval time.Duration, clock clock.Clock) *Runner {
	return &Runner{
		logger:       logger.Session("poll-timer-runner"),
		timer:        timer,
		pollInterval: pollInterval,
		clock:        clock,
	}
}

func (r *Runner) Run(signals <-chan os.Signal, ready chan<- struct{}) error {
	ticker := r.clock.NewTicker(r.pollInterval)
	defer ticker.Stop()

	close(ready)

	r.logger.Info("starting", lager.Data{"poll-interval": r.pollInterval.String()})

	for {
		select {
		case signal := <-signals:
			r.logger.Info("signalled", lager.Data{"signal": signal.String()})
			return nil

		case <-ticker.C():
			if r.timer.ExecCallback() {
				r.timer.ResetTime()
			} else if r.timer.IsDone() {
				r.logger.Debug("elapsed-without-callback", lager.Data{"count": r.timer.Count()})
			}
		}
	}
}
