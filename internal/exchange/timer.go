package exchange

import (
	"time"
)

// runTimer injects a timer event into the dispatcher on every tick while
// the subsystem is running. All retry and retransmit decisions happen in
// the state handlers; the worker itself holds no state.
func (e *Exchange) runTimer() {
	ticker := time.NewTicker(timerTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.timerDone:
			return
		case <-ticker.C:
			e.handleTimerEvent()
		}
	}
}
