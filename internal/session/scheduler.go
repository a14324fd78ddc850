package session

import "time"

// Scheduler runs task once after delay. The returned func cancels a task that
// has not started yet.
type Scheduler interface {
	Schedule(delay time.Duration, task func()) (cancel func())
}

type timerScheduler struct{}

func (timerScheduler) Schedule(delay time.Duration, task func()) func() {
	timer := time.AfterFunc(delay, task)

	return func() { timer.Stop() }
}
