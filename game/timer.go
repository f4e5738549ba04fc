package game

import (
	"sync"
	"sync/atomic"
	"time"
)

// countdownTimer drives a fixed-length countdown in one-step increments so
// that every remaining-time tick can be broadcast. It is owned exclusively by
// the round (or room countdown) that started it.
//
// Cancel is idempotent: cancelling a timer that has already fired or already
// been cancelled is a no-op. Callbacks run on the timer's own goroutine; the
// caller is expected to re-acquire the room lock inside onExpire and re-check
// state there, so a cancelled timer can never drive a duplicate transition.
type countdownTimer struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
	live atomic.Bool
}

func startCountdownTimer(seconds int64, step time.Duration, onTick func(remaining int64), onExpire func()) *countdownTimer {
	t := &countdownTimer{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	t.live.Store(true)

	go func() {
		defer close(t.done)
		for remaining := seconds - 1; remaining >= 1; remaining-- {
			select {
			case <-time.After(step):
				onTick(remaining)
			case <-t.stop:
				return
			}
		}
		select {
		case <-time.After(step):
		case <-t.stop:
			return
		}
		t.live.Store(false)
		onExpire()
	}()

	return t
}

// Cancel stops the countdown. Safe to call any number of times, from any
// goroutine, including after natural expiry.
func (t *countdownTimer) Cancel() {
	t.once.Do(func() {
		t.live.Store(false)
		close(t.stop)
	})
}

// Live reports whether the countdown is still running. A late answer checked
// against a dead timer is stale.
func (t *countdownTimer) Live() bool {
	return t.live.Load()
}

// Done closes once the timer goroutine has fully exited.
func (t *countdownTimer) Done() <-chan struct{} {
	return t.done
}
