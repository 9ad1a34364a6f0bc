package circle

import (
	"time"

	"github.com/ethereum/go-ethereum/common/prque"
)

// backoff paces the idle poll loop once neither work nor a token has
// shown up for a while, instead of spinning a core at full tilt on
// Probe calls that keep coming back empty. It uses the same priority
// queue the teacher's downloader schedules fetch timeouts with, keyed
// by wake time, so a future second pending wake (there is room for one,
// even though today only one is ever outstanding) would already sort
// correctly.
type backoff struct {
	sched  *prque.Prque[int64, struct{}]
	rounds int
	cap    time.Duration
}

func newBackoff(cap time.Duration) *backoff {
	if cap <= 0 {
		cap = 250 * time.Millisecond
	}
	return &backoff{sched: prque.New[int64, struct{}](nil), cap: cap}
}

// observedActivity resets the backoff the moment any message, work
// item, or token is seen, so a burst of activity after a quiet period
// returns immediately to tight polling.
func (b *backoff) observedActivity() {
	b.rounds = 0
}

// idleRound records one more empty poll and, once eight consecutive
// rounds have come back empty, sleeps for an exponentially growing
// delay capped at b.cap.
func (b *backoff) idleRound() {
	b.rounds++
	if b.rounds < 8 {
		return
	}
	shift := uint(b.rounds - 8)
	if shift > 16 {
		shift = 16
	}
	delay := time.Duration(1<<shift) * time.Millisecond
	if delay > b.cap {
		delay = b.cap
	}
	wake := time.Now().Add(delay)
	b.sched.Push(struct{}{}, -wake.UnixNano())
	_, prio := b.sched.Peek()
	if d := time.Until(time.Unix(0, -prio)); d > 0 {
		time.Sleep(d)
	}
	b.sched.PopItem()
}
