package consoleproxy

import "time"

// idleBackoff paces Run while the transport has nothing to report. The first
// idle poll after activity retries at once; later idle polls sleep floor,
// then double up to ceil.
type idleBackoff struct {
	floor time.Duration
	ceil  time.Duration
	idle  int // consecutive idle polls since the last event
}

func newIdleBackoff(floor, ceil time.Duration) *idleBackoff {
	if ceil < floor {
		ceil = floor
	}
	return &idleBackoff{floor: floor, ceil: ceil}
}

// wait returns how long to sleep after an idle poll.
func (b *idleBackoff) wait() time.Duration {
	b.idle++
	if b.idle == 1 {
		return 0
	}
	d := b.floor
	for i := 2; i < b.idle && d < b.ceil; i++ {
		d *= 2
	}
	return min(d, b.ceil)
}

// active records that the transport yielded an event.
func (b *idleBackoff) active() {
	b.idle = 0
}
