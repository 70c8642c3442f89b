package lrmp

import (
	"fmt"
	"strconv"
)

// LossEvent records an outstanding loss reported by Reporter for data sent
// by Source. Low and Bitmask describe the lost packets in NACK form: Low is
// the first missing seqno and bit i set means Low+i+1 is missing too.
type LossEvent struct {
	Source   *Entity
	Reporter *Entity

	Low       int64
	Bitmask   uint32
	Scope     int
	NackCount int

	// Repair is the attempt scheduled to answer this loss, if any.
	Repair *Repair
	// Timer is the task armed for Repair.
	Timer *TimerTask
	// Data is opaque caller state.
	Data any
}

func NewLossEvent(source, reporter *Entity) *LossEvent {
	return &LossEvent{Source: source, Reporter: reporter}
}

func (ev *LossEvent) String() string {
	return fmt.Sprint(ev.Reporter, " -> ", ev.Source, " : ", ev.Low, "/", strconv.FormatUint(uint64(ev.Bitmask), 16), "@", ev.Scope)
}

// ComputeBitmask fills Low and Bitmask from the receive state of a stream:
// expected is the next in-order seqno, maxseq the highest seen and isCached
// reports whether a seqno has already been received. Low is -1 when nothing
// is missing.
func (ev *LossEvent) ComputeBitmask(expected, maxseq int64, isCached func(seqno int64) bool) {
	ev.Low = expected

	maxdiff := diff32(maxseq, ev.Low)

	if maxdiff < 0 {
		ev.Low = -1 /* no loss */

		return
	} else if maxdiff > 32 {
		maxdiff = 32
	}

	/*
	 * set a bit to 1 for a packet lost.
	 */
	ev.Bitmask = 0

	for i := 1; i <= maxdiff; i++ {
		if !isCached(ev.Low + int64(i)) {
			ev.Bitmask |= uint32(0x1 << uint(i-1))
		}
	}
}

// Contains reports whether every packet reported lost by other is also
// reported lost by ev.
func (ev *LossEvent) Contains(other *LossEvent) bool {
	diff := diff32(other.Low, ev.Low)

	if diff == 0 {
		return (other.Bitmask &^ ev.Bitmask) == 0
	}
	if diff < 0 || diff > 32 {
		return false
	}

	rest := ev.Bitmask >> uint(diff-1)

	if rest&0x01 == 0 {
		return false
	}

	rest >>= 1

	return (other.Bitmask &^ rest) == 0
}
