package lrmp

import (
	"math/rand"
	"time"
)

const Modulo32 int64 = int64(1) << 32

/**
 * does 32-bit diff of seqno (seq1 - seq2). Handle overflow and underflow.
 * The result will be correct provided that the absolute diff is less than
 * Modulo32/2.
 */
func diff32(seq1, seq2 int64) int {
	diff := seq1 - seq2

	if diff > (Modulo32 >> 1) {
		diff -= Modulo32
	} else if diff < -(Modulo32 >> 1) {
		diff += Modulo32
	}

	return int(diff)
}

/* in interval 0.25i to 1.0i */
func randomize(i int) int {
	return (i * ((65536 + 3*(rand.Int()&0xffff)) >> 8)) >> 10
}

func addMillis(t time.Time, ms int) time.Time {
	return t.Add(time.Duration(ms) * time.Millisecond)
}
