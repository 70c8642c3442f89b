package lrmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPacketCache(t *testing.T) {
	pc := NewPacketCache(100)
	assert.Equal(t, 128, pc.MaxSize())

	p := NewPacket(true, 4)
	pc.Put(5, p)

	assert.True(t, pc.Contains(5))
	assert.Same(t, p, pc.Get(5))
	assert.Nil(t, pc.Get(6))

	// same slot, newer seqno
	q := NewPacket(true, 4)
	pc.Put(5+128, q)
	assert.False(t, pc.Contains(5))
	assert.Same(t, q, pc.Get(133))

	pc.Remove(5)
	assert.True(t, pc.Contains(133), "remove ignores a stale seqno")

	pc.Remove(133)
	assert.False(t, pc.Contains(133))

	pc.Put(1, p)
	pc.Clear()
	assert.False(t, pc.Contains(1))
}

func TestPacketCacheFeedsBitmask(t *testing.T) {
	pc := NewPacketCache(32)
	for _, seqno := range []int64{20, 22, 23} {
		pc.Put(seqno, NewPacket(true, 1))
	}

	ev := NewLossEvent(nil, nil)
	ev.ComputeBitmask(19, 23, pc.Contains)

	assert.Equal(t, int64(19), ev.Low)
	assert.Equal(t, uint32(0x2), ev.Bitmask, "only 21 missing after 19")
}
