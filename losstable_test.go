package lrmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLossTableLookup(t *testing.T) {
	a := NewEntity(1, testAddr(1))
	b := NewEntity(2, testAddr(2))
	c := NewEntity(3, testAddr(3))

	table := NewLossTable()
	assert.Nil(t, table.Lookup(a, b))

	ab := NewLossEvent(a, b)
	ac := NewLossEvent(a, c)
	table.Add(ab)
	table.Add(ac)

	assert.Same(t, ab, table.Lookup(a, b))
	assert.Same(t, ac, table.Lookup(a, c))
	assert.Nil(t, table.Lookup(b, a))
	assert.Equal(t, 2, table.Size())

	table.Remove(ab)
	assert.Nil(t, table.Lookup(a, b))
	assert.Same(t, ac, table.Lookup(a, c), "disjoint pairs do not interfere")
}

func TestLossTableMatchesHandlesNotIDs(t *testing.T) {
	a := NewEntity(1, testAddr(1))
	b := NewEntity(2, testAddr(2))
	bAgain := NewEntity(2, testAddr(2))

	table := NewLossTable()
	table.Add(NewLossEvent(a, b))

	assert.Nil(t, table.Lookup(a, bAgain))
}

func TestLossTableKeepsDuplicates(t *testing.T) {
	a := NewEntity(1, testAddr(1))
	b := NewEntity(2, testAddr(2))

	first := NewLossEvent(a, b)
	second := NewLossEvent(a, b)

	table := NewLossTable()
	table.Add(first)
	table.Add(second)

	assert.Equal(t, 2, table.Size())
	assert.Same(t, first, table.Lookup(a, b))

	table.Remove(first)
	assert.Same(t, second, table.Lookup(a, b))
}

func TestLossTableOrderAndClear(t *testing.T) {
	a := NewEntity(1, testAddr(1))
	events := []*LossEvent{
		NewLossEvent(a, NewEntity(2, testAddr(2))),
		NewLossEvent(a, NewEntity(3, testAddr(3))),
		NewLossEvent(a, NewEntity(4, testAddr(4))),
	}

	table := NewLossTable()
	for _, ev := range events {
		table.Add(ev)
	}

	assert.Equal(t, events, table.Events())

	var order []*LossEvent
	table.ForEach(func(ev *LossEvent) { order = append(order, ev) })
	assert.Equal(t, events, order)

	table.Clear()
	assert.Zero(t, table.Size())
	assert.Empty(t, table.Events())
}

func TestLossEventComputeBitmask(t *testing.T) {
	cached := map[int64]bool{12: true, 14: true}
	isCached := func(seqno int64) bool { return cached[seqno] }

	ev := NewLossEvent(nil, nil)
	ev.ComputeBitmask(10, 14, isCached)

	assert.Equal(t, int64(10), ev.Low)
	assert.Equal(t, uint32(0x5), ev.Bitmask, "11 and 13 missing")

	ev.ComputeBitmask(10, 9, isCached)
	assert.Equal(t, int64(-1), ev.Low)
}

func TestLossEventContains(t *testing.T) {
	// lost 10, 11 and 13
	ev := &LossEvent{Low: 10, Bitmask: 0x5}

	tests := []struct {
		name  string
		other LossEvent
		want  bool
	}{
		{"same", LossEvent{Low: 10, Bitmask: 0x5}, true},
		{"subset same low", LossEvent{Low: 10, Bitmask: 0x1}, true},
		{"extra loss", LossEvent{Low: 10, Bitmask: 0x2}, false},
		{"later low", LossEvent{Low: 11, Bitmask: 0x2}, true},
		{"later low not lost", LossEvent{Low: 12}, false},
		{"earlier low", LossEvent{Low: 9}, false},
		{"far away", LossEvent{Low: 100}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ev.Contains(&tt.other))
		})
	}
}
