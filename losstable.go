package lrmp

import "container/list"

// LossTable holds outstanding loss events in insertion order. It does not
// enforce one event per (source, reporter); callers check Lookup first.
type LossTable struct {
	events list.List
}

func NewLossTable() *LossTable {
	return &LossTable{}
}

func (lt *LossTable) Clear() {
	lt.events.Init()
}

func (lt *LossTable) Size() int {
	return lt.events.Len()
}

func (lt *LossTable) Add(ev *LossEvent) {
	lt.events.PushBack(ev)
}

// Remove deletes the first entry that is ev.
func (lt *LossTable) Remove(ev *LossEvent) {
	for next := lt.events.Front(); next != nil; next = next.Next() {
		if ev == next.Value {
			lt.events.Remove(next)
			return
		}
	}
}

// Lookup returns the first event whose source and reporter are the given
// handles, or nil.
func (lt *LossTable) Lookup(source, reporter *Entity) *LossEvent {
	for next := lt.events.Front(); next != nil; next = next.Next() {
		ev := next.Value.(*LossEvent)
		if ev.Source == source && ev.Reporter == reporter {
			return ev
		}
	}
	return nil
}

// Events returns a snapshot of the table in insertion order.
func (lt *LossTable) Events() []*LossEvent {
	out := make([]*LossEvent, 0, lt.events.Len())
	for next := lt.events.Front(); next != nil; next = next.Next() {
		out = append(out, next.Value.(*LossEvent))
	}
	return out
}

// ForEach calls fn for every event in insertion order. fn must not modify
// the table.
func (lt *LossTable) ForEach(fn func(ev *LossEvent)) {
	for next := lt.events.Front(); next != nil; next = next.Next() {
		fn(next.Value.(*LossEvent))
	}
}
