package lrmp

// EntityTable is the directory of known entities, indexed by id.
//
// It is not safe for concurrent use.
type EntityTable struct {
	entities map[uint32]*Entity
}

func NewEntityTable() *EntityTable {
	return &EntityTable{entities: make(map[uint32]*Entity)}
}

// Lookup returns the entity registered under id, or nil.
func (t *EntityTable) Lookup(id uint32) *Entity {
	return t.entities[id]
}

// Add inserts e, replacing whatever was registered under its id.
func (t *EntityTable) Add(e *Entity) {
	t.entities[e.ID()] = e
}

// Remove drops the entry registered under e's id. When that entry is a
// different object than e, e is put back in its place and the removed
// entry is discarded.
func (t *EntityTable) Remove(e *Entity) {
	old, ok := t.entities[e.ID()]
	if !ok {
		return
	}
	delete(t.entities, e.ID())
	if old != e {
		t.Add(e)
	}
}

// Prune removes every entity for which pred returns true and returns the
// number removed.
func (t *EntityTable) Prune(pred func(e *Entity) bool) int {
	n := 0
	for id, e := range t.entities {
		if pred(e) {
			delete(t.entities, id)
			n++
		}
	}
	return n
}

func (t *EntityTable) Size() int {
	return len(t.entities)
}

// Entities returns a snapshot of the current entities in no particular order.
func (t *EntityTable) Entities() []*Entity {
	out := make([]*Entity, 0, len(t.entities))
	for _, e := range t.entities {
		out = append(out, e)
	}
	return out
}

// ForEach calls fn for every entity. fn must not modify the table.
func (t *EntityTable) ForEach(fn func(e *Entity)) {
	for _, e := range t.entities {
		fn(e)
	}
}
