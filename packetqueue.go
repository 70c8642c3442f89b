package lrmp

import (
	"container/heap"

	"github.com/pion/logging"
)

// Repair is one scheduled retransmission of a packet from Sender's stream.
// RetransmitID names the attempt, so it can be cancelled before its seqno is
// final.
type Repair struct {
	Sender       *Entity
	Seqno        int64
	Scope        int
	RetransmitID int
	Packet       *Packet
}

type repairHeap []*Repair

func (h repairHeap) Len() int           { return len(h) }
func (h repairHeap) Less(i, j int) bool { return h[i].Seqno < h[j].Seqno }
func (h repairHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *repairHeap) Push(x any) {
	*h = append(*h, x.(*Repair))
}

func (h *repairHeap) Pop() any {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return r
}

// RepairQueue orders pending repairs by ascending seqno. Repairs with equal
// seqnos, including ones from different senders, come out in no particular
// order.
//
// It is not safe for concurrent use.
type RepairQueue struct {
	queue repairHeap
	log   logging.LeveledLogger
}

// NewRepairQueue creates an empty queue. factory may be nil.
func NewRepairQueue(factory logging.LoggerFactory) *RepairQueue {
	return &RepairQueue{log: newLogger(factory, "lrmp-queue")}
}

func (pq *RepairQueue) IsEmpty() bool {
	return pq.queue.Len() == 0
}

func (pq *RepairQueue) Len() int {
	return pq.queue.Len()
}

// Clear drops every pending repair.
func (pq *RepairQueue) Clear() {
	pq.queue = nil
}

/**
 * adds the given repair to the queue.
 */
func (pq *RepairQueue) Enqueue(r *Repair) {
	heap.Push(&pq.queue, r)
}

// Contains reports whether r itself is queued.
func (pq *RepairQueue) Contains(r *Repair) bool {
	for _, p := range pq.queue {
		if p == r {
			return true
		}
	}
	return false
}

// Discard removes r itself, leaving other repairs with the same key queued.
func (pq *RepairQueue) Discard(r *Repair) bool {
	for i, p := range pq.queue {
		if p == r {
			heap.Remove(&pq.queue, i)
			return true
		}
	}
	return false
}

// Dequeue removes and returns the repair with the lowest seqno, or nil.
func (pq *RepairQueue) Dequeue() *Repair {
	if pq.queue.Len() == 0 {
		return nil
	}
	return heap.Pop(&pq.queue).(*Repair)
}

/**
* remove the repair with the given seqno from the queue. Senders match by id,
* so distinct handles sharing an id match each other.
 */
func (pq *RepairQueue) Remove(s *Entity, seqno int64, scope int) bool {
	for i, p := range pq.queue {
		if p.Sender.Equal(s) && p.Seqno == seqno && p.Scope == scope {
			heap.Remove(&pq.queue, i)
			return true
		}
	}
	return false
}

// Cancel removes the repair attempt id scheduled for s at the given scope.
func (pq *RepairQueue) Cancel(s *Entity, id int, scope int) bool {
	for i, p := range pq.queue {
		if p.Sender.Equal(s) && p.RetransmitID == id && p.Scope == scope {
			heap.Remove(&pq.queue, i)
			pq.log.Debugf("cancel resend %d %d", p.Seqno, pq.queue.Len())
			return true
		}
	}
	return false
}
