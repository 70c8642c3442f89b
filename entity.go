package lrmp

import (
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	// UnknownRTT is the rtt of an entity that has not been measured.
	UnknownRTT = 0
	// UnknownDistance is the hop count of an entity whose distance is not known.
	UnknownDistance = 255
)

// Entity is a session participant. Two entities are equal when their ids
// are equal; the *Entity handle itself is the identity used by the loss table.
type Entity struct {
	ipAddr        *net.UDPAddr
	lastTimeHeard time.Time
	nack          int
	id            uint32

	// round trip time in millis.
	rtt int
	// approx number of hops from local site.
	distance int
}

// NewEntity creates an entity with unknown rtt and distance.
func NewEntity(id uint32, addr *net.UDPAddr) *Entity {
	return &Entity{id: id, ipAddr: addr, rtt: UnknownRTT, distance: UnknownDistance}
}

// AllocateID returns a random entity id.
func AllocateID() uint32 {
	return uuid.New().ID()
}

func (e *Entity) String() string {
	addr := "<nil>"
	if e.ipAddr != nil {
		addr = e.ipAddr.String()
	}
	return strconv.FormatUint(uint64(e.id), 16) + "@" + addr
}

// Equal reports whether e and o carry the same id.
func (e *Entity) Equal(o *Entity) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.id == o.id
}

func (e *Entity) ID() uint32 {
	return e.id
}

func (e *Entity) setID(id uint32) {
	e.id = id
}

func (e *Entity) IncNack() {
	e.nack++
}

func (e *Entity) NackCount() int {
	return e.nack
}

func (e *Entity) Address() *net.UDPAddr {
	return e.ipAddr
}
func (e *Entity) SetLastTimeHeard(time time.Time) {
	e.lastTimeHeard = time
}
func (e *Entity) LastTimeHeard() time.Time {
	return e.lastTimeHeard
}
func (e *Entity) SetAddress(addr *net.UDPAddr) {
	e.ipAddr = addr
}
func (e *Entity) RTT() int {
	return e.rtt
}
func (e *Entity) SetRTT(rtt int) {
	e.rtt = rtt
}

// Reset clears the per-peer history kept for an entity that rejoined.
func (e *Entity) Reset() {
	e.nack = 0
	e.lastTimeHeard = time.Unix(0, 0)
	e.distance = UnknownDistance
}

func (e *Entity) Distance() int {
	return e.distance
}
func (e *Entity) SetDistance(distance int) {
	e.distance = distance
}

// silence returns how long the entity has been quiet as of now.
func (e *Entity) silence(now time.Time) time.Duration {
	return now.Sub(e.lastTimeHeard)
}

func sameAddress(a, b *net.UDPAddr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}
