package lrmp

// PacketCache keeps the most recent packets of a stream by seqno, for
// answering repair requests. Slots are reused modulo the cache size, so a
// newer packet evicts the one cached size seqnos earlier.
type PacketCache struct {
	buffer []*Packet
	seqnos []int64
	mask   int64
}

// NewPacketCache creates a cache holding size packets, rounded up to a
// power of two.
func NewPacketCache(size int) *PacketCache {
	mask := 1

	for mask < size {
		mask = mask << 1
	}

	return &PacketCache{
		buffer: make([]*Packet, mask),
		seqnos: make([]int64, mask),
		mask:   int64(mask - 1),
	}
}

/**
 * returns the maximum size of the cache.
 */
func (pc *PacketCache) MaxSize() int {
	return int(pc.mask + 1)
}

// Put caches p as packet seqno.
func (pc *PacketCache) Put(seqno int64, p *Packet) {
	i := seqno & pc.mask
	pc.buffer[i] = p
	pc.seqnos[i] = seqno
}

// Contains reports whether packet seqno is cached.
func (pc *PacketCache) Contains(seqno int64) bool {
	return pc.Get(seqno) != nil
}

/**
 * gets the packet corresponding to the given seqno.
 */
func (pc *PacketCache) Get(seqno int64) *Packet {
	i := seqno & pc.mask

	if pc.buffer[i] != nil && pc.seqnos[i] == seqno {
		return pc.buffer[i]
	}
	return nil
}

/**
 * remove the packet with the given seqno from the cache.
 */
func (pc *PacketCache) Remove(seqno int64) {
	i := seqno & pc.mask

	if pc.buffer[i] != nil && pc.seqnos[i] == seqno {
		pc.buffer[i] = nil
	}
}

func (pc *PacketCache) Clear() {
	for i := range pc.buffer {
		pc.buffer[i] = nil
	}
}
