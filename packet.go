package lrmp

// MTU bounds the size of a packet buffer.
const MTU = 1400

const (
	reliableHeaderLen   = 16
	unreliableHeaderLen = 8
)

// Packet is a payload buffer with room reserved in front for the LRMP
// header. The header itself is written by the codec, never by this package.
type Packet struct {
	reliable   bool
	offset     int
	buff       []byte
	maxDataLen int
	datalen    int
}

// NewPacket allocates a packet able to carry length bytes of payload,
// rounded up to a multiple of four and capped by the MTU.
func NewPacket(reliable bool, length int) *Packet {
	p := Packet{reliable: reliable}

	if reliable {
		p.offset = reliableHeaderLen
	} else {
		p.offset = unreliableHeaderLen
	}

	size := p.offset + length

	/* mod 4 */

	size = (size + 3) &^ 3

	if size > MTU {
		size = MTU
	}

	p.buff = make([]byte, size)
	p.maxDataLen = size - p.offset

	return &p
}

func (p *Packet) IsReliable() bool {
	return p.reliable
}

func (p *Packet) DataLength() int {
	return p.datalen
}

func (p *Packet) MaxDataLength() int {
	return p.maxDataLen
}

// SetDataLength sets the payload length, clamped to the buffer capacity.
func (p *Packet) SetDataLength(n int) {
	if n < 0 {
		n = 0
	} else if n > p.maxDataLen {
		n = p.maxDataLen
	}
	p.datalen = n
}

// DataBuffer returns the whole writable payload area.
func (p *Packet) DataBuffer() []byte {
	return p.buff[p.offset : p.offset+p.maxDataLen]
}

// Data returns the payload bytes.
func (p *Packet) Data() []byte {
	return p.buff[p.offset : p.offset+p.datalen]
}

// Bytes returns the header area followed by the payload, ready to be sent.
func (p *Packet) Bytes() []byte {
	return p.buff[:p.offset+p.datalen]
}
