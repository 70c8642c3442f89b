package lrmp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/pion/logging"
	"golang.org/x/net/ipv4"
)

const maxPacketSize = MTU

// Session is the multicast socket of an LRMP session. It sends each packet
// with the TTL of its scope and implements Transmitter.
type Session struct {
	socket *ipv4.PacketConn
	gaddr  *net.UDPAddr

	packets atomic.Int64
	bytes   atomic.Int64

	mu        sync.Mutex
	closed    bool
	stopWatch func() bool
	wg        sync.WaitGroup

	log logging.LeveledLogger
}

// NewSession wraps conn for the session at group. factory may be nil.
func NewSession(conn net.PacketConn, group *net.UDPAddr, factory logging.LoggerFactory) *Session {
	return &Session{
		socket: ipv4.NewPacketConn(conn),
		gaddr:  group,
		log:    newLogger(factory, "lrmp-session"),
	}
}

// Listen opens a socket bound to the group port and joins the group on ifi.
// A nil ifi lets the system pick the interface.
func Listen(group *net.UDPAddr, ifi *net.Interface, factory logging.LoggerFactory) (*Session, error) {
	conn, err := net.ListenPacket("udp4", fmt.Sprintf("0.0.0.0:%d", group.Port))
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", group, err)
	}

	s := NewSession(conn, group, factory)

	if err := s.JoinGroup(ifi); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

// JoinGroup joins the session group on ifi and enables loopback so local
// members hear each other.
func (s *Session) JoinGroup(ifi *net.Interface) error {
	if err := s.socket.JoinGroup(ifi, s.gaddr); err != nil {
		return fmt.Errorf("join %s: %w", s.gaddr, err)
	}
	if ifi != nil {
		if err := s.socket.SetMulticastInterface(ifi); err != nil {
			return fmt.Errorf("multicast interface %s: %w", ifi.Name, err)
		}
	}
	if err := s.socket.SetMulticastLoopback(true); err != nil {
		return fmt.Errorf("multicast loopback: %w", err)
	}
	return nil
}

// Group returns the session address.
func (s *Session) Group() *net.UDPAddr {
	return s.gaddr
}

// LocalAddr returns the address the socket is bound to.
func (s *Session) LocalAddr() net.Addr {
	return s.socket.LocalAddr()
}

// Start delivers every datagram read from the socket to fn until ctx is
// done or the session is closed. fn runs on the reader goroutine and owns
// the slice it is given. A session has one reader; a second Start fails.
func (s *Session) Start(ctx context.Context, fn func(buf []byte, from *net.UDPAddr)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.stopWatch != nil {
		return ErrSessionStarted
	}

	s.stopWatch = context.AfterFunc(ctx, func() {
		_ = s.Close()
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		var buffer [maxPacketSize]byte
		for {
			n, _, addr, err := s.socket.ReadFrom(buffer[:])
			if err != nil {
				if !errors.Is(err, net.ErrClosed) {
					s.log.Errorf("reader exiting: %v", err)
				}
				return
			}

			s.packets.Add(1)
			s.bytes.Add(int64(n))

			from, _ := addr.(*net.UDPAddr)
			b := make([]byte, n)
			copy(b, buffer[:n])
			fn(b, from)
		}
	}()

	return nil
}

/**
 * sends data to the session using the provided TTL.
 */
func (s *Session) Send(buf []byte, ttl int) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return ErrSessionClosed
	}

	if err := s.socket.SetMulticastTTL(ttl); err != nil {
		s.log.Debugf("unable to set multicast ttl %d: %v", ttl, err)
	}
	if err := s.socket.SetTTL(ttl); err != nil {
		s.log.Debugf("unable to set ttl %d: %v", ttl, err)
	}

	if _, err := s.socket.WriteTo(buf, nil, s.gaddr); err != nil {
		return fmt.Errorf("write to %s: %w", s.gaddr, err)
	}

	return nil
}

// SendRepair sends the repair packet within its scope.
func (s *Session) SendRepair(r *Repair) error {
	if r.Packet == nil {
		return ErrNoPacket
	}
	return s.Send(r.Packet.Bytes(), r.Scope)
}

// Packets returns the number of datagrams received.
func (s *Session) Packets() int64 {
	return s.packets.Load()
}

// Bytes returns the number of bytes received.
func (s *Session) Bytes() int64 {
	return s.bytes.Load()
}

// Close closes the socket and waits for the reader to exit.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.closed = true
	stop := s.stopWatch
	s.mu.Unlock()

	if stop != nil {
		stop()
	}

	err := s.socket.Close()
	s.wg.Wait()

	return err
}
