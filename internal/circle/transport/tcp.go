package transport

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/gopool"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
)

// TCP is a real-network Transport for a fixed, statically addressed peer
// set (spec Non-goal: no dynamic join/leave). Every pair of ranks shares
// exactly one full-duplex TCP connection; messages are framed as
// [1 byte tag][4 byte big-endian length][payload] and demultiplexed by a
// single reader goroutine per connection into per-(tag, sender) queues,
// mirroring Mem's addressing scheme so the driver code in internal/circle
// is unaware which Transport it's holding.
type TCP struct {
	rank, size int
	conns      []net.Conn // conns[peer] == nil for peer == rank
	writeCh    []chan frame
	inbound    [3][]*fifo
	log        log.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

type frame struct {
	tag     Tag
	payload []byte
}

// DialTCPNetwork establishes a fully connected mesh across hosts (indexed
// by rank) and returns this process's Transport for the given rank. Lower
// ranks listen and accept; higher ranks dial, so connection setup has a
// deterministic direction and never races two peers dialing each other.
func DialTCPNetwork(rank int, hosts []string, dialTimeout time.Duration) (*TCP, error) {
	size := len(hosts)
	if rank < 0 || rank >= size {
		return nil, fmt.Errorf("transport: rank %d out of range [0,%d)", rank, size)
	}

	t := &TCP{
		rank:   rank,
		size:   size,
		conns:  make([]net.Conn, size),
		writeCh: make([]chan frame, size),
		closed: make(chan struct{}),
		log:    log.New("rank", rank),
	}
	for i := 0; i < 3; i++ {
		t.inbound[i] = make([]*fifo, size)
		for s := range t.inbound[i] {
			t.inbound[i][s] = &fifo{}
		}
	}

	ln, err := net.Listen("tcp", hosts[rank])
	if err != nil {
		return nil, errors.Wrapf(err, "transport: listen on %s", hosts[rank])
	}
	defer ln.Close()

	higherPeers := size - rank - 1
	accepted := make(chan net.Conn, higherPeers)
	acceptErr := make(chan error, 1)
	go func() {
		for i := 0; i < higherPeers; i++ {
			conn, err := ln.Accept()
			if err != nil {
				acceptErr <- err
				return
			}
			accepted <- conn
		}
	}()

	for peer := rank + 1; peer < size; peer++ {
		var conn net.Conn
		select {
		case conn = <-accepted:
		case err := <-acceptErr:
			return nil, errors.Wrap(err, "transport: accept")
		}
		peerRank, err := readHandshake(conn)
		if err != nil {
			return nil, err
		}
		t.conns[peerRank] = conn
	}

	for peer := 0; peer < rank; peer++ {
		conn, err := net.DialTimeout("tcp", hosts[peer], dialTimeout)
		if err != nil {
			return nil, errors.Wrapf(err, "transport: dial rank %d at %s", peer, hosts[peer])
		}
		if err := writeHandshake(conn, rank); err != nil {
			return nil, err
		}
		t.conns[peer] = conn
	}

	for peer, conn := range t.conns {
		if conn == nil {
			continue
		}
		peer, conn := peer, conn
		t.writeCh[peer] = make(chan frame, 256)
		if err := gopool.Submit(func() { t.readLoop(peer, conn) }); err != nil {
			go t.readLoop(peer, conn)
		}
		if err := gopool.Submit(func() { t.writeLoop(peer, conn) }); err != nil {
			go t.writeLoop(peer, conn)
		}
	}
	return t, nil
}

func writeHandshake(conn net.Conn, rank int) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(rank))
	_, err := conn.Write(buf[:])
	return errors.Wrap(err, "transport: handshake write")
}

func readHandshake(conn net.Conn) (int, error) {
	var buf [4]byte
	if _, err := io.ReadFull(conn, buf[:]); err != nil {
		return 0, errors.Wrap(err, "transport: handshake read")
	}
	return int(binary.BigEndian.Uint32(buf[:])), nil
}

func (t *TCP) readLoop(peer int, conn net.Conn) {
	r := bufio.NewReader(conn)
	var hdr [5]byte
	for {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if !t.isClosed() {
				t.log.Warn("transport: peer connection closed", "peer", peer, "err", err)
			}
			return
		}
		tag := Tag(hdr[0])
		n := binary.BigEndian.Uint32(hdr[1:])
		payload := make([]byte, n)
		if _, err := io.ReadFull(r, payload); err != nil {
			t.log.Warn("transport: short read from peer", "peer", peer, "err", err)
			return
		}
		if int(tag) >= len(t.inbound) {
			t.log.Error("transport: protocol violation, unknown tag", "peer", peer, "tag", tag)
			continue
		}
		t.inbound[tag][peer].push(payload)
	}
}

func (t *TCP) writeLoop(peer int, conn net.Conn) {
	for {
		select {
		case f := <-t.writeCh[peer]:
			var hdr [5]byte
			hdr[0] = byte(f.tag)
			binary.BigEndian.PutUint32(hdr[1:], uint32(len(f.payload)))
			if _, err := conn.Write(hdr[:]); err != nil {
				t.log.Warn("transport: write header failed", "peer", peer, "err", err)
				return
			}
			if _, err := conn.Write(f.payload); err != nil {
				t.log.Warn("transport: write payload failed", "peer", peer, "err", err)
				return
			}
		case <-t.closed:
			return
		}
	}
}

func (t *TCP) isClosed() bool {
	select {
	case <-t.closed:
		return true
	default:
		return false
	}
}

var _ Transport = (*TCP)(nil)

func (t *TCP) Rank() int { return t.rank }
func (t *TCP) Size() int { return t.size }

func (t *TCP) Send(dest int, tag Tag, payload []byte) error {
	if t.isClosed() {
		return ErrClosed
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	if dest == t.rank {
		t.inbound[tag][dest].push(cp)
		return nil
	}
	select {
	case t.writeCh[dest] <- frame{tag: tag, payload: cp}:
		return nil
	case <-t.closed:
		return ErrClosed
	}
}

func (t *TCP) Probe(source int, tag Tag) (int, bool) {
	if source != AnySource {
		if t.inbound[tag][source].peekNonEmpty() {
			return source, true
		}
		return -1, false
	}
	for s := 0; s < t.size; s++ {
		if s == t.rank {
			continue
		}
		if t.inbound[tag][s].peekNonEmpty() {
			return s, true
		}
	}
	return -1, false
}

func (t *TCP) Recv(source int, tag Tag) ([]byte, error) {
	b, ok := t.inbound[tag][source].pop()
	if !ok {
		return nil, ErrClosed
	}
	return b, nil
}

func (t *TCP) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)
		for _, c := range t.conns {
			if c != nil {
				c.Close()
			}
		}
	})
	return nil
}
