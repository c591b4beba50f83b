// Package p2p runs the peer session supervisor of spec §4.13: a minimal TCP
// listener/dialer pair that turns raw streams, plus already-derived
// handshake secrets, into rlpx.Conn framed sessions. The handshake
// itself (ECIES key agreement, EIP-8 Ack framing) is out of scope — Dial and
// Accept both take a Secrets value the caller already produced.
package p2p

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/btree"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/latticelayer/execution-core/internal/rlpx"
)

// dialedCacheSize bounds how many recently-dialed peer addresses are
// remembered, so repeated Dial calls against one peer within redialBackoff
// are refused instead of opening a new connection each time.
const dialedCacheSize = 1024

// redialBackoff is how long a peer address stays in the recently-dialed
// cache after a dial attempt, whether or not it succeeded.
const redialBackoff = 30 * time.Second

// Secrets is the already-derived handshake output this package consumes:
// the symmetric AES/MAC keys and both parties' nonces and init (auth/ack)
// bytes, per spec §4.5's framing-state seed.
type Secrets struct {
	AESKey          []byte
	MACKey          []byte
	LocalNonce      []byte
	LocalInitBytes  []byte
	RemoteNonce     []byte
	RemoteInitBytes []byte
}

// peerScore is one peer's entry in the supervisor's ordered score index,
// per spec §4.13's "ordered peer-score index" — higher scores sort later,
// breaking ties by peer ID so the index has a total order.
type peerScore struct {
	id    string
	score int64
}

func (p *peerScore) Less(than btree.Item) bool {
	other := than.(*peerScore)
	if p.score != other.score {
		return p.score < other.score
	}
	return p.id < other.id
}

// Supervisor owns the listener side of peer sessions and the bookkeeping
// (recently-dialed cache, peer-score index) spec §4.13 asks for. It does
// not run discovery — peer addresses are supplied by the caller.
type Supervisor struct {
	listener net.Listener

	mu        sync.Mutex
	dialed    *lru.Cache[string, time.Time]
	scores    *btree.BTree
	scoreByID map[string]*peerScore
}

// NewSupervisor builds a Supervisor listening on addr. Pass "" to skip
// accepting inbound connections (dial-only mode).
func NewSupervisor(addr string) (*Supervisor, error) {
	dialed, err := lru.New[string, time.Time](dialedCacheSize)
	if err != nil {
		return nil, err
	}
	s := &Supervisor{
		dialed:    dialed,
		scores:    btree.New(16),
		scoreByID: make(map[string]*peerScore),
	}
	if addr != "" {
		l, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("p2p: listening on %s: %w", addr, err)
		}
		s.listener = l
	}
	return s, nil
}

// Addr returns the supervisor's listen address, or nil in dial-only mode.
func (s *Supervisor) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops accepting new inbound connections. In-flight sessions are
// unaffected.
func (s *Supervisor) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// Dial opens a TCP connection to addr and wraps it in an rlpx.Conn using
// secrets, recording the attempt in the recently-dialed cache regardless of
// outcome. If addr was dialed within redialBackoff, Dial returns an error
// without attempting a new connection.
func (s *Supervisor) Dial(ctx context.Context, addr string, secrets Secrets) (*rlpx.Conn, error) {
	if last, ok := s.dialed.Get(addr); ok && time.Since(last) < redialBackoff {
		return nil, fmt.Errorf("p2p: %s dialed %s ago, within backoff", addr, time.Since(last))
	}
	s.dialed.Add(addr, time.Now())

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("p2p: dialing %s: %w", addr, err)
	}
	rlpxConn, err := rlpx.NewConn(conn, secrets.AESKey, secrets.MACKey,
		secrets.LocalNonce, secrets.LocalInitBytes, secrets.RemoteNonce, secrets.RemoteInitBytes)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return rlpxConn, nil
}

// Accept blocks for the next inbound TCP connection and wraps it in an
// rlpx.Conn using secrets — in practice secrets for an inbound connection
// come from whatever handshake implementation sits in front of this
// supervisor; this layer only ever consumes their output.
func (s *Supervisor) Accept(secrets Secrets) (*rlpx.Conn, error) {
	if s.listener == nil {
		return nil, fmt.Errorf("p2p: supervisor is dial-only, no listener configured")
	}
	conn, err := s.listener.Accept()
	if err != nil {
		return nil, err
	}
	rlpxConn, err := rlpx.NewConn(conn, secrets.AESKey, secrets.MACKey,
		secrets.LocalNonce, secrets.LocalInitBytes, secrets.RemoteNonce, secrets.RemoteInitBytes)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return rlpxConn, nil
}

// UpdateScore adjusts id's score by delta (e.g. after a useful or
// misbehaving message), inserting a fresh zero-score entry first if id is
// unseen.
func (s *Supervisor) UpdateScore(id string, delta int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.scoreByID[id]
	if ok {
		s.scores.Delete(existing)
	} else {
		existing = &peerScore{id: id}
	}
	existing.score += delta
	s.scoreByID[id] = existing
	s.scores.ReplaceOrInsert(existing)
}

// TopPeers returns up to n peer IDs with the highest scores, highest first.
func (s *Supervisor) TopPeers(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, n)
	s.scores.Descend(func(item btree.Item) bool {
		out = append(out, item.(*peerScore).id)
		return len(out) < n
	})
	return out
}
