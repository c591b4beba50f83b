package rlpx

import (
	"fmt"

	"github.com/latticelayer/execution-core/internal/metrics"
)

// PendingConn is a freshly-keyed connection awaiting the peer's Hello
// message, per spec §4.5's connection state machine. It accepts exactly
// one transition: ReceiveHello.
type PendingConn struct {
	conn *Conn
}

// NewPendingConn wraps conn as a connection that has not yet completed its
// Hello exchange.
func NewPendingConn(conn *Conn) *PendingConn {
	return &PendingConn{conn: conn}
}

// SendHello frames and writes hello without requiring the capability
// negotiation Established enforces — both sides send Hello before either
// has seen the other's.
func (p *PendingConn) SendHello(hello *Hello) error {
	body, err := hello.encode()
	if err != nil {
		return err
	}
	return p.conn.WriteFrame(encodeMessage(helloMessageID, body))
}

// ReceiveHello reads the next frame, requiring it to be a Hello message; any
// other message id is a protocol violation and the caller should close the
// connection. On success it returns the negotiated Established connection
// and the peer's advertised Hello.
func (p *PendingConn) ReceiveHello() (*EstablishedConn, *Hello, error) {
	frame, err := p.conn.ReadFrame()
	if err != nil {
		return nil, nil, err
	}
	id, body, err := decodeMessage(frame)
	if err != nil {
		return nil, nil, err
	}
	if id != helloMessageID {
		return nil, nil, fmt.Errorf("rlpx: protocol violation: expected Hello (id %d), got id %d", helloMessageID, id)
	}
	hello, err := decodeHello(body)
	if err != nil {
		return nil, nil, err
	}
	capabilities := NegotiateCapabilities(BaselineCapabilities, hello.Capabilities)
	metrics.RLPxEstablishedSessions.Inc()
	return &EstablishedConn{conn: p.conn, capabilities: capabilities}, hello, nil
}

// Close releases the session the Hello exchange established, decrementing
// the live-session gauge. Callers that tear down an EstablishedConn (peer
// disconnect, shutdown) must call this exactly once.
func (e *EstablishedConn) Close() {
	metrics.RLPxEstablishedSessions.Dec()
}

// EstablishedConn is a connection that has completed its Hello exchange and
// accepts the full capability-negotiated message set. Send and receive are
// independent per spec §5: each direction serializes its own calls, but the
// two directions never share state.
type EstablishedConn struct {
	conn         *Conn
	capabilities []Capability
}

// Capabilities returns the capability set this connection negotiated.
func (e *EstablishedConn) Capabilities() []Capability {
	return e.capabilities
}

// Send frames and writes a message of the given id.
func (e *EstablishedConn) Send(id MessageID, body []byte) error {
	return e.conn.WriteFrame(encodeMessage(id, body))
}

// Receive reads the next frame and returns its message id and payload,
// leaving dispatch on id to the caller.
func (e *EstablishedConn) Receive() (MessageID, []byte, error) {
	frame, err := e.conn.ReadFrame()
	if err != nil {
		return 0, nil, err
	}
	return decodeMessage(frame)
}
