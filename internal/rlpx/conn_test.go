package rlpx

import (
	"bytes"
	"crypto/rand"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

// pairedConns builds two Conns sharing one secret set, wired so that a's
// egress matches b's ingress and vice versa — the shape two ends of one
// real handshake would derive.
func pairedConns(t *testing.T) (a, b *Conn) {
	t.Helper()
	aesKey := randBytes(t, 32)
	macKey := randBytes(t, 32)
	aNonce := randBytes(t, 32)
	bNonce := randBytes(t, 32)
	aInit := randBytes(t, 64)
	bInit := randBytes(t, 64)

	ab, ba := net.Pipe()

	a, err := NewConn(ab, aesKey, macKey, aNonce, aInit, bNonce, bInit)
	require.NoError(t, err)
	b, err = NewConn(ba, aesKey, macKey, bNonce, bInit, aNonce, aInit)
	require.NoError(t, err)
	return a, b
}

func randBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

func TestFrameRoundTrip(t *testing.T) {
	a, b := pairedConns(t)

	payload := []byte("hello rlpx")
	done := make(chan error, 1)
	go func() { done <- a.WriteFrame(payload) }()

	got, err := b.ReadFrame()
	require.NoError(t, err)
	require.NoError(t, <-done)
	require.Equal(t, payload, got)
}

func TestFrameRoundTripMultipleFrames(t *testing.T) {
	a, b := pairedConns(t)

	frames := [][]byte{
		[]byte("first"),
		bytes.Repeat([]byte{0x42}, 100), // spans multiple 16-byte blocks
		[]byte{},
	}

	for _, f := range frames {
		f := f
		done := make(chan error, 1)
		go func() { done <- a.WriteFrame(f) }()
		got, err := b.ReadFrame()
		require.NoError(t, err)
		require.NoError(t, <-done)
		require.Equal(t, f, got)
	}
}

// bufConn is an io.ReadWriter over a plain buffer, letting a tamper test
// write a frame, flip a bit, then read it back without any goroutine or
// net.Pipe synchronization to manage.
type bufConn struct {
	*bytes.Buffer
}

func TestFrameRejectsTamperedHeader(t *testing.T) {
	aesKey := randBytes(t, 32)
	macKey := randBytes(t, 32)
	aNonce := randBytes(t, 32)
	bNonce := randBytes(t, 32)
	aInit := randBytes(t, 64)
	bInit := randBytes(t, 64)

	buf := &bufConn{Buffer: &bytes.Buffer{}}

	a, err := NewConn(buf, aesKey, macKey, aNonce, aInit, bNonce, bInit)
	require.NoError(t, err)
	require.NoError(t, a.WriteFrame([]byte("tampered")))

	raw := buf.Bytes()
	raw[0] ^= 0xff // corrupt the header ciphertext in place

	b, err := NewConn(buf, aesKey, macKey, bNonce, bInit, aNonce, aInit)
	require.NoError(t, err)
	_, err = b.ReadFrame()
	require.Error(t, err)
}

func TestHelloExchange(t *testing.T) {
	a, b := pairedConns(t)

	aHello := &Hello{
		ProtocolVersion: 5,
		ClientID:        "execution-core/v0",
		Capabilities:    []Capability{{Name: "p2p", Version: 5}, {Name: "eth", Version: 68}},
		ListenPort:      30303,
		NodeID:          randBytes(t, 64),
	}
	bHello := &Hello{
		ProtocolVersion: 5,
		ClientID:        "peer/v1",
		Capabilities:    BaselineCapabilities,
		ListenPort:      30304,
		NodeID:          randBytes(t, 64),
	}

	aPending := NewPendingConn(a)
	bPending := NewPendingConn(b)

	aDone := make(chan error, 1)
	go func() { aDone <- aPending.SendHello(aHello) }()
	established, gotHello, err := bPending.ReceiveHello()
	require.NoError(t, err)
	require.NoError(t, <-aDone)
	require.Equal(t, aHello.ClientID, gotHello.ClientID)
	require.Equal(t, aHello.NodeID, gotHello.NodeID)
	require.Equal(t, []Capability{{Name: "p2p", Version: 5}}, established.Capabilities())

	bDone := make(chan error, 1)
	go func() { bDone <- bPending.SendHello(bHello) }()
	_, gotBHello, err := aPending.ReceiveHello()
	require.NoError(t, err)
	require.NoError(t, <-bDone)
	require.Equal(t, bHello.ClientID, gotBHello.ClientID)
}

func TestReceiveHelloRejectsOtherMessages(t *testing.T) {
	a, b := pairedConns(t)

	done := make(chan error, 1)
	go func() { done <- (&EstablishedConn{conn: a}).Send(0x01, []byte{0x80}) }()

	_, _, err := NewPendingConn(b).ReceiveHello()
	require.Error(t, err)
	require.NoError(t, <-done)
}
