package rlpx

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// MessageID is the single RLP-encoded byte that tags a frame's payload
// type, per spec §4.5's "message decoding" rule.
type MessageID uint8

const helloMessageID MessageID = 0x00

// Capability is one (name, version) pair a peer advertises, per spec §6's
// peer wire format.
type Capability struct {
	Name    string
	Version uint
}

// BaselineCapabilities is the advertised set this node offers: just the
// p2p subprotocol itself. Extending to eth/68, snap/1 and similar is a pure
// data-level addition — NegotiateCapabilities takes care of the rest.
var BaselineCapabilities = []Capability{{Name: "p2p", Version: 5}}

// Hello is the RLPx Hello message: RLP([proto_version, client_id,
// capabilities, listen_port, node_id]), per spec §6.
type Hello struct {
	ProtocolVersion uint
	ClientID        string
	Capabilities    []Capability
	ListenPort      uint
	NodeID          []byte // 64-byte uncompressed secp256k1 public key, minus the 0x04 prefix
}

type helloRLP struct {
	ProtocolVersion uint
	ClientID        string
	Capabilities    []capabilityRLP
	ListenPort      uint
	NodeID          []byte
}

type capabilityRLP struct {
	Name    string
	Version uint
}

func (h *Hello) encode() ([]byte, error) {
	caps := make([]capabilityRLP, len(h.Capabilities))
	for i, c := range h.Capabilities {
		caps[i] = capabilityRLP{Name: c.Name, Version: c.Version}
	}
	return rlp.EncodeToBytes(&helloRLP{
		ProtocolVersion: h.ProtocolVersion,
		ClientID:        h.ClientID,
		Capabilities:    caps,
		ListenPort:      h.ListenPort,
		NodeID:          h.NodeID,
	})
}

func decodeHello(body []byte) (*Hello, error) {
	var dec helloRLP
	if err := rlp.DecodeBytes(body, &dec); err != nil {
		return nil, fmt.Errorf("rlpx: decoding hello: %w", err)
	}
	caps := make([]Capability, len(dec.Capabilities))
	for i, c := range dec.Capabilities {
		caps[i] = Capability{Name: c.Name, Version: c.Version}
	}
	return &Hello{
		ProtocolVersion: dec.ProtocolVersion,
		ClientID:        dec.ClientID,
		Capabilities:    caps,
		ListenPort:      dec.ListenPort,
		NodeID:          dec.NodeID,
	}, nil
}

// NegotiateCapabilities reduces two advertised capability lists to their
// intersection by name and version, per spec §4.5's negotiation rule.
func NegotiateCapabilities(local, remote []Capability) []Capability {
	var out []Capability
	for _, l := range local {
		for _, r := range remote {
			if l.Name == r.Name && l.Version == r.Version {
				out = append(out, l)
				break
			}
		}
	}
	return out
}

// encodeMessage prefixes the message id onto body, the wire shape a frame's
// plaintext carries. Every message id this node uses is below 0x80: RLP
// encodes 1..0x7f as the byte itself and 0 as the empty string, 0x80.
func encodeMessage(id MessageID, body []byte) []byte {
	if id == 0 {
		return append([]byte{0x80}, body...)
	}
	return append([]byte{byte(id)}, body...)
}

// decodeMessage splits a frame's plaintext back into its message id and
// payload bytes, per spec §4.5's "first byte is an RLP-encoded u8 message
// id" rule.
func decodeMessage(frame []byte) (MessageID, []byte, error) {
	if len(frame) == 0 {
		return 0, nil, fmt.Errorf("rlpx: empty frame")
	}
	if frame[0] == 0x80 {
		return 0, frame[1:], nil
	}
	if frame[0] > 0x80 {
		return 0, nil, fmt.Errorf("rlpx: message id does not fit RLP's single-byte encoding")
	}
	if frame[0] == 0x00 {
		return 0, nil, fmt.Errorf("rlpx: non-canonical RLP encoding of message id 0")
	}
	return MessageID(frame[0]), frame[1:], nil
}
