// Package rlpx implements the RLPx framed transport of spec §4.5: the
// symmetric, post-handshake wire format that carries typed peer messages
// once a connection's AES/MAC secrets have already been derived. The
// handshake itself — deriving those secrets — is out of scope; Conn only
// ever consumes keys and nonces handed to it by the caller.
package rlpx

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"hash"
	"io"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

const (
	macSize    = 16
	headerSize = 16
)

// Conn is one RLPx connection's cryptographic framing state: independent
// AES-256-CTR keystreams and running Keccak256 MAC accumulators for each
// direction. Per spec §5, egress and ingress each form a logical half that
// serializes its own calls — nothing here is safe for concurrent use by two
// goroutines on the same direction.
type Conn struct {
	rw io.ReadWriter

	macCipher cipher.Block

	egressAES  cipher.Stream
	egressMAC  hash.Hash
	ingressAES cipher.Stream
	ingressMAC hash.Hash
}

// NewConn builds the framing state from already-derived handshake secrets:
// a 32-byte AES key, a 32-byte MAC key, both parties' 32-byte nonces, and
// both parties' handshake init messages (auth/ack), per spec §4.5's
// egress_mac/ingress_mac seeding formula.
func NewConn(rw io.ReadWriter, aesKey, macKey, localNonce, localInitBytes, remoteNonce, remoteInitBytes []byte) (*Conn, error) {
	if len(aesKey) != 32 || len(macKey) != 32 || len(localNonce) != 32 || len(remoteNonce) != 32 {
		return nil, fmt.Errorf("rlpx: aes_key, mac_key and both nonces must be 32 bytes")
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, err
	}
	iv := make([]byte, aes.BlockSize)
	egressAES := cipher.NewCTR(block, iv)
	ingressAES := cipher.NewCTR(block, iv)

	macCipher, err := aes.NewCipher(macKey)
	if err != nil {
		return nil, err
	}

	egressMAC := crypto.NewKeccakState()
	egressMAC.Write(xor32(macKey, remoteNonce))
	egressMAC.Write(localInitBytes)

	ingressMAC := crypto.NewKeccakState()
	ingressMAC.Write(xor32(macKey, localNonce))
	ingressMAC.Write(remoteInitBytes)

	return &Conn{
		rw:         rw,
		macCipher:  macCipher,
		egressAES:  egressAES,
		egressMAC:  egressMAC,
		ingressAES: ingressAES,
		ingressMAC: ingressMAC,
	}, nil
}

func xor32(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// macSeed runs the shared header/frame-mac-seed computation: encrypt the
// running MAC's current digest under the static mac_key cipher, then XOR
// against in (the header ciphertext for a header seed, the digest itself
// for a frame seed).
func (c *Conn) macSeed(mac hash.Hash, in []byte) []byte {
	digest := mac.Sum(nil)[:macSize]
	encrypted := make([]byte, macSize)
	c.macCipher.Encrypt(encrypted, digest)
	seed := make([]byte, macSize)
	for i := range seed {
		seed[i] = encrypted[i] ^ in[i]
	}
	return seed
}

// WriteFrame encodes payload as one RLPx frame and writes it to the
// underlying stream, per spec §4.5's send algorithm.
func (c *Conn) WriteFrame(payload []byte) error {
	header := make([]byte, headerSize)
	size := len(payload)
	header[0] = byte(size >> 16)
	header[1] = byte(size >> 8)
	header[2] = byte(size)
	headerData, err := rlp.EncodeToBytes([2]uint8{0, 0})
	if err != nil {
		return err
	}
	copy(header[3:], headerData)

	c.egressAES.XORKeyStream(header, header)

	headerMACSeed := c.macSeed(c.egressMAC, header)
	c.egressMAC.Write(headerMACSeed)
	headerMAC := c.egressMAC.Sum(nil)[:macSize]

	if _, err := c.rw.Write(header); err != nil {
		return err
	}
	if _, err := c.rw.Write(headerMAC); err != nil {
		return err
	}

	padded := make([]byte, nextMultipleOf16(size))
	copy(padded, payload)
	c.egressAES.XORKeyStream(padded, padded)
	if _, err := c.rw.Write(padded); err != nil {
		return err
	}

	c.egressMAC.Write(padded)
	frameMACSeed := c.macSeed(c.egressMAC, c.egressMAC.Sum(nil)[:macSize])
	c.egressMAC.Write(frameMACSeed)
	frameMAC := c.egressMAC.Sum(nil)[:macSize]
	_, err = c.rw.Write(frameMAC)
	return err
}

// ReadFrame reads one RLPx frame from the underlying stream, validating
// both MACs, and returns its decoded payload, per spec §4.5's receive
// algorithm.
func (c *Conn) ReadFrame() ([]byte, error) {
	headerAndMAC := make([]byte, headerSize+macSize)
	if _, err := io.ReadFull(c.rw, headerAndMAC); err != nil {
		return nil, err
	}
	header := headerAndMAC[:headerSize]
	wantHeaderMAC := headerAndMAC[headerSize:]

	headerMACSeed := c.macSeed(c.ingressMAC, header)
	c.ingressMAC.Write(headerMACSeed)
	gotHeaderMAC := c.ingressMAC.Sum(nil)[:macSize]
	if !hmacEqual(gotHeaderMAC, wantHeaderMAC) {
		return nil, fmt.Errorf("rlpx: header MAC mismatch")
	}

	headerText := make([]byte, headerSize)
	c.ingressAES.XORKeyStream(headerText, header)

	var headerData [2]uint8
	if err := rlp.DecodeBytes(headerText[3:6], &headerData); err != nil {
		return nil, fmt.Errorf("rlpx: decoding header-data: %w", err)
	}
	if headerData != [2]uint8{0, 0} {
		return nil, fmt.Errorf("rlpx: non-zero capability/context id in header-data")
	}

	size := int(headerText[0])<<16 | int(headerText[1])<<8 | int(headerText[2])
	paddedSize := nextMultipleOf16(size)

	body := make([]byte, paddedSize+macSize)
	if _, err := io.ReadFull(c.rw, body); err != nil {
		return nil, err
	}
	ciphertext := body[:paddedSize]
	wantFrameMAC := body[paddedSize:]

	c.ingressMAC.Write(ciphertext)
	frameMACSeed := c.macSeed(c.ingressMAC, c.ingressMAC.Sum(nil)[:macSize])
	c.ingressMAC.Write(frameMACSeed)
	gotFrameMAC := c.ingressMAC.Sum(nil)[:macSize]
	if !hmacEqual(gotFrameMAC, wantFrameMAC) {
		return nil, fmt.Errorf("rlpx: frame MAC mismatch")
	}

	plaintext := make([]byte, paddedSize)
	c.ingressAES.XORKeyStream(plaintext, ciphertext)
	return plaintext[:size], nil
}

func nextMultipleOf16(n int) int {
	if n%16 == 0 {
		return n
	}
	return n + (16 - n%16)
}

func hmacEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}
