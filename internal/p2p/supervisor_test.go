package p2p

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func randSecrets(t *testing.T) Secrets {
	t.Helper()
	gen := func(n int) []byte {
		b := make([]byte, n)
		_, err := rand.Read(b)
		require.NoError(t, err)
		return b
	}
	return Secrets{
		AESKey:          gen(32),
		MACKey:          gen(32),
		LocalNonce:      gen(32),
		LocalInitBytes:  gen(64),
		RemoteNonce:     gen(32),
		RemoteInitBytes: gen(64),
	}
}

func TestDialAndAcceptEstablishConn(t *testing.T) {
	server, err := NewSupervisor("127.0.0.1:0")
	require.NoError(t, err)
	defer server.Close()

	client, err := NewSupervisor("")
	require.NoError(t, err)

	serverSecrets := randSecrets(t)
	clientSecrets := Secrets{
		AESKey:          serverSecrets.AESKey,
		MACKey:          serverSecrets.MACKey,
		LocalNonce:      serverSecrets.RemoteNonce,
		LocalInitBytes:  serverSecrets.RemoteInitBytes,
		RemoteNonce:     serverSecrets.LocalNonce,
		RemoteInitBytes: serverSecrets.LocalInitBytes,
	}

	type acceptResult struct {
		err error
	}
	acceptDone := make(chan acceptResult, 1)
	go func() {
		_, err := server.Accept(serverSecrets)
		acceptDone <- acceptResult{err: err}
	}()

	conn, err := client.Dial(context.Background(), server.Addr().String(), clientSecrets)
	require.NoError(t, err)
	require.NotNil(t, conn)

	result := <-acceptDone
	require.NoError(t, result.err)
}

func TestDialRespectsBackoff(t *testing.T) {
	client, err := NewSupervisor("")
	require.NoError(t, err)

	client.dialed.Add("127.0.0.1:1", time.Now())
	_, err = client.Dial(context.Background(), "127.0.0.1:1", randSecrets(t))
	require.Error(t, err)
}

func TestTopPeersOrdersByScore(t *testing.T) {
	s, err := NewSupervisor("")
	require.NoError(t, err)

	s.UpdateScore("alice", 5)
	s.UpdateScore("bob", 10)
	s.UpdateScore("carol", 1)
	s.UpdateScore("alice", 10) // alice now at 15, top

	require.Equal(t, []string{"alice", "bob", "carol"}, s.TopPeers(3))
	require.Equal(t, []string{"alice", "bob"}, s.TopPeers(2))
}
