package trie

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestTrie() *Trie {
	return New(NewMemoryDB())
}

func mustHash(t *testing.T, tr *Trie) string {
	t.Helper()
	h, err := tr.Hash()
	require.NoError(t, err)
	return hex.EncodeToString(h[:])
}

func TestEmptyTrieHash(t *testing.T) {
	tr := newTestTrie()
	require.Equal(t, "56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421", mustHash(t, tr))
}

func TestComputeHashTwoKeys(t *testing.T) {
	tr := newTestTrie()
	require.NoError(t, tr.Insert([]byte("first"), []byte("value")))
	require.NoError(t, tr.Insert([]byte("second"), []byte("value")))
	require.Equal(t, "f7537e7f4b313c426440b7fface6bff76f51b3eb0d127356efbe6f2b3c891501", mustHash(t, tr))
}

func TestComputeHashDogSet(t *testing.T) {
	tr := newTestTrie()
	require.NoError(t, tr.Insert([]byte("do"), []byte("verb")))
	require.NoError(t, tr.Insert([]byte("horse"), []byte("stallion")))
	require.NoError(t, tr.Insert([]byte("doge"), []byte("coin")))
	require.NoError(t, tr.Insert([]byte("dog"), []byte("puppy")))
	require.Equal(t, "5991bb8c6514148a29db676a14ac506cd2cd5775ace63c30a4fe457715e9ac84", mustHash(t, tr))
}

func TestGetInsertWords(t *testing.T) {
	tr := newTestTrie()
	first, second := []byte("first"), []byte("second")
	v, err := tr.Get(first)
	require.NoError(t, err)
	require.Nil(t, v)

	require.NoError(t, tr.Insert(first, []byte("value_a")))
	require.NoError(t, tr.Insert(second, []byte("value_b")))

	v, err = tr.Get(first)
	require.NoError(t, err)
	require.Equal(t, []byte("value_a"), v)

	v, err = tr.Get(second)
	require.NoError(t, err)
	require.Equal(t, []byte("value_b"), v)
}

func TestGetInsertRemove(t *testing.T) {
	tr := newTestTrie()
	require.NoError(t, tr.Insert([]byte("do"), []byte("verb")))
	require.NoError(t, tr.Insert([]byte("horse"), []byte("stallion")))
	require.NoError(t, tr.Insert([]byte("doge"), []byte("coin")))

	_, err := tr.Remove([]byte("horse"))
	require.NoError(t, err)

	v, err := tr.Get([]byte("do"))
	require.NoError(t, err)
	require.Equal(t, []byte("verb"), v)

	v, err = tr.Get([]byte("doge"))
	require.NoError(t, err)
	require.Equal(t, []byte("coin"), v)

	v, err = tr.Get([]byte("horse"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestGetFromRootHistorical(t *testing.T) {
	tr := newTestTrie()
	k0, k1 := make([]byte, 32), make([]byte, 32)
	for i := range k1 {
		k1[i] = 1
	}
	require.NoError(t, tr.Insert(k0, bytesOf(0, 32)))
	require.NoError(t, tr.Insert(k1, bytesOf(1, 32)))

	root, err := tr.Hash()
	require.NoError(t, err)

	require.NoError(t, tr.Insert(k0, bytesOf(2, 32)))
	require.NoError(t, tr.Insert(k1, bytesOf(3, 32)))

	v, err := tr.Get(k0)
	require.NoError(t, err)
	require.Equal(t, bytesOf(2, 32), v)

	old, err := tr.GetFromRoot(root, k0)
	require.NoError(t, err)
	require.Equal(t, bytesOf(0, 32), old)

	old, err = tr.GetFromRoot(root, k1)
	require.NoError(t, err)
	require.Equal(t, bytesOf(1, 32), old)
}

func TestSetRootRevert(t *testing.T) {
	tr := newTestTrie()
	k0, k1, k2 := bytesOf(0, 32), bytesOf(1, 32), bytesOf(2, 32)
	require.NoError(t, tr.Insert(k0, bytesOf(0, 32)))
	require.NoError(t, tr.Insert(k1, bytesOf(1, 32)))

	root, err := tr.Hash()
	require.NoError(t, err)

	require.NoError(t, tr.Insert(k0, bytesOf(2, 32)))
	require.NoError(t, tr.Insert(k1, bytesOf(3, 32)))

	tr.SetRoot(root)

	require.NoError(t, tr.Insert(k2, bytesOf(4, 32)))

	v, err := tr.Get(k0)
	require.NoError(t, err)
	require.Equal(t, bytesOf(0, 32), v)

	v, err = tr.Get(k1)
	require.NoError(t, err)
	require.Equal(t, bytesOf(1, 32), v)

	v, err = tr.Get(k2)
	require.NoError(t, err)
	require.Equal(t, bytesOf(4, 32), v)
}

func bytesOf(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}
