package kvstore

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/latticelayer/execution-core/internal/chainconfig"
	"github.com/latticelayer/execution-core/internal/trie"
	"github.com/latticelayer/execution-core/internal/types"
)


// Store is the world-state-store facade: a StoreEngine plus genesis install
// and world-state-root computation, per spec §4.2. A single Store handle is
// shared across the RPC server and the import pipeline; StoreEngine's own
// locking provides the exclusion spec §4.2 and §5 require.
type Store struct {
	engine StoreEngine

	// trieDB backs every trie built by WorldStateRoot/accountStorageRoot and
	// receives the nodes each Hash call commits. Every call still builds its
	// tries from scratch by inserting every entry; nodes already in trieDB
	// are not reused to skip that work.
	trieDB *trie.CachedDB
}

// NewStore wraps an engine in the Store facade.
func NewStore(engine StoreEngine) *Store {
	return &Store{engine: engine, trieDB: trie.NewCachedDB(trie.NewMemoryDB(), 0)}
}

// Engine exposes the underlying StoreEngine for components (the import
// pipeline, RPC handlers) that need direct table access.
func (s *Store) Engine() StoreEngine { return s.engine }

// WorldStateRoot recomputes the account state trie from scratch: every
// account_infos entry is inserted at keccak256(address), valued at the RLP
// encoding of AccountState(info, storage_sub_root). This is the version-1,
// O(N) cost spec §9 explicitly accepts; the contract is root-value
// equality, not an incremental algorithm.
func (s *Store) WorldStateRoot() (common.Hash, error) {
	stateTrie := trie.New(s.trieDB)
	var iterErr error
	err := s.engine.AccountInfosIter(func(addr common.Address, info *types.AccountInfo) (bool, error) {
		storageRoot, err := s.accountStorageRoot(addr)
		if err != nil {
			iterErr = err
			return false, err
		}
		state := types.AccountState{
			Balance:     info.Balance,
			Nonce:       info.Nonce,
			StorageRoot: storageRoot,
			CodeHash:    info.CodeHash,
		}
		enc, err := rlp.EncodeToBytes(&state)
		if err != nil {
			iterErr = err
			return false, err
		}
		key := crypto.Keccak256(addr.Bytes())
		if err := stateTrie.Insert(key, enc); err != nil {
			iterErr = err
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return common.Hash{}, err
	}
	if iterErr != nil {
		return common.Hash{}, iterErr
	}
	return stateTrie.Hash()
}

// accountStorageRoot builds addr's storage sub-trie, keyed by
// keccak256(storage key) → RLP(value), and returns its root (the empty
// trie hash for an account with no storage).
func (s *Store) accountStorageRoot(addr common.Address) (common.Hash, error) {
	storageTrie := trie.New(s.trieDB)
	any := false
	err := s.engine.AccountStorageIter(addr, func(key common.Hash, value *uint256.Int) (bool, error) {
		any = true
		enc, err := rlp.EncodeToBytes(value)
		if err != nil {
			return false, err
		}
		hashedKey := crypto.Keccak256(key.Bytes())
		if err := storageTrie.Insert(hashedKey, enc); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return common.Hash{}, err
	}
	if !any {
		return trie.EmptyTrieHash(), nil
	}
	return storageTrie.Hash()
}

// AddInitialState installs the genesis block exactly once. A second call
// with an identical genesis is a no-op; a differing genesis at the same
// block number is fatal (genesis mismatch terminates the process, per spec
// §7's "Genesis-mismatch is fatal").
func (s *Store) AddInitialState(g *chainconfig.Genesis) error {
	if err := s.seedAllocation(g); err != nil {
		return err
	}
	stateRoot, err := s.WorldStateRoot()
	if err != nil {
		return err
	}
	header := genesisHeader(g, stateRoot)

	existing, ok, err := s.engine.GetBlockHeader(g.Number)
	if err != nil {
		return err
	}
	if ok {
		if existing.Hash() == header.Hash() {
			return nil
		}
		log.Crit("genesis mismatch: a different genesis is already installed at this block number",
			"number", g.Number, "existingHash", existing.Hash(), "newHash", header.Hash())
		return nil
	}

	if err := s.engine.AddBlockHeader(header); err != nil {
		return err
	}
	if err := s.engine.AddBlockBody(g.Number, &types.Body{}); err != nil {
		return err
	}
	if err := s.engine.AddBlockNumber(header.Hash(), g.Number); err != nil {
		return err
	}
	if err := s.engine.SetChainTag(TagEarliest, g.Number); err != nil {
		return err
	}
	if err := s.engine.SetChainTag(TagLatest, g.Number); err != nil {
		return err
	}
	return s.engine.SetChainConfig(g.Config)
}

func (s *Store) seedAllocation(g *chainconfig.Genesis) error {
	for addr, acc := range g.Alloc {
		info := &types.AccountInfo{
			Balance:  acc.Balance,
			Nonce:    acc.Nonce,
			CodeHash: types.EmptyCodeHash,
		}
		if len(acc.Code) > 0 {
			codeHash := common.BytesToHash(crypto.Keccak256(acc.Code))
			info.CodeHash = codeHash
			if err := s.engine.AddAccountCode(codeHash, acc.Code); err != nil {
				return err
			}
		}
		if err := s.engine.AddAccountInfo(addr, info); err != nil {
			return err
		}
		for key, value := range acc.Storage {
			v := new(uint256.Int).SetBytes(value.Bytes())
			if v.IsZero() {
				continue
			}
			if err := s.engine.AddAccountStorage(addr, key, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func genesisHeader(g *chainconfig.Genesis, stateRoot common.Hash) *types.Header {
	var nonce [8]byte
	nb := new(big.Int).SetUint64(g.Nonce).Bytes()
	copy(nonce[8-len(nb):], nb)

	h := &types.Header{
		ParentHash:  g.ParentHash,
		OmmersHash:  trie.EmptyListHash(),
		Coinbase:    g.Coinbase,
		StateRoot:   stateRoot,
		TxRoot:      trie.EmptyTrieHash(),
		ReceiptRoot: trie.EmptyTrieHash(),
		Difficulty:  g.Difficulty.ToBig(),
		Number:      g.Number,
		GasLimit:    g.GasLimit,
		GasUsed:     0,
		Timestamp:   g.Timestamp,
		ExtraData:   g.ExtraData,
		PrevRandao:  g.MixHash,
		Nonce:       nonce,
	}
	if g.BaseFee != nil {
		h.BaseFeePerGas = g.BaseFee.ToBig()
	}
	return h
}
