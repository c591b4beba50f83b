package kvstore

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/latticelayer/execution-core/internal/chainconfig"
	"github.com/latticelayer/execution-core/internal/types"
)

// TxLocation is the value of the transaction_locations table: the block a
// transaction was included in and its index within that block's body.
type TxLocation struct {
	BlockNumber uint64
	Index       uint32
}

// ChainTag names one of the five chain-tag block numbers spec §3 defines.
type ChainTag int

const (
	TagEarliest ChainTag = iota
	TagFinalized
	TagSafe
	TagLatest
	TagPending
)

// StoreEngine is the backend-agnostic contract over the logical tables of
// spec §3. Every method is fallible with a *StoreError. Two implementations
// satisfy it: MemoryEngine (per-table maps) and MDBXEngine (a transactional
// embedded KV store).
type StoreEngine interface {
	AddAccountInfo(addr common.Address, info *types.AccountInfo) error
	GetAccountInfo(addr common.Address) (*types.AccountInfo, bool, error)
	RemoveAccountInfo(addr common.Address) error
	AccountInfosIter(fn func(common.Address, *types.AccountInfo) (bool, error)) error

	AddAccountStorage(addr common.Address, key common.Hash, value *uint256.Int) error
	GetAccountStorage(addr common.Address, key common.Hash) (*uint256.Int, bool, error)
	RemoveAccountStorage(addr common.Address) error
	AccountStorageIter(addr common.Address, fn func(key common.Hash, value *uint256.Int) (bool, error)) error

	AddAccountCode(hash common.Hash, code []byte) error
	GetAccountCode(hash common.Hash) ([]byte, bool, error)

	AddBlockHeader(h *types.Header) error
	GetBlockHeader(number uint64) (*types.Header, bool, error)
	AddBlockBody(number uint64, b *types.Body) error
	GetBlockBody(number uint64) (*types.Body, bool, error)

	AddBlockNumber(hash common.Hash, number uint64) error
	GetBlockNumber(hash common.Hash) (uint64, bool, error)

	AddTransactionLocation(txHash common.Hash, loc TxLocation) error
	GetTransactionLocation(txHash common.Hash) (TxLocation, bool, error)

	AddReceipt(number uint64, index uint32, r *types.Receipt) error
	GetReceipt(number uint64, index uint32) (*types.Receipt, bool, error)

	SetChainConfig(cfg *chainconfig.ChainConfig) error
	GetChainConfig() (*chainconfig.ChainConfig, bool, error)

	GetChainTag(tag ChainTag) (uint64, bool, error)
	SetChainTag(tag ChainTag, number uint64) error

	// AddBlock atomically commits the five tables a successful import
	// touches: bodies, headers, block_numbers, transaction_locations (one
	// per tx), receipts (one per tx), plus the latest-tag update.
	AddBlock(h *types.Header, b *types.Body, receipts []*types.Receipt) error

	// Close releases any backend resources (embedded DB environment).
	Close() error
}
