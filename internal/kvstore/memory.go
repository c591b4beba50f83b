package kvstore

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/latticelayer/execution-core/internal/chainconfig"
	"github.com/latticelayer/execution-core/internal/types"
)

type receiptKey struct {
	number uint64
	index  uint32
}

// MemoryEngine is the in-memory StoreEngine: per-table maps guarded by one
// RWMutex, matching spec §4.2's "engine holds exclusive access during any
// mutation" concurrency contract. Suitable for tests and ephemeral nodes.
type MemoryEngine struct {
	mu sync.RWMutex

	accountInfos    map[common.Address]*types.AccountInfo
	accountStorages map[common.Address]map[common.Hash]*uint256.Int
	accountCodes    map[common.Hash][]byte

	headers      map[uint64]*types.Header
	bodies       map[uint64]*types.Body
	blockNumbers map[common.Hash]uint64
	txLocations  map[common.Hash]TxLocation
	receipts     map[receiptKey]*types.Receipt

	chainConfig *chainconfig.ChainConfig
	tags        map[ChainTag]uint64
}

// NewMemoryEngine returns an empty MemoryEngine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{
		accountInfos:    make(map[common.Address]*types.AccountInfo),
		accountStorages: make(map[common.Address]map[common.Hash]*uint256.Int),
		accountCodes:    make(map[common.Hash][]byte),
		headers:         make(map[uint64]*types.Header),
		bodies:          make(map[uint64]*types.Body),
		blockNumbers:    make(map[common.Hash]uint64),
		txLocations:     make(map[common.Hash]TxLocation),
		receipts:        make(map[receiptKey]*types.Receipt),
		tags:            make(map[ChainTag]uint64),
	}
}

func (m *MemoryEngine) AddAccountInfo(addr common.Address, info *types.AccountInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accountInfos[addr] = info
	return nil
}

func (m *MemoryEngine) GetAccountInfo(addr common.Address) (*types.AccountInfo, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.accountInfos[addr]
	return info, ok, nil
}

func (m *MemoryEngine) RemoveAccountInfo(addr common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accountInfos, addr)
	return nil
}

func (m *MemoryEngine) AccountInfosIter(fn func(common.Address, *types.AccountInfo) (bool, error)) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for addr, info := range m.accountInfos {
		cont, err := fn(addr, info)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

func (m *MemoryEngine) AddAccountStorage(addr common.Address, key common.Hash, value *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	slots, ok := m.accountStorages[addr]
	if !ok {
		slots = make(map[common.Hash]*uint256.Int)
		m.accountStorages[addr] = slots
	}
	slots[key] = value
	return nil
}

func (m *MemoryEngine) GetAccountStorage(addr common.Address, key common.Hash) (*uint256.Int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	slots, ok := m.accountStorages[addr]
	if !ok {
		return nil, false, nil
	}
	v, ok := slots[key]
	return v, ok, nil
}

func (m *MemoryEngine) RemoveAccountStorage(addr common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accountStorages, addr)
	return nil
}

func (m *MemoryEngine) AccountStorageIter(addr common.Address, fn func(common.Hash, *uint256.Int) (bool, error)) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for key, value := range m.accountStorages[addr] {
		cont, err := fn(key, value)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

func (m *MemoryEngine) AddAccountCode(hash common.Hash, code []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accountCodes[hash] = code
	return nil
}

func (m *MemoryEngine) GetAccountCode(hash common.Hash) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	code, ok := m.accountCodes[hash]
	return code, ok, nil
}

func (m *MemoryEngine) AddBlockHeader(h *types.Header) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headers[h.Number] = h
	return nil
}

func (m *MemoryEngine) GetBlockHeader(number uint64) (*types.Header, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.headers[number]
	return h, ok, nil
}

func (m *MemoryEngine) AddBlockBody(number uint64, b *types.Body) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies[number] = b
	return nil
}

func (m *MemoryEngine) GetBlockBody(number uint64) (*types.Body, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bodies[number]
	return b, ok, nil
}

func (m *MemoryEngine) AddBlockNumber(hash common.Hash, number uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockNumbers[hash] = number
	return nil
}

func (m *MemoryEngine) GetBlockNumber(hash common.Hash) (uint64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.blockNumbers[hash]
	return n, ok, nil
}

func (m *MemoryEngine) AddTransactionLocation(txHash common.Hash, loc TxLocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txLocations[txHash] = loc
	return nil
}

func (m *MemoryEngine) GetTransactionLocation(txHash common.Hash) (TxLocation, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.txLocations[txHash]
	return loc, ok, nil
}

func (m *MemoryEngine) AddReceipt(number uint64, index uint32, r *types.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts[receiptKey{number, index}] = r
	return nil
}

func (m *MemoryEngine) GetReceipt(number uint64, index uint32) (*types.Receipt, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.receipts[receiptKey{number, index}]
	return r, ok, nil
}

func (m *MemoryEngine) SetChainConfig(cfg *chainconfig.ChainConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chainConfig = cfg
	return nil
}

func (m *MemoryEngine) GetChainConfig() (*chainconfig.ChainConfig, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chainConfig, m.chainConfig != nil, nil
}

func (m *MemoryEngine) GetChainTag(tag ChainTag) (uint64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.tags[tag]
	return n, ok, nil
}

func (m *MemoryEngine) SetChainTag(tag ChainTag, number uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags[tag] = number
	return nil
}

// AddBlock writes the body, header, hash→number mapping, every transaction
// location, and every receipt under the single exclusive lock, then
// advances the latest tag — satisfying spec §4.4's atomicity requirement
// for concurrent readers (none observe a partial block).
func (m *MemoryEngine) AddBlock(h *types.Header, b *types.Body, receipts []*types.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash := h.Hash()
	m.headers[h.Number] = h
	m.bodies[h.Number] = b
	m.blockNumbers[hash] = h.Number

	for i, tx := range b.Transactions {
		m.txLocations[tx.Hash()] = TxLocation{BlockNumber: h.Number, Index: uint32(i)}
	}
	for i, r := range receipts {
		m.receipts[receiptKey{h.Number, uint32(i)}] = r
	}
	m.tags[TagLatest] = h.Number
	return nil
}

func (m *MemoryEngine) Close() error { return nil }
