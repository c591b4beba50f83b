package chainconfig

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// GenesisAccount is one entry of the genesis allocation: an address seeded
// with a balance, nonce, code, and storage before any block is imported.
type GenesisAccount struct {
	Balance *uint256.Int
	Nonce   uint64
	Code    []byte
	Storage map[common.Hash]common.Hash
}

// Genesis is the parsed contents of the --network genesis JSON file: the
// chain's fork schedule plus the block-zero header fields and allocation.
type Genesis struct {
	Config     *ChainConfig
	Number     uint64
	ParentHash common.Hash
	Timestamp  uint64
	ExtraData  []byte
	GasLimit   uint64
	Difficulty *uint256.Int
	MixHash    common.Hash
	Coinbase   common.Address
	Nonce      uint64
	BaseFee    *uint256.Int
	Alloc      map[common.Address]GenesisAccount
}

type genesisConfigJSON struct {
	ChainID             hexutil.Uint64  `json:"chainId"`
	HomesteadBlock      *hexutil.Uint64 `json:"homesteadBlock"`
	EIP150Block         *hexutil.Uint64 `json:"eip150Block"`
	EIP155Block         *hexutil.Uint64 `json:"eip155Block"`
	EIP158Block         *hexutil.Uint64 `json:"eip158Block"`
	ByzantiumBlock      *hexutil.Uint64 `json:"byzantiumBlock"`
	ConstantinopleBlock *hexutil.Uint64 `json:"constantinopleBlock"`
	PetersburgBlock     *hexutil.Uint64 `json:"petersburgBlock"`
	IstanbulBlock       *hexutil.Uint64 `json:"istanbulBlock"`
	BerlinBlock         *hexutil.Uint64 `json:"berlinBlock"`
	LondonBlock         *hexutil.Uint64 `json:"londonBlock"`
	MergeNetsplitBlock  *hexutil.Uint64 `json:"mergeNetsplitBlock"`
	ShanghaiTime        *hexutil.Uint64 `json:"shanghaiTime"`
	CancunTime          *hexutil.Uint64 `json:"cancunTime"`
	PragueTime          *hexutil.Uint64 `json:"pragueTime"`

	TerminalTotalDifficulty       *hexutil.Big `json:"terminalTotalDifficulty"`
	TerminalTotalDifficultyPassed bool         `json:"terminalTotalDifficultyPassed"`
}

type genesisAllocJSON struct {
	Balance *hexutil.Big                `json:"balance"`
	Nonce   hexutil.Uint64              `json:"nonce"`
	Code    hexutil.Bytes               `json:"code"`
	Storage map[common.Hash]common.Hash `json:"storage"`
}

type genesisJSON struct {
	Config     genesisConfigJSON                   `json:"config"`
	Number     hexutil.Uint64                      `json:"number"`
	ParentHash common.Hash                         `json:"parentHash"`
	Timestamp  hexutil.Uint64                      `json:"timestamp"`
	ExtraData  hexutil.Bytes                       `json:"extraData"`
	GasLimit   hexutil.Uint64                      `json:"gasLimit"`
	Difficulty *hexutil.Big                        `json:"difficulty"`
	MixHash    common.Hash                         `json:"mixHash"`
	Coinbase   common.Address                      `json:"coinbase"`
	Nonce      hexutil.Uint64                      `json:"nonce"`
	BaseFee    *hexutil.Big                        `json:"baseFeePerGas"`
	Alloc      map[common.Address]genesisAllocJSON `json:"alloc"`
}

func u64Ptr(h *hexutil.Uint64) *uint64 {
	if h == nil {
		return nil
	}
	v := uint64(*h)
	return &v
}

func bigToUint256(b *hexutil.Big) *uint256.Int {
	if b == nil {
		return uint256.NewInt(0)
	}
	v, overflow := uint256.FromBig((*big.Int)(b))
	if overflow {
		panic("chainconfig: genesis value overflows 256 bits")
	}
	return v
}

// LoadGenesisFile reads and parses the genesis JSON file at path, per the
// --network CLI flag.
func LoadGenesisFile(path string) (*Genesis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("chainconfig: reading genesis file: %w", err)
	}
	return ParseGenesis(raw)
}

// ParseGenesis decodes a genesis JSON document's bytes.
func ParseGenesis(raw []byte) (*Genesis, error) {
	var doc genesisJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("chainconfig: decoding genesis JSON: %w", err)
	}

	cfg := &ChainConfig{
		ChainID:             uint64(doc.Config.ChainID),
		HomesteadBlock:      u64Ptr(doc.Config.HomesteadBlock),
		EIP150Block:         u64Ptr(doc.Config.EIP150Block),
		EIP155Block:         u64Ptr(doc.Config.EIP155Block),
		EIP158Block:         u64Ptr(doc.Config.EIP158Block),
		ByzantiumBlock:      u64Ptr(doc.Config.ByzantiumBlock),
		ConstantinopleBlock: u64Ptr(doc.Config.ConstantinopleBlock),
		PetersburgBlock:     u64Ptr(doc.Config.PetersburgBlock),
		IstanbulBlock:       u64Ptr(doc.Config.IstanbulBlock),
		BerlinBlock:         u64Ptr(doc.Config.BerlinBlock),
		LondonBlock:         u64Ptr(doc.Config.LondonBlock),
		MergeNetsplitBlock:  u64Ptr(doc.Config.MergeNetsplitBlock),
		ShanghaiTime:        u64Ptr(doc.Config.ShanghaiTime),
		CancunTime:          u64Ptr(doc.Config.CancunTime),
		PragueTime:          u64Ptr(doc.Config.PragueTime),
		TerminalTotalDifficultyPassed: doc.Config.TerminalTotalDifficultyPassed,
	}
	if doc.Config.TerminalTotalDifficulty != nil {
		cfg.TerminalTotalDifficulty = bigToUint256(doc.Config.TerminalTotalDifficulty)
	}

	alloc := make(map[common.Address]GenesisAccount, len(doc.Alloc))
	for addr, acc := range doc.Alloc {
		alloc[addr] = GenesisAccount{
			Balance: bigToUint256(acc.Balance),
			Nonce:   uint64(acc.Nonce),
			Code:    []byte(acc.Code),
			Storage: acc.Storage,
		}
	}

	g := &Genesis{
		Config:     cfg,
		Number:     uint64(doc.Number),
		ParentHash: doc.ParentHash,
		Timestamp:  uint64(doc.Timestamp),
		ExtraData:  []byte(doc.ExtraData),
		GasLimit:   uint64(doc.GasLimit),
		Difficulty: bigToUint256(doc.Difficulty),
		MixHash:    doc.MixHash,
		Coinbase:   doc.Coinbase,
		Nonce:      uint64(doc.Nonce),
		Alloc:      alloc,
	}
	if doc.BaseFee != nil {
		g.BaseFee = bigToUint256(doc.BaseFee)
	}
	return g, nil
}
