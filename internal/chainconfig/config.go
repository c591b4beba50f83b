// Package chainconfig resolves the active protocol fork for a given block
// number and timestamp, mirroring go-ethereum's params.ChainConfig gating
// style but trimmed to the forks this node's header validator consults.
package chainconfig

import "github.com/holiman/uint256"

// Fork identifies a named, ordered protocol rule set. Forks below Shanghai
// are gated by block number; Shanghai and later are gated by timestamp.
type Fork int

const (
	Frontier Fork = iota
	Homestead
	TangerineWhistle
	SpuriousDragon
	Byzantium
	Constantinople
	Petersburg
	Istanbul
	Berlin
	London
	MergeNetsplit
	Shanghai
	Cancun
	Prague
)

func (f Fork) String() string {
	switch f {
	case Frontier:
		return "frontier"
	case Homestead:
		return "homestead"
	case TangerineWhistle:
		return "tangerineWhistle"
	case SpuriousDragon:
		return "spuriousDragon"
	case Byzantium:
		return "byzantium"
	case Constantinople:
		return "constantinople"
	case Petersburg:
		return "petersburg"
	case Istanbul:
		return "istanbul"
	case Berlin:
		return "berlin"
	case London:
		return "london"
	case MergeNetsplit:
		return "mergeNetsplit"
	case Shanghai:
		return "shanghai"
	case Cancun:
		return "cancun"
	case Prague:
		return "prague"
	default:
		return "unknown"
	}
}

// ChainConfig is the network's fork schedule plus terminal-PoW parameters.
// Nil activation fields mean "never activated on this network".
type ChainConfig struct {
	ChainID uint64

	HomesteadBlock     *uint64
	EIP150Block        *uint64
	EIP155Block        *uint64
	EIP158Block        *uint64
	ByzantiumBlock     *uint64
	ConstantinopleBlock *uint64
	PetersburgBlock    *uint64
	IstanbulBlock      *uint64
	BerlinBlock        *uint64
	LondonBlock        *uint64
	MergeNetsplitBlock *uint64

	ShanghaiTime *uint64
	CancunTime   *uint64
	PragueTime   *uint64

	TerminalTotalDifficulty       *uint256.Int
	TerminalTotalDifficultyPassed bool
}

func blockActive(gate *uint64, number uint64) bool {
	return gate != nil && number >= *gate
}

func timeActive(gate *uint64, timestamp uint64) bool {
	return gate != nil && timestamp >= *gate
}

// GetFork returns the highest fork active at (number, timestamp). Block-
// number gates are checked against number; Shanghai and later are checked
// against timestamp, matching the merge's split between block-counted and
// time-counted forks.
func (c *ChainConfig) GetFork(number, timestamp uint64) Fork {
	fork := Frontier
	if blockActive(c.HomesteadBlock, number) {
		fork = Homestead
	}
	if blockActive(c.EIP150Block, number) {
		fork = TangerineWhistle
	}
	if blockActive(c.EIP155Block, number) || blockActive(c.EIP158Block, number) {
		fork = SpuriousDragon
	}
	if blockActive(c.ByzantiumBlock, number) {
		fork = Byzantium
	}
	if blockActive(c.ConstantinopleBlock, number) {
		fork = Constantinople
	}
	if blockActive(c.PetersburgBlock, number) {
		fork = Petersburg
	}
	if blockActive(c.IstanbulBlock, number) {
		fork = Istanbul
	}
	if blockActive(c.BerlinBlock, number) {
		fork = Berlin
	}
	if blockActive(c.LondonBlock, number) {
		fork = London
	}
	if blockActive(c.MergeNetsplitBlock, number) {
		fork = MergeNetsplit
	}
	if timeActive(c.ShanghaiTime, timestamp) {
		fork = Shanghai
	}
	if timeActive(c.CancunTime, timestamp) {
		fork = Cancun
	}
	if timeActive(c.PragueTime, timestamp) {
		fork = Prague
	}
	return fork
}

// IsCancun reports whether Cancun rules (blob gas fields, EIP-4844) apply at
// (number, timestamp).
func (c *ChainConfig) IsCancun(number, timestamp uint64) bool {
	return c.GetFork(number, timestamp) >= Cancun
}
