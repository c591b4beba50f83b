package chain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/latticelayer/execution-core/internal/chainconfig"
	"github.com/latticelayer/execution-core/internal/kvstore"
	"github.com/latticelayer/execution-core/internal/metrics"
	"github.com/latticelayer/execution-core/internal/types"
)

// EVM is the external collaborator the import pipeline delegates execution
// to. This package owns canonicality, header, and blob-gas validation plus
// the atomic commit; it treats transaction execution and state application
// as somebody else's contract, matching spec §4.1's explicit boundary.
type EVM interface {
	// Execute runs every transaction in body against the state the store
	// currently holds and returns one receipt per transaction, in order.
	Execute(cfg *chainconfig.ChainConfig, header *types.Header, body *types.Body) ([]*types.Receipt, error)

	// ApplyStateTransitions commits the balance/nonce/storage/code deltas
	// Execute computed into engine's account tables.
	ApplyStateTransitions(engine kvstore.StoreEngine, header *types.Header, body *types.Body, receipts []*types.Receipt) error
}

// AddBlock runs the block-import pipeline of spec §4.1 against block:
//
//  1. Canonicality gate: block.number must be latest + 1.
//  2. Parent lookup: block.parent_hash → parent_number → parent_header.
//  3. Header validation (ValidateHeader).
//  4. Blob-gas accounting (ValidateBlobGas).
//  5. EVM execution.
//  6. Gas-used cross-check against the last receipt's cumulative gas used.
//  7. State transition application.
//  8. World-state-root recheck against the header's declared state_root.
//  9. Atomic commit via StoreEngine.AddBlock, advancing the latest tag.
//
// Every failure is a *ChainError from the package's closed taxonomy; no
// partial state is ever observable by a concurrent reader, since nothing
// is written to the engine until step 9.
func AddBlock(store *kvstore.Store, cfg *chainconfig.ChainConfig, evm EVM, block *types.Block) error {
	start := time.Now()
	defer func() { metrics.BlockImportDuration.Observe(time.Since(start).Seconds()) }()

	engine := store.Engine()

	latest, ok, err := engine.GetChainTag(kvstore.TagLatest)
	if err != nil {
		return StoreErr(err)
	}
	if !ok || block.Header.Number != latest+1 {
		return NonCanonicalBlock()
	}

	parentNumber, ok, err := engine.GetBlockNumber(block.Header.ParentHash)
	if err != nil {
		return StoreErr(err)
	}
	if !ok {
		return ParentNotFound("parent_hash not present in block_numbers")
	}
	parent, ok, err := engine.GetBlockHeader(parentNumber)
	if err != nil {
		return StoreErr(err)
	}
	if !ok {
		return ParentNotFound("no header stored at the resolved parent number")
	}

	if err := ValidateHeader(cfg, block.Header, parent); err != nil {
		return err
	}
	if err := ValidateBlobGas(block.Header, block.Body.Transactions); err != nil {
		return err
	}

	receipts, err := evm.Execute(cfg, block.Header, block.Body)
	if err != nil {
		return EvmErr(err)
	}
	if err := checkGasUsed(block.Header, receipts); err != nil {
		return err
	}

	if err := evm.ApplyStateTransitions(engine, block.Header, block.Body, receipts); err != nil {
		return EvmErr(err)
	}

	root, err := store.WorldStateRoot()
	if err != nil {
		return StoreErr(err)
	}
	if root != block.Header.StateRoot {
		return InvalidBlockErr(StateRootMismatch,
			"recomputed world state root does not match the header's state_root")
	}

	if err := engine.AddBlock(block.Header, block.Body, receipts); err != nil {
		return StoreErr(err)
	}
	metrics.BlocksImported.Inc()
	return nil
}

func checkGasUsed(header *types.Header, receipts []*types.Receipt) error {
	var cumulative uint64
	if n := len(receipts); n > 0 {
		cumulative = receipts[n-1].CumulativeGasUsed
	}
	if cumulative != header.GasUsed {
		return InvalidBlockErr(GasUsedMismatch, "cumulative gas used across receipts does not match gas_used")
	}
	return nil
}

// LatestValidHash returns the hash of the header stored at the latest tag,
// the value NewPayload-style callers report back as latestValidHash on
// rejection. The zero hash is returned, with ok=false, before any block
// (including genesis) has been installed.
func LatestValidHash(engine kvstore.StoreEngine) (hash common.Hash, ok bool, err error) {
	number, present, err := engine.GetChainTag(kvstore.TagLatest)
	if err != nil {
		return common.Hash{}, false, err
	}
	if !present {
		return common.Hash{}, false, nil
	}
	header, present, err := engine.GetBlockHeader(number)
	if err != nil {
		return common.Hash{}, false, err
	}
	if !present {
		return common.Hash{}, false, nil
	}
	return header.Hash(), true, nil
}
