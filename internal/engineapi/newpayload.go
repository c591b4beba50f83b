package engineapi

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/latticelayer/execution-core/internal/chain"
	"github.com/latticelayer/execution-core/internal/chainconfig"
	"github.com/latticelayer/execution-core/internal/kvstore"
	"github.com/latticelayer/execution-core/internal/metrics"
	"github.com/latticelayer/execution-core/internal/types"
)

// Driver runs the engine_newPayloadV3 policy of spec §4.1.3 against a Store.
// Every check up to the add_block call is answered without mutating
// anything; only the final branch touches the import pipeline.
type Driver struct {
	store *kvstore.Store
	cfg   *chainconfig.ChainConfig
	evm   chain.EVM
}

// NewDriver builds a Driver over store, validating incoming payloads
// against cfg's active-fork rules and delegating execution to evm.
func NewDriver(store *kvstore.Store, cfg *chainconfig.ChainConfig, evm chain.EVM) *Driver {
	return &Driver{store: store, cfg: cfg, evm: evm}
}

// NewPayloadV3 implements the full policy table:
//
//   - Fork not Cancun (by payload number/timestamp)     -> request fails
//   - Hash mismatch (computed vs declared)            -> INVALID
//   - Blob-versioned-hashes mismatch                   -> INVALID
//   - Block already stored at its declared number      -> VALID(block_hash)
//   - Block number <= latest but not stored            -> SYNCING (no reorg)
//   - Block number != latest + 1                       -> SYNCING
//   - Otherwise run add_block and map its error kind.
func (d *Driver) NewPayloadV3(req *NewPayloadV3Request) (*PayloadStatus, error) {
	status, err := d.newPayloadV3(req)
	if status != nil {
		metrics.EngineAPIRequests.WithLabelValues("engine_newPayloadV3", string(status.Status)).Inc()
	}
	return status, err
}

func (d *Driver) newPayloadV3(req *NewPayloadV3Request) (*PayloadStatus, error) {
	if !d.cfg.IsCancun(uint64(req.Payload.BlockNumber), uint64(req.Payload.Timestamp)) {
		return nil, errUnsupportedFork
	}

	decoded, err := req.decode()
	if err != nil {
		return invalid(nil, err.Error()), nil
	}

	if decoded.headerHash != req.Payload.BlockHash {
		return invalid(nil, "invalid block hash"), nil
	}

	if !blobHashesMatch(decoded.block.Body.Transactions, req.ExpectedBlobVersionedHashes) {
		return invalid(nil, "blob versioned hashes do not match the expected list"), nil
	}

	engine := d.store.Engine()
	number := decoded.block.Header.Number

	existing, ok, err := engine.GetBlockHeader(number)
	if err != nil {
		return nil, err
	}
	if ok && existing.Hash() == decoded.headerHash {
		return valid(decoded.headerHash), nil
	}

	latest, haveLatest, err := engine.GetChainTag(kvstore.TagLatest)
	if err != nil {
		return nil, err
	}
	if !haveLatest || number <= latest || number != latest+1 {
		// A block at or below the current head that isn't already stored
		// under this exact hash would require resolving a reorg, which this
		// pipeline never attempts; report SYNCING rather than an error,
		// same as a block that's simply ahead of where import has reached.
		return syncing(), nil
	}

	if err := chain.AddBlock(d.store, d.cfg, d.evm, decoded.block); err != nil {
		return d.mapError(engine, err)
	}
	return valid(decoded.headerHash), nil
}

func (d *Driver) mapError(engine kvstore.StoreEngine, err error) (*PayloadStatus, error) {
	switch {
	case errors.Is(err, chain.ErrNonCanonicalBlock):
		return syncing(), nil
	case errors.Is(err, chain.ErrParentNotFound):
		return invalid(nil, "could not reference parent"), nil
	case chain.IsInvalidBlock(err):
		latestValid, ok, lvErr := chain.LatestValidHash(engine)
		if lvErr != nil {
			return nil, lvErr
		}
		var hash *common.Hash
		if ok {
			hash = &latestValid
		}
		return invalid(hash, err.Error()), nil
	case errors.Is(err, chain.ErrEvmError):
		return invalid(nil, err.Error()), nil
	default:
		// StoreError (or anything unrecognized) escalates: it indicates
		// corruption or an I/O failure, not a bad payload.
		return nil, err
	}
}

func blobHashesMatch(txs []*types.Transaction, expected []common.Hash) bool {
	var got []common.Hash
	for _, tx := range txs {
		got = append(got, tx.BlobVersionedHashesOf()...)
	}
	if len(got) != len(expected) {
		return false
	}
	for i := range got {
		if got[i] != expected[i] {
			return false
		}
	}
	return true
}
