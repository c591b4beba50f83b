package main

import (
	"errors"

	"github.com/latticelayer/execution-core/internal/chainconfig"
	"github.com/latticelayer/execution-core/internal/kvstore"
	"github.com/latticelayer/execution-core/internal/types"
)

var errNoEVMConfigured = errors.New("execution-core: no EVM collaborator wired in; cannot execute a block with transactions")

// noEVM satisfies chain.EVM without executing any transaction. The EVM
// opcode interpreter is an external collaborator by design (spec's own
// boundary: "treated as a black box with a defined contract") — this
// binary wires the import pipeline's execution seam to a real
// implementation at deploy time, not here. A block with any transactions
// fails to import against noEVM; an empty block round-trips cleanly, which
// is enough to exercise every other stage of the pipeline standalone.
type noEVM struct{}

func (noEVM) Execute(cfg *chainconfig.ChainConfig, header *types.Header, body *types.Body) ([]*types.Receipt, error) {
	if len(body.Transactions) > 0 {
		return nil, errNoEVMConfigured
	}
	return nil, nil
}

func (noEVM) ApplyStateTransitions(engine kvstore.StoreEngine, header *types.Header, body *types.Body, receipts []*types.Receipt) error {
	return nil
}
