package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/latticelayer/execution-core/internal/chain"
	"github.com/latticelayer/execution-core/internal/chainconfig"
	"github.com/latticelayer/execution-core/internal/kvstore"
	"github.com/latticelayer/execution-core/internal/types"
)

// rawBlock mirrors debug_getRawBlock's wire shape
// [header, transactions, ommers, withdrawals], letting --import consume the
// same format that namespace exports.
type rawBlock struct {
	Header       *types.Header
	Transactions []*types.Transaction
	Ommers       []*types.Header
	Withdrawals  []*types.Withdrawal
}

// importBlockFile reads a stream of RLP-encoded rawBlock values from path
// and runs each through chain.AddBlock in file order, stopping at the first
// error.
func importBlockFile(store *kvstore.Store, cfg *chainconfig.ChainConfig, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	stream := rlp.NewStream(f, 0)
	imported := 0
	for {
		var block rawBlock
		if err := stream.Decode(&block); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("decoding block %d: %w", imported, err)
		}
		body := &types.Body{
			Transactions: block.Transactions,
			Ommers:       block.Ommers,
			Withdrawals:  block.Withdrawals,
		}
		if err := chain.AddBlock(store, cfg, noEVM{}, &types.Block{Header: block.Header, Body: body}); err != nil {
			return fmt.Errorf("importing block %d (number %d): %w", imported, block.Header.Number, err)
		}
		imported++
	}
	return nil
}
