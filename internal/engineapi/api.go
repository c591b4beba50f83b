package engineapi

import "github.com/ethereum/go-ethereum/common"

// API is the engine_ namespace this node's authrpc server exposes. Only
// NewPayloadV3 is implemented; the rest of the Cancun engine-API surface
// (ForkchoiceUpdatedV3, GetPayloadV3, ExchangeCapabilities, ...) belongs to
// consensus-client-driven payload building, which this node does not do.
type API struct {
	driver *Driver
}

// NewPayloadV3 is the engine_newPayloadV3 JSON-RPC method: its three
// positional parameters are the payload, the expected blob-versioned-hashes
// list, and the parent beacon block root.
func (a *API) NewPayloadV3(payload ExecutionPayloadV3, expectedBlobVersionedHashes []common.Hash, parentBeaconBlockRoot common.Hash) (*PayloadStatus, error) {
	return a.driver.NewPayloadV3(&NewPayloadV3Request{
		Payload:                     &payload,
		ExpectedBlobVersionedHashes: expectedBlobVersionedHashes,
		ParentBeaconBlockRoot:       parentBeaconBlockRoot,
	})
}
